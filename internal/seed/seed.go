package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	buildingdomain "github.com/smallbiznis/storagedesk/internal/building/domain"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
	"gorm.io/gorm"
)

type sampleUnit struct {
	number  string
	size    string
	price   string
	climate bool
	status  unitdomain.UnitStatus
}

type sampleBuilding struct {
	name    string
	address string
	floors  int
	climate bool
	units   []sampleUnit
}

var sampleFacility = []sampleBuilding{
	{
		name:    "Building A",
		address: "120 Harbor Road",
		floors:  2,
		climate: true,
		units: []sampleUnit{
			{number: "A-101", size: "5x5", price: "45.00", climate: true, status: unitdomain.UnitStatusAvailable},
			{number: "A-102", size: "5x10", price: "65.00", climate: true, status: unitdomain.UnitStatusAvailable},
			{number: "A-201", size: "10x10", price: "110.00", climate: true, status: unitdomain.UnitStatusAvailable},
			{number: "A-202", size: "10x15", price: "145.00", climate: true, status: unitdomain.UnitStatusMaintenance},
		},
	},
	{
		name:    "Building B",
		address: "14 Quarry Lane",
		floors:  1,
		units: []sampleUnit{
			{number: "B-01", size: "10x20", price: "175.00", status: unitdomain.UnitStatusAvailable},
			{number: "B-02", size: "10x30", price: "240.00", status: unitdomain.UnitStatusAvailable},
			{number: "B-03", size: "10x10", price: "95.00", status: unitdomain.UnitStatusReserved},
		},
	},
}

// EnsureSampleData inserts a small demo facility when no buildings exist.
// It reports whether anything was written.
func EnsureSampleData(ctx context.Context, db *gorm.DB, node *snowflake.Node, now time.Time) (bool, error) {
	if db == nil {
		return false, errors.New("seed database handle is required")
	}
	if node == nil {
		return false, errors.New("seed id generator is required")
	}

	created := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&buildingdomain.Building{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, b := range sampleFacility {
			building := buildingdomain.Building{
				ID:                  node.Generate(),
				Name:                b.name,
				Address:             b.address,
				Floors:              b.floors,
				IsClimateControlled: b.climate,
				CreatedAt:           now,
				UpdatedAt:           now,
			}
			if err := tx.Create(&building).Error; err != nil {
				return err
			}

			for _, u := range b.units {
				unit := unitdomain.Unit{
					ID:                  node.Generate(),
					BuildingID:          building.ID,
					Number:              u.number,
					Size:                u.size,
					PricePerMonth:       decimal.RequireFromString(u.price),
					IsClimateControlled: u.climate,
					Status:              u.status,
					CreatedAt:           now,
					UpdatedAt:           now,
				}
				if err := tx.Create(&unit).Error; err != nil {
					return err
				}
			}
		}
		created = true
		return nil
	})
	return created, err
}
