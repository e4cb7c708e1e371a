package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const TableName = "units"

type UnitStatus string

const (
	UnitStatusAvailable   UnitStatus = "available"
	UnitStatusRented      UnitStatus = "rented"
	UnitStatusReserved    UnitStatus = "reserved"
	UnitStatusMaintenance UnitStatus = "maintenance"
)

func (s UnitStatus) Valid() bool {
	switch s {
	case UnitStatusAvailable, UnitStatusRented, UnitStatusReserved, UnitStatusMaintenance:
		return true
	default:
		return false
	}
}

type Unit struct {
	ID                  snowflake.ID    `gorm:"primaryKey" json:"id"`
	BuildingID          snowflake.ID    `gorm:"not null;uniqueIndex:ux_units_building_number,priority:1" json:"building_id"`
	Number              string          `gorm:"not null;uniqueIndex:ux_units_building_number,priority:2" json:"number"`
	Size                string          `gorm:"not null" json:"size"`
	PricePerMonth       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_per_month"`
	IsClimateControlled bool            `gorm:"not null;default:false" json:"is_climate_controlled"`
	Status              UnitStatus      `gorm:"type:varchar(16);not null;default:available;index" json:"status"`
	CreatedAt           time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null" json:"updated_at"`

	BuildingName string `gorm:"->;-:migration" json:"building_name,omitempty"`
}

func (Unit) TableName() string { return TableName }
