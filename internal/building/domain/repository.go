package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type OccupancyRow struct {
	Building
	TotalUnits     int
	AvailableUnits int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, building *Building) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Building, error)
	ListWithUnitCounts(ctx context.Context, db *gorm.DB, search string) ([]OccupancyRow, error)
	Update(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	CountUnits(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
