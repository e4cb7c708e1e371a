package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, unit *Unit) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Unit, error)
	List(ctx context.Context, db *gorm.DB, filter ListUnitFilter, page pagination.Pagination) ([]*Unit, error)
	Update(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	BuildingExists(ctx context.Context, db *gorm.DB, buildingID snowflake.ID) (bool, error)
	CountActiveRentals(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
