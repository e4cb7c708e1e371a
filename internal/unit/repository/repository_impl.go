package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/internal/unit/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/option"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"github.com/smallbiznis/storagedesk/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) store(db *gorm.DB) repository.Store[domain.Unit] {
	return repository.On[domain.Unit](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, unit *domain.Unit) error {
	return r.store(db).Create(ctx, unit)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Unit, error) {
	var unit domain.Unit
	err := r.base(ctx, db).Where("units.id = ?", id).Take(&unit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListUnitFilter, page pagination.Pagination) ([]*domain.Unit, error) {
	stmt := r.base(ctx, db)
	if filter.BuildingID != 0 {
		stmt = stmt.Where("units.building_id = ?", filter.BuildingID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("units.status = ?", filter.Status)
	}
	if filter.Size != "" {
		stmt = stmt.Where("units.size = ?", filter.Size)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		stmt = stmt.Where("LOWER(units.number) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	stmt = option.ApplyTablePagination(domain.TableName, page).Apply(stmt)
	stmt = option.WithOrder("units.created_at desc, units.id desc").Apply(stmt)

	var items []*domain.Unit
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	return r.store(db).Update(ctx, id, fields)
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return r.store(db).Delete(ctx, id)
}

func (r *repo) BuildingExists(ctx context.Context, db *gorm.DB, buildingID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM buildings WHERE id = ?`, buildingID).Scan(&count).Error
	return count > 0, err
}

func (r *repo) CountActiveRentals(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM rentals WHERE unit_id = ? AND status = 'active'`, id).
		Scan(&count).Error
	return count, err
}

func (r *repo) base(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Model(&domain.Unit{}).
		Select("units.*, buildings.name AS building_name").
		Joins("LEFT JOIN buildings ON buildings.id = units.building_id")
}
