package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/internal/building/domain"
	"github.com/smallbiznis/storagedesk/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) store(db *gorm.DB) repository.Store[domain.Building] {
	return repository.On[domain.Building](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, building *domain.Building) error {
	return r.store(db).Create(ctx, building)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Building, error) {
	return r.store(db).FindOne(ctx, &domain.Building{ID: id})
}

func (r *repo) ListWithUnitCounts(ctx context.Context, db *gorm.DB, search string) ([]domain.OccupancyRow, error) {
	var rows []domain.OccupancyRow
	stmt := db.WithContext(ctx).
		Table("buildings AS b").
		Select(`b.id, b.name, b.address, b.floors, b.is_climate_controlled, b.created_at, b.updated_at,
			COUNT(u.id) AS total_units,
			COALESCE(SUM(CASE WHEN u.status = 'available' THEN 1 ELSE 0 END), 0) AS available_units`).
		Joins("LEFT JOIN units AS u ON u.building_id = b.id")
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		stmt = stmt.Where("LOWER(b.name) LIKE ? OR LOWER(b.address) LIKE ?", like, like)
	}
	err := stmt.
		Group("b.id, b.name, b.address, b.floors, b.is_climate_controlled, b.created_at, b.updated_at").
		Order("b.name asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	return r.store(db).Update(ctx, id, fields)
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return r.store(db).Delete(ctx, id)
}

func (r *repo) CountUnits(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM units WHERE building_id = ?`, id).Scan(&count).Error
	return count, err
}
