package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/storagedesk/internal/payment/domain"
	"github.com/smallbiznis/storagedesk/internal/rental/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/option"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Rental, error) {
	var rental domain.Rental
	err := r.base(ctx, db).Where("rentals.id = ?", id).Take(&rental).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRentalFilter, page pagination.Pagination) ([]*domain.Rental, error) {
	stmt := r.base(ctx, db)
	if filter.Status != "" {
		stmt = stmt.Where("rentals.status = ?", filter.Status)
	}
	if filter.BuildingID != 0 {
		stmt = stmt.Where("units.building_id = ?", filter.BuildingID)
	}
	if filter.CustomerID != 0 {
		stmt = stmt.Where("rentals.customer_id = ?", filter.CustomerID)
	}
	if filter.UnitID != 0 {
		stmt = stmt.Where("rentals.unit_id = ?", filter.UnitID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		stmt = stmt.Where("LOWER(customers.name) LIKE ? OR LOWER(units.number) LIKE ?", like, like)
	}

	stmt = option.ApplyTablePagination(domain.TableName, page).Apply(stmt)

	var items []*domain.Rental
	err := stmt.Order("rentals.created_at desc, rentals.id desc").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, rentalID snowflake.ID) ([]paymentdomain.Payment, error) {
	var payments []paymentdomain.Payment
	err := db.WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Where("rental_id = ?", rentalID).
		Order("date asc, id asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) base(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Model(&domain.Rental{}).
		Select(`rentals.*,
			customers.name AS customer_name,
			units.number AS unit_number,
			units.building_id AS building_id,
			buildings.name AS building_name`).
		Joins("LEFT JOIN customers ON customers.id = rentals.customer_id").
		Joins("LEFT JOIN units ON units.id = rentals.unit_id").
		Joins("LEFT JOIN buildings ON buildings.id = units.building_id")
}
