package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/internal/payment/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/option"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, rental_id, amount, date, method, is_late, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.RentalID,
		payment.Amount,
		payment.Date,
		payment.Method,
		payment.IsLate,
		payment.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.base(ctx, db).Where("payments.id = ?", id).Take(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListPaymentFilter, page pagination.Pagination) ([]*domain.Payment, error) {
	stmt := r.base(ctx, db)
	if filter.RentalID != 0 {
		stmt = stmt.Where("payments.rental_id = ?", filter.RentalID)
	}
	if filter.IsLate != nil {
		stmt = stmt.Where("payments.is_late = ?", *filter.IsLate)
	}
	stmt = option.ApplyTablePagination(domain.TableName, page).Apply(stmt)

	var payments []*domain.Payment
	err := stmt.Order("payments.created_at desc, payments.id desc").Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM payments WHERE id = ?`, id).Error
}

func (r *repo) base(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Model(&domain.Payment{}).
		Select("payments.*, customers.name AS customer_name, units.number AS unit_number").
		Joins("LEFT JOIN rentals ON rentals.id = payments.rental_id").
		Joins("LEFT JOIN customers ON customers.id = rentals.customer_id").
		Joins("LEFT JOIN units ON units.id = rentals.unit_id")
}
