package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/internal/customer/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/option"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"github.com/smallbiznis/storagedesk/pkg/repository"
	"gorm.io/gorm"
)

const activeRentalsColumn = `(SELECT COUNT(*) FROM rentals
	WHERE rentals.customer_id = customers.id AND rentals.status = 'active') AS active_rentals`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) store(db *gorm.DB) repository.Store[domain.Customer] {
	return repository.On[domain.Customer](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return r.store(db).Create(ctx, customer)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Select("customers.*, "+activeRentalsColumn).
		Where("customers.id = ?", id).
		Take(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCustomerFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	stmt := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Select("customers.*, " + activeRentalsColumn)
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		stmt = stmt.Where("LOWER(customers.name) LIKE ? OR LOWER(customers.email) LIKE ?", like, like)
	}
	stmt = option.ApplyTablePagination(domain.TableName, page).Apply(stmt)
	err := stmt.
		Order("customers.created_at desc, customers.id desc").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	return r.store(db).Update(ctx, id, fields)
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return r.store(db).Delete(ctx, id)
}

func (r *repo) CountRentals(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM rentals WHERE customer_id = ?`, id).Scan(&count).Error
	return count, err
}
