package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/storagedesk/internal/payment/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Rental, error)
	List(ctx context.Context, db *gorm.DB, filter ListRentalFilter, page pagination.Pagination) ([]*Rental, error)
	ListPayments(ctx context.Context, db *gorm.DB, rentalID snowflake.ID) ([]paymentdomain.Payment, error)
}
