package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/storagedesk/internal/payment/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
)

type ListRentalRequest struct {
	PageToken  string
	PageSize   int
	Search     string
	Status     string
	BuildingID string
	CustomerID string
	UnitID     string
}

type ListRentalFilter struct {
	Search     string
	Status     RentalStatus
	BuildingID int64
	CustomerID int64
	UnitID     int64
}

type ListRentalResponse struct {
	pagination.PageInfo
	Rentals []Rental `json:"rentals"`
	// AutoCompleted counts rentals completed by the reconciliation that ran
	// before this listing.
	AutoCompleted int `json:"auto_completed"`
}

type CreateRentalRequest struct {
	UnitID      string
	CustomerID  string
	StartDate   time.Time
	EndDate     *time.Time
	TotalAmount *decimal.Decimal
}

type CompleteRentalRequest struct {
	ID      string
	UnitID  string
	EndDate *time.Time
}

type QuoteRequest struct {
	UnitID    string
	StartDate time.Time
	EndDate   time.Time
}

type Quote struct {
	UnitID        string          `json:"unit_id"`
	PricePerMonth decimal.Decimal `json:"price_per_month"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	Amount        decimal.Decimal `json:"amount"`
}

// Statement is a rental with everything paid against it.
type Statement struct {
	Rental    Rental                  `json:"rental"`
	Payments  []paymentdomain.Payment `json:"payments"`
	TotalPaid decimal.Decimal         `json:"total_paid"`
	Balance   decimal.Decimal         `json:"balance"`
	IssuedAt  time.Time               `json:"issued_at"`
}

type Service interface {
	List(context.Context, ListRentalRequest) (ListRentalResponse, error)
	GetByID(context.Context, string) (Rental, error)
	Create(context.Context, CreateRentalRequest) (Rental, error)
	Complete(context.Context, CompleteRentalRequest) (Rental, error)
	Remove(context.Context, string) error
	Reconcile(context.Context) (int, error)
	Quote(context.Context, QuoteRequest) (Quote, error)
	Statement(context.Context, string) (Statement, error)
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidUnit     = errors.New("invalid_unit")
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrInvalidFilter   = errors.New("invalid_filter")
	ErrNotFound        = errors.New("not_found")
)
