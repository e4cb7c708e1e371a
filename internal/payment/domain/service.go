package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
)

type CreatePaymentRequest struct {
	RentalID string
	// Amount defaults to the rental's total amount.
	Amount *decimal.Decimal
	// Date defaults to today.
	Date   *time.Time
	Method string
	// IsLate is derived from the late-fee grace period when nil.
	IsLate *bool
}

type ListPaymentRequest struct {
	PageToken string
	PageSize  int
	RentalID  string
	IsLate    *bool
}

type ListPaymentFilter struct {
	RentalID int64
	IsLate   *bool
}

// PaymentView is a payment as listed, with its display status.
type PaymentView struct {
	Payment
	Status string `json:"status"`
}

type ListPaymentResponse struct {
	pagination.PageInfo
	Payments []PaymentView `json:"payments"`
}

type Service interface {
	Create(context.Context, CreatePaymentRequest) (PaymentView, error)
	List(context.Context, ListPaymentRequest) (ListPaymentResponse, error)
	Delete(context.Context, string) error
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidRental   = errors.New("invalid_rental")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidMethod   = errors.New("invalid_method")
	ErrRentalNotFound  = errors.New("rental_not_found")
	ErrRentalNotActive = errors.New("rental_not_active")
	ErrNotFound        = errors.New("not_found")
)
