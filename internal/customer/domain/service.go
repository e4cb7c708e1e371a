package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken string
	PageSize  int
	Search    string
}

type ListCustomerFilter struct {
	Search string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name     string
	Email    string
	Phone    *string
	Address  *string
	Metadata map[string]any
}

type UpdateCustomerRequest struct {
	ID       string
	Name     *string
	Email    *string
	Phone    *string
	Address  *string
	Metadata map[string]any
}

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	Delete(context.Context, GetCustomerRequest) error
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
	ErrHasRentals   = errors.New("customer_has_rentals")
)
