package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
)

type CreateUnitRequest struct {
	BuildingID          string
	Number              string
	Size                string
	PricePerMonth       decimal.Decimal
	IsClimateControlled bool
	Status              string
}

type UpdateUnitRequest struct {
	ID                  string
	Number              *string
	Size                *string
	PricePerMonth       *decimal.Decimal
	IsClimateControlled *bool
}

type ChangeStatusRequest struct {
	ID     string
	Status string
}

type ListUnitRequest struct {
	PageToken  string
	PageSize   int
	BuildingID string
	Status     string
	Size       string
	Search     string
}

type ListUnitFilter struct {
	BuildingID int64
	Status     UnitStatus
	Size       string
	Search     string
}

type ListUnitResponse struct {
	pagination.PageInfo
	Units []Unit `json:"units"`
}

type Service interface {
	Create(context.Context, CreateUnitRequest) (Unit, error)
	List(context.Context, ListUnitRequest) (ListUnitResponse, error)
	GetByID(context.Context, string) (Unit, error)
	Update(context.Context, UpdateUnitRequest) (Unit, error)
	ChangeStatus(context.Context, ChangeStatusRequest) (Unit, error)
	Delete(context.Context, string) error
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidBuilding  = errors.New("invalid_building")
	ErrInvalidNumber    = errors.New("invalid_number")
	ErrInvalidSize      = errors.New("invalid_size")
	ErrInvalidPrice     = errors.New("invalid_price")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrDuplicateNumber  = errors.New("duplicate_unit_number")
	ErrHasActiveRentals = errors.New("unit_has_active_rentals")
	ErrHasRentalHistory = errors.New("unit_has_rental_history")
	ErrBuildingNotFound = errors.New("building_not_found")
	ErrNotFound         = errors.New("not_found")
)
