package domain

import (
	"context"
	"errors"
)

type CreateBuildingRequest struct {
	Name                string
	Address             string
	Floors              int
	IsClimateControlled bool
}

type UpdateBuildingRequest struct {
	ID                  string
	Name                *string
	Address             *string
	Floors              *int
	IsClimateControlled *bool
}

type ListBuildingRequest struct {
	Search string
}

type ListBuildingResponse struct {
	Buildings []Occupancy `json:"buildings"`
}

type Service interface {
	Create(context.Context, CreateBuildingRequest) (Building, error)
	List(context.Context, ListBuildingRequest) (ListBuildingResponse, error)
	GetByID(context.Context, string) (Building, error)
	Update(context.Context, UpdateBuildingRequest) (Building, error)
	Delete(context.Context, string) error
}

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidAddress = errors.New("invalid_address")
	ErrInvalidFloors  = errors.New("invalid_floors")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
	ErrHasUnits       = errors.New("building_has_units")
)
