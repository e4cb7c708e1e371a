package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
)

// Operation names used in logs, metrics and InconsistencyError.
const (
	OperationCreateRental     = "create_rental"
	OperationCompleteRental   = "complete_rental"
	OperationRemoveRental     = "remove_rental"
	OperationChangeUnitStatus = "change_unit_status"
)

type CreateRentalRequest struct {
	UnitID     snowflake.ID
	CustomerID snowflake.ID
	StartDate  time.Time
	EndDate    *time.Time
	// TotalAmount defaults to the pro-rated amount when nil and EndDate is set.
	TotalAmount *decimal.Decimal
}

type CompleteRentalRequest struct {
	RentalID snowflake.ID
	UnitID   snowflake.ID
	// EndDate defaults to today.
	EndDate *time.Time
}

type RemoveRentalRequest struct {
	RentalID snowflake.ID
	UnitID   snowflake.ID
	// CurrentStatus is read from storage when empty.
	CurrentStatus rentaldomain.RentalStatus
}

type ChangeUnitStatusRequest struct {
	UnitID snowflake.ID
	// CurrentStatus is read from storage when empty.
	CurrentStatus unitdomain.UnitStatus
	NewStatus     unitdomain.UnitStatus
}

// Service keeps a unit's status and its rentals in step.
type Service interface {
	CreateRental(ctx context.Context, req CreateRentalRequest) (rentaldomain.Rental, error)
	CompleteRental(ctx context.Context, req CompleteRentalRequest) (rentaldomain.Rental, error)
	// ReconcileExpiredRentals completes every active rental in rentals whose
	// end date is before today and returns how many it completed.
	ReconcileExpiredRentals(ctx context.Context, rentals []rentaldomain.Rental, today time.Time) (int, error)
	// ReconcileAll runs ReconcileExpiredRentals over every active rental.
	ReconcileAll(ctx context.Context) (int, error)
	RemoveRental(ctx context.Context, req RemoveRentalRequest) error
	ChangeUnitStatus(ctx context.Context, req ChangeUnitStatusRequest) error
}
