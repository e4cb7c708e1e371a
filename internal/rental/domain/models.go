package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const TableName = "rentals"

type RentalStatus string

const (
	RentalStatusActive    RentalStatus = "active"
	RentalStatusCompleted RentalStatus = "completed"
)

// Rental is one customer's occupancy of one unit. Only active rentals hold a
// unit in the rented state; completed is terminal.
type Rental struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	UnitID      snowflake.ID    `gorm:"not null;index" json:"unit_id"`
	CustomerID  snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	StartDate   time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate     *time.Time      `gorm:"type:date;check:chk_rentals_end_date,end_date IS NULL OR end_date >= start_date" json:"end_date,omitempty"`
	Status      RentalStatus    `gorm:"type:varchar(16);not null;default:active;index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`

	CustomerName string       `gorm:"->;-:migration" json:"customer_name,omitempty"`
	UnitNumber   string       `gorm:"->;-:migration" json:"unit_number,omitempty"`
	BuildingID   snowflake.ID `gorm:"->;-:migration" json:"building_id,omitempty"`
	BuildingName string       `gorm:"->;-:migration" json:"building_name,omitempty"`
}

func (Rental) TableName() string { return TableName }

func (r Rental) IsActive() bool {
	return r.Status == RentalStatusActive
}
