package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
)

const (
	RevenueMonths        = 6
	RecentRentalsLimit   = 4
	OverduePaymentsLimit = 3
)

type Stats struct {
	TotalUnits      int             `json:"total_units"`
	OccupiedUnits   int             `json:"occupied_units"`
	AvailableUnits  int             `json:"available_units"`
	OccupancyRate   int             `json:"occupancy_rate"`
	TotalCustomers  int             `json:"total_customers"`
	MonthlyRevenue  decimal.Decimal `json:"monthly_revenue"`
	PreviousRevenue decimal.Decimal `json:"previous_revenue"`
	// RevenueTrend is the month-over-month change in percent.
	RevenueTrend float64 `json:"revenue_trend"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type SeriesPoint struct {
	Period string          `json:"period"`
	Value  decimal.Decimal `json:"value"`
}

type OverduePayment struct {
	ID           snowflake.ID    `json:"id"`
	RentalID     snowflake.ID    `json:"rental_id"`
	CustomerName string          `json:"customer_name"`
	UnitNumber   string          `json:"unit_number"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	DaysOverdue  int             `json:"days_overdue"`
}

type Dashboard struct {
	Stats           Stats                 `json:"stats"`
	UnitStatus      []StatusCount         `json:"unit_status"`
	Revenue         []SeriesPoint         `json:"revenue"`
	RecentRentals   []rentaldomain.Rental `json:"recent_rentals"`
	OverduePayments []OverduePayment      `json:"overdue_payments"`
	GeneratedAt     time.Time             `json:"generated_at"`
}

type Service interface {
	Dashboard(ctx context.Context) (Dashboard, error)
}
