package service

import (
	"context"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/internal/clock"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	reportdomain "github.com/smallbiznis/storagedesk/internal/report/domain"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	RentalRepo rentaldomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	rentalRepo rentaldomain.Repository
}

func NewService(p Params) reportdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("report.service"),
		clock:      p.Clock,
		rentalRepo: p.RentalRepo,
	}
}

type statusRow struct {
	Status string
	Count  int
}

type paymentRow struct {
	Amount decimal.Decimal
	Date   time.Time
}

type overdueRow struct {
	ID           snowflake.ID
	RentalID     snowflake.ID
	CustomerName string
	UnitNumber   string
	Amount       decimal.Decimal
	Date         time.Time
}

func (s *Service) Dashboard(ctx context.Context) (reportdomain.Dashboard, error) {
	now := s.clock.Now()

	statuses, err := s.unitStatusCounts(ctx)
	if err != nil {
		return reportdomain.Dashboard{}, err
	}

	var customers int64
	if err := s.db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM customers`).Scan(&customers).Error; err != nil {
		return reportdomain.Dashboard{}, err
	}

	revenue, err := s.revenueSeries(ctx, now)
	if err != nil {
		return reportdomain.Dashboard{}, err
	}

	recent, err := s.rentalRepo.List(ctx, s.db, rentaldomain.ListRentalFilter{}, pagination.Pagination{
		PageSize: reportdomain.RecentRentalsLimit,
	})
	if err != nil {
		return reportdomain.Dashboard{}, err
	}
	if len(recent) > reportdomain.RecentRentalsLimit {
		recent = recent[:reportdomain.RecentRentalsLimit]
	}
	recentRentals := make([]rentaldomain.Rental, 0, len(recent))
	for _, rental := range recent {
		recentRentals = append(recentRentals, *rental)
	}

	overdue, err := s.overduePayments(ctx, now)
	if err != nil {
		return reportdomain.Dashboard{}, err
	}

	stats := buildStats(statuses, int(customers), revenue)
	return reportdomain.Dashboard{
		Stats:           stats,
		UnitStatus:      statuses,
		Revenue:         revenue,
		RecentRentals:   recentRentals,
		OverduePayments: overdue,
		GeneratedAt:     now,
	}, nil
}

func (s *Service) unitStatusCounts(ctx context.Context) ([]reportdomain.StatusCount, error) {
	var rows []statusRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT status, COUNT(*) AS count FROM units GROUP BY status`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	ordered := []unitdomain.UnitStatus{
		unitdomain.UnitStatusAvailable,
		unitdomain.UnitStatusRented,
		unitdomain.UnitStatusReserved,
		unitdomain.UnitStatusMaintenance,
	}
	out := make([]reportdomain.StatusCount, 0, len(ordered))
	for _, status := range ordered {
		out = append(out, reportdomain.StatusCount{Status: string(status), Count: counts[string(status)]})
	}
	return out, nil
}

// revenueSeries sums payments per calendar month for the last RevenueMonths
// months, oldest first, including the current month.
func (s *Service) revenueSeries(ctx context.Context, now time.Time) ([]reportdomain.SeriesPoint, error) {
	first := monthStart(now).AddDate(0, -(reportdomain.RevenueMonths - 1), 0)

	var rows []paymentRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT amount, date FROM payments WHERE date >= ?`,
		first,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	series := make([]reportdomain.SeriesPoint, reportdomain.RevenueMonths)
	index := make(map[string]int, reportdomain.RevenueMonths)
	for i := range series {
		period := first.AddDate(0, i, 0).Format("2006-01")
		series[i] = reportdomain.SeriesPoint{Period: period, Value: decimal.Zero}
		index[period] = i
	}
	for _, row := range rows {
		if i, ok := index[row.Date.UTC().Format("2006-01")]; ok {
			series[i].Value = series[i].Value.Add(row.Amount)
		}
	}
	return series, nil
}

func (s *Service) overduePayments(ctx context.Context, now time.Time) ([]reportdomain.OverduePayment, error) {
	var rows []overdueRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT p.id, p.rental_id, c.name AS customer_name, u.number AS unit_number, p.amount, p.date
		 FROM payments p
		 JOIN rentals r ON r.id = p.rental_id
		 JOIN customers c ON c.id = r.customer_id
		 JOIN units u ON u.id = r.unit_id
		 WHERE p.is_late = ?
		 ORDER BY p.date ASC, p.id ASC
		 LIMIT ?`,
		true,
		reportdomain.OverduePaymentsLimit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]reportdomain.OverduePayment, 0, len(rows))
	for _, row := range rows {
		out = append(out, reportdomain.OverduePayment{
			ID:           row.ID,
			RentalID:     row.RentalID,
			CustomerName: row.CustomerName,
			UnitNumber:   row.UnitNumber,
			Amount:       row.Amount,
			Date:         row.Date,
			DaysOverdue:  daysOverdue(row.Date, now),
		})
	}
	return out, nil
}

func buildStats(statuses []reportdomain.StatusCount, customers int, revenue []reportdomain.SeriesPoint) reportdomain.Stats {
	stats := reportdomain.Stats{TotalCustomers: customers}
	for _, sc := range statuses {
		stats.TotalUnits += sc.Count
		switch unitdomain.UnitStatus(sc.Status) {
		case unitdomain.UnitStatusRented, unitdomain.UnitStatusReserved:
			stats.OccupiedUnits += sc.Count
		case unitdomain.UnitStatusAvailable:
			stats.AvailableUnits += sc.Count
		}
	}
	if stats.TotalUnits > 0 {
		stats.OccupancyRate = int(math.Round(float64(stats.OccupiedUnits) / float64(stats.TotalUnits) * 100))
	}

	stats.MonthlyRevenue = decimal.Zero
	stats.PreviousRevenue = decimal.Zero
	if n := len(revenue); n > 0 {
		stats.MonthlyRevenue = revenue[n-1].Value
		if n > 1 {
			stats.PreviousRevenue = revenue[n-2].Value
		}
	}
	stats.RevenueTrend = revenueTrend(stats.MonthlyRevenue, stats.PreviousRevenue)
	return stats
}

// revenueTrend is the percent change from previous to current, rounded to
// one decimal. A month following a zero month counts as 100%.
func revenueTrend(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 100
	}
	trend := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1)
	return trend.InexactFloat64()
}

// daysOverdue counts started days since the payment date, at least one.
func daysOverdue(date, now time.Time) int {
	days := int(math.Ceil(now.Sub(date).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
