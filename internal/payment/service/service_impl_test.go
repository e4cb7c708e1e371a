package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	buildingdomain "github.com/smallbiznis/storagedesk/internal/building/domain"
	"github.com/smallbiznis/storagedesk/internal/clock"
	"github.com/smallbiznis/storagedesk/internal/config"
	customerdomain "github.com/smallbiznis/storagedesk/internal/customer/domain"
	"github.com/smallbiznis/storagedesk/internal/payment/domain"
	"github.com/smallbiznis/storagedesk/internal/payment/repository"
	"github.com/smallbiznis/storagedesk/internal/payment/service"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	rentalrepository "github.com/smallbiznis/storagedesk/internal/rental/repository"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	svc  domain.Service
	db   *gorm.DB
	node *snowflake.Node
	clk  *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t,
		&buildingdomain.Building{},
		&unitdomain.Unit{},
		&customerdomain.Customer{},
		&rentaldomain.Rental{},
		&domain.Payment{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(testNow)
	return &fixture{
		svc: service.NewService(service.Params{
			DB:         db,
			Log:        zap.NewNop(),
			GenID:      node,
			Clock:      clk,
			LedgerCfg:  config.NewStaticLedgerConfigHolder(config.DefaultLedgerConfig()),
			Repo:       repository.Provide(),
			RentalRepo: rentalrepository.Provide(),
		}),
		db:   db,
		node: node,
		clk:  clk,
	}
}

func (f *fixture) seedRental(t *testing.T, status rentaldomain.RentalStatus, start time.Time) rentaldomain.Rental {
	t.Helper()
	customer := customerdomain.Customer{ID: f.node.Generate(), Name: "Dana Whitfield", Email: "dana@example.com", CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, f.db.Create(&customer).Error)
	unit := unitdomain.Unit{
		ID: f.node.Generate(), BuildingID: f.node.Generate(), Number: "B-" + f.node.Generate().String(),
		Size: "5x5", PricePerMonth: decimal.NewFromInt(75), Status: unitdomain.UnitStatusRented,
		CreatedAt: testNow, UpdatedAt: testNow,
	}
	require.NoError(t, f.db.Create(&unit).Error)
	rental := rentaldomain.Rental{
		ID: f.node.Generate(), UnitID: unit.ID, CustomerID: customer.ID,
		StartDate: start, Status: status, TotalAmount: decimal.RequireFromString("225.00"),
		CreatedAt: testNow, UpdatedAt: testNow,
	}
	require.NoError(t, f.db.Create(&rental).Error)
	return rental
}

func TestCreateAppliesDefaults(t *testing.T) {
	f := newFixture(t)
	rental := f.seedRental(t, rentaldomain.RentalStatusActive, date(2024, 5, 1))

	payment, err := f.svc.Create(context.Background(), domain.CreatePaymentRequest{
		RentalID: rental.ID.String(),
		Method:   "cash",
	})
	require.NoError(t, err)

	assert.True(t, payment.Amount.Equal(decimal.RequireFromString("225")), "got %s", payment.Amount)
	assert.True(t, payment.Date.Equal(date(2024, 5, 10)))
	// Due on the 1st with five days of grace, so the 10th is late.
	assert.True(t, payment.IsLate)
	assert.Equal(t, domain.DisplayStatusOverdue, payment.Status)
	assert.Equal(t, "Dana Whitfield", payment.CustomerName)
}

func TestCreateDerivesLateness(t *testing.T) {
	f := newFixture(t)
	rental := f.seedRental(t, rentaldomain.RentalStatusActive, date(2024, 1, 10))
	amount := decimal.NewFromInt(50)

	cases := []struct {
		name string
		paid time.Time
		want bool
	}{
		{"before due day", date(2024, 5, 3), false},
		{"last grace day", date(2024, 5, 15), false},
		{"after grace", date(2024, 5, 16), true},
		{"end of month", date(2024, 4, 30), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			paid := tc.paid
			payment, err := f.svc.Create(context.Background(), domain.CreatePaymentRequest{
				RentalID: rental.ID.String(),
				Amount:   &amount,
				Date:     &paid,
				Method:   "credit_card",
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, payment.IsLate)
		})
	}

	explicit := false
	paid := date(2024, 4, 25)
	payment, err := f.svc.Create(context.Background(), domain.CreatePaymentRequest{
		RentalID: rental.ID.String(), Amount: &amount, Date: &paid, Method: "bank_transfer", IsLate: &explicit,
	})
	require.NoError(t, err)
	assert.False(t, payment.IsLate)
	assert.Equal(t, domain.DisplayStatusCompleted, payment.Status)
}

func TestCreateValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.seedRental(t, rentaldomain.RentalStatusActive, date(2024, 5, 1))
	completed := f.seedRental(t, rentaldomain.RentalStatusCompleted, date(2024, 1, 1))
	zero := decimal.Zero

	_, err := f.svc.Create(ctx, domain.CreatePaymentRequest{RentalID: "x", Method: "cash"})
	assert.ErrorIs(t, err, domain.ErrInvalidRental)

	_, err = f.svc.Create(ctx, domain.CreatePaymentRequest{RentalID: active.ID.String(), Method: "cheque"})
	assert.ErrorIs(t, err, domain.ErrInvalidMethod)

	_, err = f.svc.Create(ctx, domain.CreatePaymentRequest{RentalID: f.node.Generate().String(), Method: "cash"})
	assert.ErrorIs(t, err, domain.ErrRentalNotFound)

	_, err = f.svc.Create(ctx, domain.CreatePaymentRequest{RentalID: completed.ID.String(), Method: "cash"})
	assert.ErrorIs(t, err, domain.ErrRentalNotActive)

	_, err = f.svc.Create(ctx, domain.CreatePaymentRequest{RentalID: active.ID.String(), Method: "cash", Amount: &zero})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestListFiltersAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.seedRental(t, rentaldomain.RentalStatusActive, date(2024, 5, 1))
	second := f.seedRental(t, rentaldomain.RentalStatusActive, date(2024, 5, 1))
	amount := decimal.NewFromInt(20)

	onTime := date(2024, 5, 2)
	var kept domain.PaymentView
	for i, req := range []domain.CreatePaymentRequest{
		{RentalID: first.ID.String(), Amount: &amount, Date: &onTime, Method: "cash"},
		{RentalID: first.ID.String(), Amount: &amount, Method: "cash"},
		{RentalID: second.ID.String(), Amount: &amount, Method: "cash"},
	} {
		f.clk.Advance(time.Minute)
		view, err := f.svc.Create(ctx, req)
		require.NoError(t, err)
		if i == 0 {
			kept = view
		}
	}

	all, err := f.svc.List(ctx, domain.ListPaymentRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Payments, 3)
	assert.False(t, all.HasMore)

	byRental, err := f.svc.List(ctx, domain.ListPaymentRequest{RentalID: first.ID.String()})
	require.NoError(t, err)
	assert.Len(t, byRental.Payments, 2)

	late := true
	lateOnly, err := f.svc.List(ctx, domain.ListPaymentRequest{IsLate: &late})
	require.NoError(t, err)
	require.Len(t, lateOnly.Payments, 2)
	for _, p := range lateOnly.Payments {
		assert.Equal(t, domain.DisplayStatusOverdue, p.Status)
	}

	require.NoError(t, f.svc.Delete(ctx, kept.ID.String()))
	assert.ErrorIs(t, f.svc.Delete(ctx, kept.ID.String()), domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "zzz"), domain.ErrInvalidID)

	_, err = f.svc.List(ctx, domain.ListPaymentRequest{RentalID: "zzz"})
	assert.ErrorIs(t, err, domain.ErrInvalidRental)
}
