package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/internal/clock"
	"github.com/smallbiznis/storagedesk/internal/config"
	customerdomain "github.com/smallbiznis/storagedesk/internal/customer/domain"
	ledgerdomain "github.com/smallbiznis/storagedesk/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/storagedesk/internal/ledger/service"
	ledgerstore "github.com/smallbiznis/storagedesk/internal/ledger/store"
	paymentdomain "github.com/smallbiznis/storagedesk/internal/payment/domain"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/dbtest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db    *gorm.DB
	store *ledgerstore.GormStore
	clock *clock.FakeClock
	node  *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t,
		&unitdomain.Unit{},
		&customerdomain.Customer{},
		&rentaldomain.Rental{},
		&paymentdomain.Payment{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return &fixture{
		db:    db,
		store: ledgerstore.NewGormStore(db),
		clock: clock.NewFakeClock(testNow),
		node:  node,
	}
}

func (f *fixture) service(store ledgerdomain.Store, atomic bool) ledgerdomain.Service {
	cfg := config.DefaultLedgerConfig()
	cfg.AtomicWrites = atomic
	return ledgerservice.NewService(ledgerservice.Params{
		Log:       zap.NewNop(),
		GenID:     f.node,
		Clock:     f.clock,
		Store:     store,
		LedgerCfg: config.NewStaticLedgerConfigHolder(cfg),
	})
}

func (f *fixture) seedUnit(t *testing.T, status unitdomain.UnitStatus, price string) unitdomain.Unit {
	t.Helper()
	unit := unitdomain.Unit{
		ID:            f.node.Generate(),
		BuildingID:    f.node.Generate(),
		Number:        fmt.Sprintf("U-%d", f.node.Generate().Int64()%10000),
		Size:          "10x10",
		PricePerMonth: decimal.RequireFromString(price),
		Status:        status,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
	require.NoError(t, f.db.Create(&unit).Error)
	return unit
}

func (f *fixture) seedCustomer(t *testing.T) customerdomain.Customer {
	t.Helper()
	customer := customerdomain.Customer{
		ID:        f.node.Generate(),
		Name:      "Dana Whitfield",
		Email:     "dana@example.com",
		Metadata:  datatypes.JSONMap{},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	require.NoError(t, f.db.Create(&customer).Error)
	return customer
}

func (f *fixture) seedRental(t *testing.T, unitID, customerID snowflake.ID, status rentaldomain.RentalStatus, end *time.Time) rentaldomain.Rental {
	t.Helper()
	return f.seedRentalFrom(t, unitID, customerID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), status, end)
}

func (f *fixture) seedRentalFrom(t *testing.T, unitID, customerID snowflake.ID, start time.Time, status rentaldomain.RentalStatus, end *time.Time) rentaldomain.Rental {
	t.Helper()
	rental := rentaldomain.Rental{
		ID:          f.node.Generate(),
		UnitID:      unitID,
		CustomerID:  customerID,
		StartDate:   start,
		EndDate:     end,
		Status:      status,
		TotalAmount: decimal.NewFromInt(100),
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
	require.NoError(t, f.db.Create(&rental).Error)
	return rental
}

func (f *fixture) seedPayment(t *testing.T, rentalID snowflake.ID) paymentdomain.Payment {
	t.Helper()
	payment := paymentdomain.Payment{
		ID:        f.node.Generate(),
		RentalID:  rentalID,
		Amount:    decimal.NewFromInt(50),
		Date:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Method:    paymentdomain.MethodCash,
		CreatedAt: testNow,
	}
	require.NoError(t, f.db.Create(&payment).Error)
	return payment
}

func (f *fixture) unit(t *testing.T, id snowflake.ID) unitdomain.Unit {
	t.Helper()
	var unit unitdomain.Unit
	require.NoError(t, f.db.Where("id = ?", id).Take(&unit).Error)
	return unit
}

func (f *fixture) rental(t *testing.T, id snowflake.ID) rentaldomain.Rental {
	t.Helper()
	var rental rentaldomain.Rental
	require.NoError(t, f.db.Where("id = ?", id).Take(&rental).Error)
	return rental
}

func (f *fixture) count(t *testing.T, table string, column string, value any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Table(table).Where(column+" = ?", value).Count(&n).Error)
	return n
}

func datePtr(y int, m time.Month, d int) *time.Time {
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}

// recordingStore records every call as "op:table" and fails calls for which
// fail returns an error. It does not implement Transactor, so the ledger
// falls back to step-by-step writes.
type recordingStore struct {
	inner ledgerdomain.Store
	fail  func(op, table string, filter ledgerdomain.Filter) error

	mu    sync.Mutex
	calls []string
}

func (s *recordingStore) record(op, table string, filter ledgerdomain.Filter) error {
	s.mu.Lock()
	s.calls = append(s.calls, op+":"+table)
	s.mu.Unlock()
	if s.fail != nil {
		if err := s.fail(op, table, filter); err != nil {
			return &ledgerdomain.PersistenceError{Op: op, Table: table, Err: err}
		}
	}
	return nil
}

func (s *recordingStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *recordingStore) Writes() []string {
	var writes []string
	for _, call := range s.Calls() {
		if len(call) < 7 || call[:7] != "select:" {
			writes = append(writes, call)
		}
	}
	return writes
}

func (s *recordingStore) Select(ctx context.Context, table string, filter ledgerdomain.Filter, dest any) error {
	if err := s.record("select", table, filter); err != nil {
		return err
	}
	return s.inner.Select(ctx, table, filter, dest)
}

func (s *recordingStore) Insert(ctx context.Context, table string, row any) error {
	if err := s.record("insert", table, nil); err != nil {
		return err
	}
	return s.inner.Insert(ctx, table, row)
}

func (s *recordingStore) Update(ctx context.Context, table string, filter ledgerdomain.Filter, patch map[string]any) error {
	if err := s.record("update", table, filter); err != nil {
		return err
	}
	return s.inner.Update(ctx, table, filter, patch)
}

func (s *recordingStore) Delete(ctx context.Context, table string, filter ledgerdomain.Filter) error {
	if err := s.record("delete", table, filter); err != nil {
		return err
	}
	return s.inner.Delete(ctx, table, filter)
}

// txStore is a transactional store whose transaction-bound store fails like
// a recordingStore.
type txStore struct {
	*recordingStore
	gorm *ledgerstore.GormStore
}

func (s *txStore) WithinTransaction(ctx context.Context, fn func(ledgerdomain.Store) error) error {
	return s.gorm.WithinTransaction(ctx, func(tx ledgerdomain.Store) error {
		return fn(&recordingStore{inner: tx, fail: s.fail})
	})
}

func failOn(op, table string) func(string, string, ledgerdomain.Filter) error {
	return func(gotOp, gotTable string, _ ledgerdomain.Filter) error {
		if gotOp == op && gotTable == table {
			return fmt.Errorf("%s %s unavailable", op, table)
		}
		return nil
	}
}
