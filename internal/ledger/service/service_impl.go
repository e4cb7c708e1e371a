package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/internal/clock"
	"github.com/smallbiznis/storagedesk/internal/config"
	customerdomain "github.com/smallbiznis/storagedesk/internal/customer/domain"
	ledgerdomain "github.com/smallbiznis/storagedesk/internal/ledger/domain"
	"github.com/smallbiznis/storagedesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/storagedesk/internal/observability/metrics"
	"github.com/smallbiznis/storagedesk/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/storagedesk/internal/payment/domain"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const tracerName = "storagedesk/ledger"

// Step names reported in InconsistencyError.
const (
	stepInsertRental   = "insert_rental"
	stepCompleteRental = "complete_rental"
	stepDeletePayments = "delete_payments"
	stepDeleteRental   = "delete_rental"
	stepUpdateUnit     = "update_unit"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Store      ledgerdomain.Store
	LedgerCfg  *config.LedgerConfigHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	store      ledgerdomain.Store
	ledgerCfg  *config.LedgerConfigHolder
	obsMetrics *obsmetrics.Metrics
	tracer     trace.Tracer
}

func NewService(p Params) ledgerdomain.Service {
	ledgerCfg := p.LedgerCfg
	if ledgerCfg == nil {
		ledgerCfg = config.NewStaticLedgerConfigHolder(config.DefaultLedgerConfig())
	}
	return &Service{
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		store:      p.Store,
		ledgerCfg:  ledgerCfg,
		obsMetrics: p.ObsMetrics,
		tracer:     otel.Tracer(tracerName),
	}
}

// step is one write of a multi-write operation.
type step struct {
	name string
	run  func(ctx context.Context, st ledgerdomain.Store) error
}

// plan reads what an operation needs through st and returns the writes to
// apply. It runs inside the transaction when writes are atomic.
type plan func(ctx context.Context, st ledgerdomain.Store) ([]step, error)

// execute applies an operation's writes. A transactional store with atomic
// writes enabled applies all of them or none. Otherwise each write is applied
// in order and a failure after at least one applied write is reported as an
// InconsistencyError.
func (s *Service) execute(ctx context.Context, operation string, p plan) error {
	if tx, ok := s.store.(ledgerdomain.Transactor); ok && s.ledgerCfg.Get().AtomicWrites {
		return tx.WithinTransaction(ctx, func(st ledgerdomain.Store) error {
			steps, err := p(ctx, st)
			if err != nil {
				return err
			}
			for _, step := range steps {
				if err := step.run(ctx, st); err != nil {
					return err
				}
			}
			return nil
		})
	}

	steps, err := p(ctx, s.store)
	if err != nil {
		return err
	}
	completed := make([]string, 0, len(steps))
	for _, step := range steps {
		if err := step.run(ctx, s.store); err != nil {
			if len(completed) == 0 {
				return err
			}
			s.obsMetrics.RecordInconsistency(ctx, operation)
			logger.WithContext(ctx, s.log).Error("ledger write partially applied",
				zap.String("operation", operation),
				zap.Strings("completed", completed),
				zap.String("failed", step.name),
				zap.Error(err),
			)
			return &ledgerdomain.InconsistencyError{
				Operation: operation,
				Completed: completed,
				Failed:    step.name,
				Err:       err,
			}
		}
		completed = append(completed, step.name)
	}
	return nil
}

func (s *Service) CreateRental(ctx context.Context, req ledgerdomain.CreateRentalRequest) (rental rentaldomain.Rental, err error) {
	ctx, span := s.startSpan(ctx, ledgerdomain.OperationCreateRental,
		attribute.String("unit.id", req.UnitID.String()),
		attribute.String("customer.id", req.CustomerID.String()),
	)
	defer func() { endSpan(span, err) }()

	if req.StartDate.IsZero() {
		return rentaldomain.Rental{}, ledgerdomain.ErrInvalidStartDate
	}
	startDate := clock.DateOf(req.StartDate)
	var endDate *time.Time
	if req.EndDate != nil {
		end := clock.DateOf(*req.EndDate)
		if end.Before(startDate) {
			return rentaldomain.Rental{}, ledgerdomain.ErrInvalidDateRange
		}
		endDate = &end
	}
	if req.TotalAmount != nil && req.TotalAmount.IsNegative() {
		return rentaldomain.Rental{}, ledgerdomain.ErrInvalidAmount
	}
	if req.TotalAmount == nil && endDate == nil {
		return rentaldomain.Rental{}, ledgerdomain.ErrAmountRequired
	}

	err = s.execute(ctx, ledgerdomain.OperationCreateRental, func(ctx context.Context, st ledgerdomain.Store) ([]step, error) {
		unit, err := findUnit(ctx, st, req.UnitID)
		if err != nil {
			return nil, err
		}
		if unit.Status != unitdomain.UnitStatusAvailable {
			return nil, ledgerdomain.ErrUnitNotAvailable.WithMessagef("unit %s is %s", unit.Number, unit.Status)
		}
		if err := ensureCustomer(ctx, st, req.CustomerID); err != nil {
			return nil, err
		}

		var amount decimal.Decimal
		if req.TotalAmount != nil {
			amount = *req.TotalAmount
		} else {
			amount, err = ledgerdomain.ComputeProRatedAmount(unit.PricePerMonth, startDate, *endDate)
			if err != nil {
				return nil, err
			}
		}

		now := s.clock.Now()
		rental = rentaldomain.Rental{
			ID:          s.genID.Generate(),
			UnitID:      unit.ID,
			CustomerID:  req.CustomerID,
			StartDate:   startDate,
			EndDate:     endDate,
			Status:      rentaldomain.RentalStatusActive,
			TotalAmount: amount.Round(2),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return []step{
			{name: stepInsertRental, run: func(ctx context.Context, st ledgerdomain.Store) error {
				return st.Insert(ctx, rentaldomain.TableName, &rental)
			}},
			s.setUnitStatus(unit.ID, unitdomain.UnitStatusRented),
		}, nil
	})
	if err != nil {
		return rentaldomain.Rental{}, err
	}

	s.obsMetrics.RecordRentalCreated(ctx)
	logger.WithContext(ctx, s.log).Info("rental created",
		zap.String("rental_id", rental.ID.String()),
		zap.String("unit_id", rental.UnitID.String()),
	)
	return rental, nil
}

func (s *Service) CompleteRental(ctx context.Context, req ledgerdomain.CompleteRentalRequest) (rental rentaldomain.Rental, err error) {
	ctx, span := s.startSpan(ctx, ledgerdomain.OperationCompleteRental,
		attribute.String("rental.id", req.RentalID.String()),
	)
	defer func() { endSpan(span, err) }()

	return s.completeRental(ctx, req, obsmetrics.CompletionSourceManual)
}

func (s *Service) completeRental(ctx context.Context, req ledgerdomain.CompleteRentalRequest, source string) (rentaldomain.Rental, error) {
	today := clock.Today(s.clock)

	var (
		rental  rentaldomain.Rental
		changed bool
	)
	err := s.execute(ctx, ledgerdomain.OperationCompleteRental, func(ctx context.Context, st ledgerdomain.Store) ([]step, error) {
		current, err := findRental(ctx, st, req.RentalID)
		if err != nil {
			return nil, err
		}
		rental = current
		if req.UnitID != 0 && req.UnitID != current.UnitID {
			return nil, ledgerdomain.ErrUnitMismatch.WithMessagef("rental %s is not on unit %s", current.ID, req.UnitID)
		}
		if !current.IsActive() {
			return nil, nil
		}
		endDate, err := completionDate(current, req.EndDate, today)
		if err != nil {
			return nil, err
		}

		changed = true
		now := s.clock.Now()
		rental.Status = rentaldomain.RentalStatusCompleted
		rental.EndDate = &endDate
		rental.UpdatedAt = now
		return []step{
			s.markRentalCompleted(current.ID, endDate, now),
			s.setUnitStatus(current.UnitID, unitdomain.UnitStatusAvailable),
		}, nil
	})
	if err != nil {
		return rentaldomain.Rental{}, err
	}

	if changed {
		s.obsMetrics.RecordRentalCompleted(ctx, source, 1)
		logger.WithContext(ctx, s.log).Info("rental completed",
			zap.String("rental_id", rental.ID.String()),
			zap.String("source", source),
		)
	}
	return rental, nil
}

func (s *Service) ReconcileExpiredRentals(ctx context.Context, rentals []rentaldomain.Rental, today time.Time) (count int, err error) {
	ctx, span := s.startSpan(ctx, "reconcile_expired_rentals",
		attribute.Int("rentals.candidates", len(rentals)),
	)
	defer func() {
		span.SetAttributes(attribute.Int("rentals.completed", count))
		endSpan(span, err)
	}()

	today = clock.DateOf(today)
	var errs []error
	for _, rental := range rentals {
		if !isExpired(rental, today) {
			continue
		}
		end := today
		_, cerr := s.completeRental(ctx, ledgerdomain.CompleteRentalRequest{
			RentalID: rental.ID,
			UnitID:   rental.UnitID,
			EndDate:  &end,
		}, obsmetrics.CompletionSourceReconcile)
		if cerr != nil {
			logger.WithContext(ctx, s.log).Warn("failed to complete expired rental",
				zap.String("rental_id", rental.ID.String()),
				zap.Error(cerr),
			)
			errs = append(errs, cerr)
			continue
		}
		count++
	}
	return count, errors.Join(errs...)
}

func (s *Service) ReconcileAll(ctx context.Context) (int, error) {
	var active []rentaldomain.Rental
	err := s.store.Select(ctx, rentaldomain.TableName,
		ledgerdomain.Filter{"status": string(rentaldomain.RentalStatusActive)}, &active)
	if err != nil {
		return 0, err
	}
	return s.ReconcileExpiredRentals(ctx, active, clock.Today(s.clock))
}

func (s *Service) RemoveRental(ctx context.Context, req ledgerdomain.RemoveRentalRequest) (err error) {
	ctx, span := s.startSpan(ctx, ledgerdomain.OperationRemoveRental,
		attribute.String("rental.id", req.RentalID.String()),
	)
	defer func() { endSpan(span, err) }()

	status := req.CurrentStatus
	err = s.execute(ctx, ledgerdomain.OperationRemoveRental, func(ctx context.Context, st ledgerdomain.Store) ([]step, error) {
		unitID := req.UnitID
		if status == "" || unitID == 0 {
			current, err := findRental(ctx, st, req.RentalID)
			if err != nil {
				return nil, err
			}
			if status == "" {
				status = current.Status
			}
			if unitID == 0 {
				unitID = current.UnitID
			}
		}

		steps := []step{
			{name: stepDeletePayments, run: func(ctx context.Context, st ledgerdomain.Store) error {
				return st.Delete(ctx, paymentdomain.TableName, ledgerdomain.Filter{"rental_id": req.RentalID})
			}},
			{name: stepDeleteRental, run: func(ctx context.Context, st ledgerdomain.Store) error {
				return st.Delete(ctx, rentaldomain.TableName, ledgerdomain.Filter{"id": req.RentalID})
			}},
		}
		if status == rentaldomain.RentalStatusActive {
			steps = append(steps, s.setUnitStatus(unitID, unitdomain.UnitStatusAvailable))
		}
		return steps, nil
	})
	if err != nil {
		return err
	}

	s.obsMetrics.RecordRentalRemoved(ctx, string(status))
	logger.WithContext(ctx, s.log).Info("rental removed",
		zap.String("rental_id", req.RentalID.String()),
		zap.String("status", string(status)),
	)
	return nil
}

func (s *Service) ChangeUnitStatus(ctx context.Context, req ledgerdomain.ChangeUnitStatusRequest) (err error) {
	ctx, span := s.startSpan(ctx, ledgerdomain.OperationChangeUnitStatus,
		attribute.String("unit.id", req.UnitID.String()),
		attribute.String("unit.status", string(req.NewStatus)),
	)
	defer func() { endSpan(span, err) }()

	if !req.NewStatus.Valid() {
		return ledgerdomain.ErrInvalidStatus.WithMessagef("unknown unit status %q", req.NewStatus)
	}

	current := req.CurrentStatus
	var completedRentals int
	err = s.execute(ctx, ledgerdomain.OperationChangeUnitStatus, func(ctx context.Context, st ledgerdomain.Store) ([]step, error) {
		if current == "" {
			unit, err := findUnit(ctx, st, req.UnitID)
			if err != nil {
				return nil, err
			}
			current = unit.Status
		}

		steps := []step{s.setUnitStatus(req.UnitID, req.NewStatus)}
		if current != unitdomain.UnitStatusRented || req.NewStatus == unitdomain.UnitStatusRented {
			return steps, nil
		}

		var active []rentaldomain.Rental
		err := st.Select(ctx, rentaldomain.TableName, ledgerdomain.Filter{
			"unit_id": req.UnitID,
			"status":  string(rentaldomain.RentalStatusActive),
		}, &active)
		if err != nil {
			return nil, err
		}
		today := clock.Today(s.clock)
		now := s.clock.Now()
		for _, rental := range active {
			endDate, _ := completionDate(rental, nil, today)
			steps = append(steps, s.markRentalCompleted(rental.ID, endDate, now))
		}
		completedRentals = len(active)
		return steps, nil
	})
	if err != nil {
		return err
	}

	s.obsMetrics.RecordUnitStatusChange(ctx, string(current), string(req.NewStatus))
	s.obsMetrics.RecordRentalCompleted(ctx, obsmetrics.CompletionSourceUnitStatus, completedRentals)
	logger.WithContext(ctx, s.log).Info("unit status changed",
		zap.String("unit_id", req.UnitID.String()),
		zap.String("from", string(current)),
		zap.String("to", string(req.NewStatus)),
		zap.Int("rentals_completed", completedRentals),
	)
	return nil
}

func (s *Service) setUnitStatus(unitID snowflake.ID, status unitdomain.UnitStatus) step {
	return step{name: stepUpdateUnit, run: func(ctx context.Context, st ledgerdomain.Store) error {
		return st.Update(ctx, unitdomain.TableName, ledgerdomain.Filter{"id": unitID}, map[string]any{
			"status":     string(status),
			"updated_at": s.clock.Now(),
		})
	}}
}

func (s *Service) markRentalCompleted(rentalID snowflake.ID, endDate, now time.Time) step {
	return step{name: stepCompleteRental, run: func(ctx context.Context, st ledgerdomain.Store) error {
		return st.Update(ctx, rentaldomain.TableName, ledgerdomain.Filter{"id": rentalID}, map[string]any{
			"status":     string(rentaldomain.RentalStatusCompleted),
			"end_date":   endDate,
			"updated_at": now,
		})
	}}
}

func (s *Service) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "ledger."+operation, trace.WithAttributes(tracing.SafeAttributes(attrs...)...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "ledger operation failed")
	}
	span.End()
}

// isExpired reports whether an active rental's end date lies before today.
// Rentals without an end date never expire.
// completionDate is the end date written when rental is completed. An
// explicit date before the start is rejected; the default of today is
// clamped to the start so an upcoming rental can be ended early.
func completionDate(rental rentaldomain.Rental, requested *time.Time, today time.Time) (time.Time, error) {
	start := clock.DateOf(rental.StartDate)
	if requested != nil {
		end := clock.DateOf(*requested)
		if end.Before(start) {
			return time.Time{}, ledgerdomain.ErrInvalidDateRange.WithMessagef(
				"end date %s is before start date %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
		}
		return end, nil
	}
	if today.Before(start) {
		return start, nil
	}
	return today, nil
}

func isExpired(rental rentaldomain.Rental, today time.Time) bool {
	if !rental.IsActive() || rental.EndDate == nil {
		return false
	}
	return clock.DateOf(*rental.EndDate).Before(today)
}

func findUnit(ctx context.Context, st ledgerdomain.Store, id snowflake.ID) (unitdomain.Unit, error) {
	var units []unitdomain.Unit
	if err := st.Select(ctx, unitdomain.TableName, ledgerdomain.Filter{"id": id}, &units); err != nil {
		return unitdomain.Unit{}, err
	}
	if len(units) == 0 {
		return unitdomain.Unit{}, ledgerdomain.ErrUnitNotFound
	}
	return units[0], nil
}

func findRental(ctx context.Context, st ledgerdomain.Store, id snowflake.ID) (rentaldomain.Rental, error) {
	var rentals []rentaldomain.Rental
	if err := st.Select(ctx, rentaldomain.TableName, ledgerdomain.Filter{"id": id}, &rentals); err != nil {
		return rentaldomain.Rental{}, err
	}
	if len(rentals) == 0 {
		return rentaldomain.Rental{}, ledgerdomain.ErrRentalNotFound
	}
	return rentals[0], nil
}

func ensureCustomer(ctx context.Context, st ledgerdomain.Store, id snowflake.ID) error {
	var customers []customerdomain.Customer
	if err := st.Select(ctx, customerdomain.TableName, ledgerdomain.Filter{"id": id}, &customers); err != nil {
		return err
	}
	if len(customers) == 0 {
		return ledgerdomain.ErrCustomerNotFound
	}
	return nil
}
