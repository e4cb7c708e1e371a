package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/internal/clock"
	"github.com/smallbiznis/storagedesk/internal/config"
	ledgerdomain "github.com/smallbiznis/storagedesk/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/storagedesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobReconcileExpiredRentals = "reconcile_expired_rentals"

var ErrInvalidConfig = errors.New("scheduler: invalid config")

type Params struct {
	fx.In

	Log       *zap.Logger
	LedgerSvc ledgerdomain.Service
	GenID     *snowflake.Node
	Clock     clock.Clock
	Config    Config                     `optional:"true"`
	LedgerCfg *config.LedgerConfigHolder `optional:"true"`
}

type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	genID     *snowflake.Node
	clock     clock.Clock
	ledgerSvc ledgerdomain.Service
	ledgerCfg *config.LedgerConfigHolder
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.LedgerSvc == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       p.Config.withDefaults(),
		genID:     p.GenID,
		clock:     p.Clock,
		ledgerSvc: p.LedgerSvc,
		ledgerCfg: p.LedgerCfg,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run := s.startRun(ctx, name)
	log := s.logger(ctx).With(zap.String("job", name))
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	s.finishRun(ctx, run, err)
	if err == nil {
		return nil
	}

	// a deadline is a soft timeout; the next tick picks up what is left
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{JobReconcileExpiredRentals, s.ReconcileExpiredRentalsJob},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, s.cfg.JobTimeout, job.Run))
	}
	return err
}

// RunForever runs every job once per interval until ctx is done. Runs are
// sequential; a slow run delays the next tick instead of overlapping it.
func (s *Scheduler) RunForever(ctx context.Context) {
	interval := s.interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(interval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		if next := s.interval(); next != interval {
			s.log.Info("scheduler interval changed",
				zap.Duration("from", interval),
				zap.Duration("to", next),
			)
			interval = next
			ticker.Reset(interval)
		}
		nextRun = s.clock.Now().Add(interval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ReconcileExpiredRentalsJob completes active rentals whose end date has
// passed and frees their units.
func (s *Scheduler) ReconcileExpiredRentalsJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)
	count, err := s.ledgerSvc.ReconcileAll(ctx)
	run.AddProcessed(count)
	obsmetrics.Scheduler().AddBatchProcessed(JobReconcileExpiredRentals, "rentals", count)
	if count > 0 {
		s.logger(ctx).Info("scheduler.rentals.reconciled",
			zap.Int("completed", count),
		)
	}
	if err != nil {
		s.logJobError(ctx, "scheduler.rentals.reconcile_failed", err)
		return err
	}
	return nil
}

func (s *Scheduler) interval() time.Duration {
	if s.ledgerCfg != nil {
		if interval := s.ledgerCfg.Get().ReconcileInterval; interval > 0 {
			return interval
		}
	}
	return s.cfg.RunInterval
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// an empty list enables every job
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}
