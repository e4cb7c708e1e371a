package scheduler

import (
	"context"
	"time"

	obscontext "github.com/smallbiznis/storagedesk/internal/observability/context"
	obslogger "github.com/smallbiznis/storagedesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/storagedesk/internal/observability/metrics"
	"go.uber.org/zap"
)

// jobRun is one execution of a job. Its id doubles as the request id so
// ledger and SQL log lines from the run can be grouped.
type jobRun struct {
	job       string
	runID     string
	startedAt time.Time
	processed int
	failures  int
}

type jobRunKey struct{}

func (r *jobRun) AddProcessed(count int) {
	if r != nil && count > 0 {
		r.processed += count
	}
}

func (s *Scheduler) startRun(ctx context.Context, job string) (context.Context, *jobRun) {
	run := &jobRun{
		job:       job,
		runID:     s.genID.Generate().String(),
		startedAt: s.clock.Now(),
	}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	ctx = obscontext.WithActor(ctx, "system", "scheduler")
	ctx = obscontext.WithRequestID(ctx, run.runID)
	s.logger(ctx).Info("scheduler.job.start", zap.String("job", job))
	return ctx, run
}

func (s *Scheduler) finishRun(ctx context.Context, run *jobRun, err error) {
	if err != nil && run.failures == 0 {
		run.failures++
	}
	fields := []zap.Field{
		zap.String("job", run.job),
		zap.Int64("duration_ms", s.clock.Now().Sub(run.startedAt).Milliseconds()),
		zap.Int("processed_count", run.processed),
		zap.Int("error_count", run.failures),
	}
	if run.failures > 0 {
		s.logger(ctx).Warn("scheduler.job.finish", fields...)
		return
	}
	s.logger(ctx).Info("scheduler.job.finish", fields...)
}

func jobRunFromContext(ctx context.Context) *jobRun {
	run, _ := ctx.Value(jobRunKey{}).(*jobRun)
	return run
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logJobError(ctx context.Context, msg string, err error) {
	run := jobRunFromContext(ctx)
	fields := []zap.Field{zap.Error(err)}
	if run != nil {
		run.failures++
		fields = append(fields,
			zap.String("job", run.job),
			zap.String("reason", obsmetrics.ClassifySchedulerJobReason(err)),
		)
	}
	s.logger(ctx).Error(msg, fields...)
}
