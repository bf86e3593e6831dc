package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/cartai/ledger/internal/observability"
	"github.com/cartai/ledger/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MaturitySweeper finalizes packages whose term has elapsed.
type MaturitySweeper interface {
	FinalizeMatured(ctx context.Context) (int64, error)
}

// Reconciler compares ledger entries with balance columns.
type Reconciler interface {
	Run(ctx context.Context) ([]service.Drift, error)
}

// KeyPurger drops replay records older than their retention.
type KeyPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

const jobTimeout = 5 * time.Minute

// Scheduler runs the cron-driven maintenance jobs.
type Scheduler struct {
	cron *cron.Cron
	jobs map[string]func(context.Context) error
}

// NewScheduler builds a scheduler evaluating schedules in loc. Overlapping runs of the
// same job are skipped.
func NewScheduler(loc *time.Location) *Scheduler {
	logger := cronLogger{zap.L()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		jobs: map[string]func(context.Context) error{},
	}
}

// AddMaturitySweep registers the package status sweep.
func (s *Scheduler) AddMaturitySweep(spec string, sweeper MaturitySweeper) error {
	return s.add("maturity", spec, func(ctx context.Context) error {
		_, err := sweeper.FinalizeMatured(ctx)
		return err
	})
}

// AddReconciliation registers the ledger drift check. Drift is reported by the
// reconciler itself; only a failed run counts as a job error.
func (s *Scheduler) AddReconciliation(spec string, reconciler Reconciler) error {
	return s.add("reconciliation", spec, func(ctx context.Context) error {
		_, err := reconciler.Run(ctx)
		return err
	})
}

func (s *Scheduler) AddIdempotencyPurge(spec string, purger KeyPurger) error {
	return s.add("idempotency_purge", spec, func(ctx context.Context) error {
		n, err := purger.PurgeExpired(ctx, time.Now())
		if n > 0 {
			zap.L().Info("idempotency keys purged", zap.Int64("count", n))
		}
		return err
	})
}

func (s *Scheduler) add(name, spec string, job func(context.Context) error) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("schedule %s job: %w", name, err)
	}
	s.jobs[name] = job
	return nil
}

// RunNow executes a registered job synchronously.
func (s *Scheduler) RunNow(name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.run(name, job)
}

func (s *Scheduler) run(name string, job func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		observability.IncrementWorkerRun(name, "failed")
		zap.L().Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		return err
	}
	observability.IncrementWorkerRun(name, "success")
	zap.L().Debug("scheduled job finished", zap.String("job", name), zap.Duration("duration", time.Since(start)))
	return nil
}

// Run starts the scheduler and returns a stop function that waits for running jobs.
func (s *Scheduler) Run() func() {
	s.cron.Start()
	return func() {
		<-s.cron.Stop().Done()
	}
}

type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
