package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cartai/ledger/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSizer struct {
	calls atomic.Int32
}

func (c *countingSizer) Sizes(context.Context) (service.QueueSizes, error) {
	c.calls.Add(1)
	return service.QueueSizes{PendingPayments: 2, PendingWithdrawals: 1}, nil
}

type sweeperFunc func(ctx context.Context) (int64, error)

func (f sweeperFunc) FinalizeMatured(ctx context.Context) (int64, error) { return f(ctx) }

type reconcilerFunc func(ctx context.Context) ([]service.Drift, error)

func (f reconcilerFunc) Run(ctx context.Context) ([]service.Drift, error) { return f(ctx) }

type purgerFunc func(ctx context.Context, now time.Time) (int64, error)

func (f purgerFunc) PurgeExpired(ctx context.Context, now time.Time) (int64, error) { return f(ctx, now) }

func TestQueueMonitorSamplesUntilStopped(t *testing.T) {
	sizer := &countingSizer{}
	stop := NewQueueMonitor(sizer).WithInterval(10 * time.Millisecond).Run(context.Background())

	require.Eventually(t, func() bool { return sizer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	stop()
	stop()

	time.Sleep(30 * time.Millisecond)
	after := sizer.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, sizer.calls.Load())
}

func TestQueueMonitorStopsOnContextCancel(t *testing.T) {
	sizer := &countingSizer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewQueueMonitor(sizer).WithInterval(time.Hour).Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sizer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestSchedulerRegistersJobs(t *testing.T) {
	var swept, reconciled atomic.Int32
	s := NewScheduler(time.UTC)

	require.NoError(t, s.AddMaturitySweep("@every 1h", sweeperFunc(func(context.Context) (int64, error) {
		swept.Add(1)
		return 3, nil
	})))
	require.NoError(t, s.AddReconciliation("0 3 * * *", reconcilerFunc(func(context.Context) ([]service.Drift, error) {
		reconciled.Add(1)
		return []service.Drift{{Bucket: "bonus"}}, nil
	})))

	var purgedAt atomic.Int64
	require.NoError(t, s.AddIdempotencyPurge("@every 1h", purgerFunc(func(_ context.Context, now time.Time) (int64, error) {
		purgedAt.Store(now.Unix())
		return 0, nil
	})))

	require.NoError(t, s.RunNow("maturity"))
	require.NoError(t, s.RunNow("reconciliation"))
	require.NoError(t, s.RunNow("idempotency_purge"))
	assert.Equal(t, int32(1), swept.Load())
	assert.Equal(t, int32(1), reconciled.Load())
	assert.NotZero(t, purgedAt.Load())

	require.Error(t, s.RunNow("payouts"))
}

func TestSchedulerReportsFailures(t *testing.T) {
	s := NewScheduler(time.UTC)
	boom := errors.New("db down")
	require.NoError(t, s.AddMaturitySweep("@every 1h", sweeperFunc(func(context.Context) (int64, error) {
		return 0, boom
	})))
	require.ErrorIs(t, s.RunNow("maturity"), boom)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(time.UTC)
	err := s.AddMaturitySweep("not a schedule", sweeperFunc(func(context.Context) (int64, error) { return 0, nil }))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maturity")
}

func TestSchedulerRunsOnSchedule(t *testing.T) {
	var swept atomic.Int32
	s := NewScheduler(time.UTC)
	require.NoError(t, s.AddMaturitySweep("@every 1s", sweeperFunc(func(context.Context) (int64, error) {
		swept.Add(1)
		return 0, nil
	})))

	stop := s.Run()
	defer stop()
	require.Eventually(t, func() bool { return swept.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}
