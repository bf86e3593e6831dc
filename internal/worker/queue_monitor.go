package worker

import (
	"context"
	"sync"
	"time"

	"github.com/cartai/ledger/internal/observability"
	"github.com/cartai/ledger/internal/service"
	"go.uber.org/zap"
)

// QueueSizer reports how many records wait for an admin decision.
type QueueSizer interface {
	Sizes(ctx context.Context) (service.QueueSizes, error)
}

// QueueMonitor publishes the admin queue sizes as gauges on a fixed interval.
type QueueMonitor struct {
	sizer    QueueSizer
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewQueueMonitor constructs a monitor with a default 30 second interval.
func NewQueueMonitor(sizer QueueSizer) *QueueMonitor {
	return &QueueMonitor{
		sizer:    sizer,
		interval: 30 * time.Second,
		stopCh:   make(chan struct{}),
	}
}

// WithInterval updates the poll interval.
func (w *QueueMonitor) WithInterval(interval time.Duration) *QueueMonitor {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Start blocks and samples the queues until the context ends or Stop is called.
func (w *QueueMonitor) Start(ctx context.Context) {
	zap.L().Info("queue monitor starting", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("queue monitor context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("queue monitor stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running monitor loop.
func (w *QueueMonitor) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the monitor in a goroutine and returns a stop function.
func (w *QueueMonitor) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *QueueMonitor) runOnce(ctx context.Context) {
	sizes, err := w.sizer.Sizes(ctx)
	if err != nil {
		observability.IncrementWorkerRun("queue_monitor", "failed")
		zap.L().Error("queue size sampling failed", zap.Error(err))
		return
	}
	observability.SetPendingQueueSize("payments", sizes.PendingPayments)
	observability.SetPendingQueueSize("withdrawals", sizes.PendingWithdrawals)
	observability.IncrementWorkerRun("queue_monitor", "success")
}
