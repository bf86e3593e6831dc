package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	ledgerMovementCounter *prometheus.CounterVec
	ledgerAmountCounter   *prometheus.CounterVec
	ledgerDriftCounter    *prometheus.CounterVec
	approvalCounter       *prometheus.CounterVec
	pendingQueueGauge     *prometheus.GaugeVec
	idempotencyCounter    *prometheus.CounterVec
	workerRunCounter      *prometheus.CounterVec
	gameResultCounter     *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		ledgerMovementCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_movements_total",
			Help: "Ledger entries written per balance bucket and movement kind",
		}, []string{"bucket", "kind"})

		ledgerAmountCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_movement_amount_total",
			Help: "Absolute amount moved per balance bucket and direction",
		}, []string{"bucket", "direction"})

		ledgerDriftCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_drift_total",
			Help: "Balance columns found out of sync with their ledger entries",
		}, []string{"bucket"})

		approvalCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_decisions_total",
			Help: "Admin decisions on the payment and withdrawal queues",
		}, []string{"queue", "decision"})

		pendingQueueGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pending_queue_size",
			Help: "Records currently waiting for an admin decision",
		}, []string{"queue"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		gameResultCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "game_results_total",
			Help: "Finished tile games by outcome",
		}, []string{"result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			ledgerMovementCounter,
			ledgerAmountCounter,
			ledgerDriftCounter,
			approvalCounter,
			pendingQueueGauge,
			idempotencyCounter,
			workerRunCounter,
			gameResultCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func ObserveLedgerMovement(bucket, kind string, amount int64) {
	if ledgerMovementCounter == nil {
		return
	}
	ledgerMovementCounter.WithLabelValues(bucket, kind).Inc()
	direction := "credit"
	if amount < 0 {
		direction = "debit"
		amount = -amount
	}
	ledgerAmountCounter.WithLabelValues(bucket, direction).Add(float64(amount))
}

func IncrementLedgerDrift(bucket string) {
	if ledgerDriftCounter == nil {
		return
	}
	ledgerDriftCounter.WithLabelValues(bucket).Inc()
}

func IncrementApprovalDecision(queue, decision string) {
	if approvalCounter == nil {
		return
	}
	approvalCounter.WithLabelValues(queue, decision).Inc()
}

func SetPendingQueueSize(queue string, size int64) {
	if pendingQueueGauge == nil {
		return
	}
	pendingQueueGauge.WithLabelValues(queue).Set(float64(size))
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}

func IncrementGameResult(result string) {
	if gameResultCounter == nil {
		return
	}
	gameResultCounter.WithLabelValues(result).Inc()
}
