// Package metrics exposes ledger activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger"

// LedgerMetrics implements engine.MetricsRecorder and the outbox relay counters
type LedgerMetrics struct {
	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	volume          *prometheus.CounterVec
	reaped          prometheus.Counter
	outboxPublished prometheus.Counter
	outboxFailed    *prometheus.CounterVec
}

var _ engine.MetricsRecorder = (*LedgerMetrics)(nil)

// NewLedgerMetrics registers every collector with reg
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	factory := promauto.With(reg)

	return &LedgerMetrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Deposits, withdrawals and transfers by type and outcome.",
		}, []string{"type", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Wall time of one ledger operation, lock waits included.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"type"}),
		volume: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "completed_amount_total",
			Help:      "Sum of completed operation amounts by type.",
		}, []string{"type"}),
		reaped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reaper",
			Name:      "abandoned_transactions_total",
			Help:      "PENDING transactions advanced to FAILED by the reaper.",
		}),
		outboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Outbox messages published to Kafka.",
		}),
		outboxFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "publish_failures_total",
			Help:      "Failed publish attempts; final is true once the message is given up on.",
		}, []string{"final"}),
	}
}

// ObserveOperation records one finished operation. Volume counts completed operations only.
func (m *LedgerMetrics) ObserveOperation(typ transaction.Type, outcome engine.Outcome, amount money.Amount, duration time.Duration) {
	m.operations.WithLabelValues(string(typ), string(outcome)).Inc()
	m.duration.WithLabelValues(string(typ)).Observe(duration.Seconds())
	if outcome == engine.OutcomeSuccess {
		// float is fine for an aggregate; balances never go through here
		value, _ := amount.Decimal().Float64()
		m.volume.WithLabelValues(string(typ)).Add(value)
	}
}

func (m *LedgerMetrics) ObserveReaped(count int) {
	m.reaped.Add(float64(count))
}

func (m *LedgerMetrics) ObservePublished() {
	m.outboxPublished.Inc()
}

func (m *LedgerMetrics) ObservePublishFailure(final bool) {
	label := "false"
	if final {
		label = "true"
	}
	m.outboxFailed.WithLabelValues(label).Inc()
}
