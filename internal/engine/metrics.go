package engine

import (
	"time"

	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/transaction"
)

// Outcome labels how an operation ended
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeRejected Outcome = "rejected" // Precondition failure, no record written
	OutcomeReplayed Outcome = "replayed"
)

// MetricsRecorder receives one observation per operation
type MetricsRecorder interface {
	ObserveOperation(typ transaction.Type, outcome Outcome, amount money.Amount, duration time.Duration)
	ObserveReaped(count int)
}

// NopMetrics discards observations
type NopMetrics struct{}

func (NopMetrics) ObserveOperation(transaction.Type, Outcome, money.Amount, time.Duration) {}

func (NopMetrics) ObserveReaped(int) {}
