package shared

import (
	"errors"
	"time"
)

var ErrInvalidEvent = errors.New("invalid transaction event")

// TransactionEvent defines the Kafka message published for every transaction that
// reaches a terminal status
type TransactionEvent struct {
	TransactionID            string     `json:"transaction_id"`
	Type                     string     `json:"type"`
	Status                   string     `json:"status"`
	Amount                   string     `json:"amount"` // Decimal string, two fractional digits
	Description              string     `json:"description,omitempty"`
	SourceAccountNumber      string     `json:"source_account_number,omitempty"`
	DestinationAccountNumber string     `json:"destination_account_number,omitempty"`
	FailureReason            string     `json:"failure_reason,omitempty"`
	CorrelationID            string     `json:"correlation_id,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	ProcessedAt              *time.Time `json:"processed_at,omitempty"`
	OccurredAt               time.Time  `json:"occurred_at"`
}

// Validate checks the fields every consumer relies on
func (e *TransactionEvent) Validate() error {
	if e.TransactionID == "" || e.Type == "" || e.Status == "" || e.Amount == "" {
		return ErrInvalidEvent
	}
	if e.SourceAccountNumber == "" && e.DestinationAccountNumber == "" {
		return ErrInvalidEvent
	}
	return nil
}
