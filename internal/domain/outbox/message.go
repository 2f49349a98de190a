package outbox

import (
	"encoding/json"
	"time"

	"github.com/finance-ledger/internal/domain/shared"
)

// Message stores a transaction event for reliable publishing. It is written in the same
// unit of work as the status change it announces.
type Message struct {
	ID            int64               `json:"id"`
	TransactionID string              `json:"transaction_id"`
	EventType     string              `json:"event_type"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// EventTypeFor maps a terminal transaction status to its event type
func EventTypeFor(status string) string {
	if status == "FAILED" {
		return shared.EventTransactionFailed
	}
	return shared.EventTransactionCompleted
}

func NewMessage(event *shared.TransactionEvent) (*Message, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: event.TransactionID,
		EventType:     EventTypeFor(event.Status),
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// RecordAttempt notes one failed publish at the given time
func (m *Message) RecordAttempt(at time.Time) {
	m.Attempts++
	m.LastAttemptAt = &at
}

// Settle moves the message to status. PROCESSED and FAILED_TO_PUBLISH rows are never polled again.
func (m *Message) Settle(status shared.OutboxStatus, at time.Time) {
	m.Status = status
	m.LastAttemptAt = &at
}

// GetTransactionEvent extracts the event from the payload
func (m *Message) GetTransactionEvent() (*shared.TransactionEvent, error) {
	var event shared.TransactionEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
