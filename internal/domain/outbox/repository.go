package outbox

import (
	"context"
	"fmt"

	"github.com/finance-ledger/internal/domain/shared"
)

// Repository is the event queue shared by the engine (writer, inside the ledger unit of
// work) and the relay (reader). One message exists per transaction id.
type Repository interface {
	// Create enqueues message; a second message for the same transaction is ErrDuplicateMessage
	Create(ctx context.Context, message *Message) error
	// GetPending returns up to limit PENDING messages, oldest first
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	GetByTransactionID(ctx context.Context, transactionID string) (*Message, error)
}

// ErrMessageNotFound is returned when no queued message has the id
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	if e.ID == 0 {
		return "outbox message not found"
	}
	return fmt.Sprintf("outbox message %d not found", e.ID)
}

// Is matches any ErrMessageNotFound when the target carries no id
func (e ErrMessageNotFound) Is(target error) bool {
	t, ok := target.(ErrMessageNotFound)
	return ok && (t.ID == 0 || t.ID == e.ID)
}

// ErrDuplicateMessage reports that the transaction already has its event queued
type ErrDuplicateMessage struct {
	TransactionID string
}

func (e ErrDuplicateMessage) Error() string {
	return fmt.Sprintf("event for transaction %s already queued", e.TransactionID)
}

func (e ErrDuplicateMessage) Is(target error) bool {
	t, ok := target.(ErrDuplicateMessage)
	return ok && (t.TransactionID == "" || t.TransactionID == e.TransactionID)
}
