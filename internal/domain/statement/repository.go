package statement

import (
	"context"
)

// Repository manages the projected activity feed with pagination support
type Repository interface {
	// Upsert is keyed by (transaction id, account number) so replayed events are harmless
	Upsert(ctx context.Context, entry *Entry) error
	GetByAccount(ctx context.Context, accountNumber string, limit, offset int) ([]*Entry, error)
	CountByAccount(ctx context.Context, accountNumber string) (int64, error)
	GetByTransactionID(ctx context.Context, transactionID string) ([]*Entry, error)
}

// ErrEntryNotFound indicates no projected entry exists for a transaction
type ErrEntryNotFound struct {
	TransactionID string
}

func (e ErrEntryNotFound) Error() string {
	return "statement entry not found: " + e.TransactionID
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == "" {
		return true
	}
	return e.TransactionID == t.TransactionID
}
