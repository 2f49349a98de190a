package transaction

import (
	"context"
	"time"
)

// Repository manages transaction record persistence
type Repository interface {
	// Create assigns the id and a unique transaction id, then stores a PENDING record
	Create(ctx context.Context, txn *Transaction) error

	// UpdateStatus writes the terminal status. It only applies to a record that is
	// still PENDING and returns ErrTransactionNotPending otherwise.
	UpdateStatus(ctx context.Context, txn *Transaction) error

	GetByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)

	// GetByIdempotencyKey returns the latest record holding the key that is not FAILED, or nil
	GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)

	ListByAccount(ctx context.Context, accountNumber string, limit, offset int) ([]*Transaction, error)
	CountByAccount(ctx context.Context, accountNumber string) (int64, error)
	ListByAccountAndRange(ctx context.Context, accountNumber string, from, to time.Time) ([]*Transaction, error)

	// ListStalePending returns PENDING records created before olderThan, oldest first
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*Transaction, error)
}

// ErrTransactionNotFound indicates missing transaction
type ErrTransactionNotFound struct {
	TransactionID string
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID
}

// Is matches any ErrTransactionNotFound when the target id is empty
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == "" {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrTransactionNotPending indicates a status update against a record that already left PENDING
type ErrTransactionNotPending struct {
	TransactionID string
}

func (e ErrTransactionNotPending) Error() string {
	return "transaction is no longer pending: " + e.TransactionID
}

func (e ErrTransactionNotPending) Is(target error) bool {
	t, ok := target.(ErrTransactionNotPending)
	if !ok {
		return false
	}
	return t.TransactionID == "" || e.TransactionID == t.TransactionID
}

// ErrDuplicateIdempotencyKey indicates a live record already holds the key
type ErrDuplicateIdempotencyKey struct {
	Key string
}

func (e ErrDuplicateIdempotencyKey) Error() string {
	return "idempotency key already in use: " + e.Key
}

func (e ErrDuplicateIdempotencyKey) Is(target error) bool {
	t, ok := target.(ErrDuplicateIdempotencyKey)
	if !ok {
		return false
	}
	return t.Key == "" || e.Key == t.Key
}
