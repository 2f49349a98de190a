package engine

import (
	"errors"
	"fmt"

	"github.com/finance-ledger/internal/domain/account"
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrSameAccount        = fmt.Errorf("%w: source and destination accounts must differ", ErrInvalidTransaction)
	ErrMissingAccount     = fmt.Errorf("%w: account number is required", ErrInvalidTransaction)
	ErrInsufficientFunds  = account.ErrInsufficientFunds

	ErrPersistence        = errors.New("persistence failure")
	ErrCompensationFailed = errors.New("failed to mark transaction as failed")

	ErrIdempotencyKeyMismatch = errors.New("idempotency key was used for a different request")
	ErrRequestInProgress      = errors.New("a request with this idempotency key is still in progress")
)

// CompensationError reports that an operation failed after its PENDING record was
// written and the record could not be advanced to FAILED. The record stays PENDING
// until the reaper abandons it.
type CompensationError struct {
	TransactionID string
	Cause         error // Why the operation failed
	MarkErr       error // Why the FAILED write failed
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("transaction %s failed (%v) and could not be marked failed: %v", e.TransactionID, e.Cause, e.MarkErr)
}

func (e *CompensationError) Unwrap() []error {
	return []error{ErrCompensationFailed, e.Cause, e.MarkErr}
}
