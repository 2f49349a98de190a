// Package engine moves money between accounts. Every deposit, withdrawal and transfer
// locks the affected accounts, records a PENDING transaction, applies the balance change
// and finalizes the record as COMPLETED. Any failure after the record exists leaves it
// FAILED.
package engine

import (
	"context"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/outbox"
	"github.com/finance-ledger/internal/domain/transaction"
)

// UnitOfWork exposes repositories whose writes commit together or not at all.
// Locks taken through Accounts().GetForUpdate are held until the unit ends.
type UnitOfWork interface {
	Accounts() account.Repository
	Transactions() transaction.Repository
	Outbox() outbox.Repository
}

// Store opens units of work. A unit opened while another is running is independent of
// it: it commits or rolls back on its own.
type Store interface {
	RunInUnit(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error

	// Non-locking reads outside any unit
	Accounts() account.Repository
	Transactions() transaction.Repository
}

// Ledger is the money movement API
type Ledger interface {
	Deposit(ctx context.Context, cmd DepositCommand) (*Result, error)
	Withdraw(ctx context.Context, cmd WithdrawCommand) (*Result, error)
	Transfer(ctx context.Context, cmd TransferCommand) (*Result, error)
}

// OperationValidator checks preconditions that need no account state
type OperationValidator interface {
	Validate(op Operation) error
}

// IdempotencyChecker resolves a repeated idempotency key to the original result
type IdempotencyChecker interface {
	// Check returns the stored result for a replay, nil to proceed, or an error for a conflict
	Check(ctx context.Context, op Operation) (*Result, error)
	Remember(ctx context.Context, key string, result *Result)
}

// AccountManager locks the accounts an operation touches and applies the balance change
type AccountManager interface {
	LockAccounts(ctx context.Context, repo account.Repository, op Operation) (map[string]*account.Account, error)
	CheckPreconditions(op Operation, locked map[string]*account.Account) error
	Apply(ctx context.Context, repo account.Repository, op Operation, locked map[string]*account.Account) error
}

// OutboxManager records the event announcing a terminal transaction
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, repo outbox.Repository, txn *transaction.Transaction) error
}

// FailureRecorder advances a PENDING transaction to FAILED in its own unit of work
type FailureRecorder interface {
	MarkFailed(ctx context.Context, txn *transaction.Transaction, reason string) error
}

// IdempotencyCache keeps completed results close to the API. Implementations are a side
// channel: errors are logged and never fail an operation.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (*Result, error)
	Set(ctx context.Context, key string, result *Result) error
}
