package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/shared"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/logger"
)

// LedgerEngine implements Ledger on top of a Store
type LedgerEngine struct {
	store           Store
	validator       OperationValidator
	idempotency     IdempotencyChecker
	accountManager  AccountManager
	outboxManager   OutboxManager
	failureRecorder FailureRecorder
	metrics         MetricsRecorder
	logger          *slog.Logger
	timeout         time.Duration
	now             func() time.Time
}

func NewLedgerEngine(
	store Store,
	validator OperationValidator,
	idempotency IdempotencyChecker,
	accountManager AccountManager,
	outboxManager OutboxManager,
	failureRecorder FailureRecorder,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *LedgerEngine {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &LedgerEngine{
		store:           store,
		validator:       validator,
		idempotency:     idempotency,
		accountManager:  accountManager,
		outboxManager:   outboxManager,
		failureRecorder: failureRecorder,
		metrics:         metrics,
		logger:          logger,
		now:             time.Now,
	}
}

// WithOperationTimeout bounds each operation, lock waits included. Zero disables it.
func (e *LedgerEngine) WithOperationTimeout(d time.Duration) *LedgerEngine {
	e.timeout = d
	return e
}

// Deposit credits an ACTIVE account
func (e *LedgerEngine) Deposit(ctx context.Context, cmd DepositCommand) (*Result, error) {
	return e.execute(ctx, cmd.operation())
}

// Withdraw debits an ACTIVE account that can cover the amount
func (e *LedgerEngine) Withdraw(ctx context.Context, cmd WithdrawCommand) (*Result, error) {
	return e.execute(ctx, cmd.operation())
}

// Transfer moves money between two distinct ACTIVE accounts. Both balance changes and
// the COMPLETED status commit in one unit of work.
func (e *LedgerEngine) Transfer(ctx context.Context, cmd TransferCommand) (*Result, error) {
	return e.execute(ctx, cmd.operation())
}

// MarkFailed is the compensating write used after a failed operation
func (e *LedgerEngine) MarkFailed(ctx context.Context, txn *transaction.Transaction, reason string) error {
	return e.failureRecorder.MarkFailed(ctx, txn, reason)
}

func (e *LedgerEngine) execute(ctx context.Context, op Operation) (*Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	result, outcome, err := e.process(ctx, op)
	e.metrics.ObserveOperation(op.Type, outcome, op.Amount, time.Since(start))
	return result, err
}

func (e *LedgerEngine) process(ctx context.Context, op Operation) (*Result, Outcome, error) {
	log := logger.FromContext(ctx, e.logger).With("type", string(op.Type))

	// 1. Preconditions that need no state
	if err := e.validator.Validate(op); err != nil {
		log.Info("Operation rejected", "amount", op.Amount.String(), "error", err)
		return nil, OutcomeRejected, err
	}

	// 2. Replays
	replay, err := e.idempotency.Check(ctx, op)
	if err != nil {
		return nil, outcomeOf(err), err
	}
	if replay != nil {
		return replay, OutcomeReplayed, nil
	}

	// 3. Lock, check, record, apply, complete
	var pending, completed *transaction.Transaction
	err = e.store.RunInUnit(ctx, func(ctx context.Context, uow UnitOfWork) error {
		locked, err := e.accountManager.LockAccounts(ctx, uow.Accounts(), op)
		if err != nil {
			return err
		}
		if err := e.accountManager.CheckPreconditions(op, locked); err != nil {
			return err
		}

		pending, err = e.createPending(ctx, op)
		if err != nil {
			return err
		}
		log.Debug("Transaction pending", "transaction_id", pending.TransactionID)

		if err := e.accountManager.Apply(ctx, uow.Accounts(), op, locked); err != nil {
			return err
		}

		txn := *pending
		if err := txn.Complete(e.now()); err != nil {
			return err
		}
		if err := uow.Transactions().UpdateStatus(ctx, &txn); err != nil {
			return err
		}
		if err := e.outboxManager.CreateOutboxEntry(ctx, uow.Outbox(), &txn); err != nil {
			return err
		}
		completed = &txn
		return nil
	})

	if err == nil {
		log.Info("Transaction completed",
			"transaction_id", completed.TransactionID,
			"amount", completed.Amount.String(),
			"source_account_number", completed.SourceAccountNumber,
			"destination_account_number", completed.DestinationAccountNumber,
		)
		result := NewResult(completed)
		e.idempotency.Remember(ctx, op.IdempotencyKey, result)
		return result, OutcomeSuccess, nil
	}

	// Nothing was written: the unit rolled back and no record exists
	if pending == nil {
		err = classify(err)
		if outcomeOf(err) == OutcomeRejected {
			log.Info("Operation rejected", "amount", op.Amount.String(), "error", err)
		} else {
			log.Error("Operation failed before recording", "error", err)
		}
		return nil, outcomeOf(err), err
	}

	// 4. The PENDING record is durable, the balance changes are not
	log.Error("Transaction failed", "transaction_id", pending.TransactionID, "error", err)
	reason := failureReason(err)
	if markErr := e.failureRecorder.MarkFailed(ctx, pending, string(reason)); markErr != nil {
		log.Error("Transaction left PENDING", "transaction_id", pending.TransactionID, "error", markErr)
		return nil, OutcomeFailed, &CompensationError{
			TransactionID: pending.TransactionID,
			Cause:         err,
			MarkErr:       markErr,
		}
	}

	return nil, OutcomeFailed, classify(fmt.Errorf("transaction %s failed: %w", pending.TransactionID, err))
}

// createPending persists the PENDING record in its own unit so that it survives a
// rollback of the unit holding the account locks
func (e *LedgerEngine) createPending(ctx context.Context, op Operation) (*transaction.Transaction, error) {
	txn, err := op.newTransaction()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}

	err = e.store.RunInUnit(ctx, func(ctx context.Context, uow UnitOfWork) error {
		return uow.Transactions().Create(ctx, txn)
	})
	if err != nil {
		if errors.Is(err, transaction.ErrDuplicateIdempotencyKey{}) {
			return nil, ErrRequestInProgress
		}
		return nil, fmt.Errorf("failed to create pending transaction: %w", err)
	}

	return txn, nil
}

// classify leaves caller-facing errors untouched and tags everything else as a
// persistence failure
func classify(err error) error {
	if isClientError(err) || errors.Is(err, ErrPersistence) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func isClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidTransaction) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, account.ErrAccountNotFound{}) ||
		errors.Is(err, ErrIdempotencyKeyMismatch) ||
		errors.Is(err, ErrRequestInProgress)
}

func outcomeOf(err error) Outcome {
	if isClientError(err) {
		return OutcomeRejected
	}
	return OutcomeFailed
}

func failureReason(err error) shared.FailureReason {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return shared.FailureReasonCanceled
	case errors.Is(err, account.ErrConcurrentModification{}):
		return shared.FailureReasonConcurrentUpdate
	case errors.Is(err, ErrInsufficientFunds):
		return shared.FailureReasonInsufficientFunds
	case errors.Is(err, account.ErrAccountNotActive{}):
		return shared.FailureReasonAccountNotActive
	case errors.Is(err, transaction.ErrTransactionNotPending{}):
		return shared.FailureReasonAbandoned
	default:
		return shared.FailureReasonPersistence
	}
}
