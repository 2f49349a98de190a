package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/logger"
)

// markFailedTimeout bounds the compensating write, which runs even when the caller's
// context is already done
const markFailedTimeout = 10 * time.Second

type FailureRecorderImpl struct {
	store         Store
	outboxManager OutboxManager
	logger        *slog.Logger
	now           func() time.Time
}

func NewFailureRecorder(store Store, outboxManager OutboxManager, logger *slog.Logger) *FailureRecorderImpl {
	return &FailureRecorderImpl{
		store:         store,
		outboxManager: outboxManager,
		logger:        logger,
		now:           time.Now,
	}
}

// MarkFailed moves a PENDING record to FAILED and records the failure event, both in one
// unit of work. A record that is already FAILED is left alone.
func (r *FailureRecorderImpl) MarkFailed(ctx context.Context, txn *transaction.Transaction, reason string) error {
	log := logger.FromContext(ctx, r.logger)
	log.Info("Marking transaction failed", "transaction_id", txn.TransactionID, "reason", reason)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markFailedTimeout)
	defer cancel()

	failed := *txn
	if err := failed.Fail(reason, r.now()); err != nil {
		return err
	}

	err := r.store.RunInUnit(ctx, func(ctx context.Context, uow UnitOfWork) error {
		if err := uow.Transactions().UpdateStatus(ctx, &failed); err != nil {
			return err
		}
		return r.outboxManager.CreateOutboxEntry(ctx, uow.Outbox(), &failed)
	})
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotPending{}) {
			current, getErr := r.store.Transactions().GetByTransactionID(ctx, txn.TransactionID)
			if getErr == nil && current.Status == transaction.StatusFailed {
				log.Info("Transaction already marked failed", "transaction_id", txn.TransactionID, "reason", current.FailureReason)
				*txn = *current
				return nil
			}
		}
		log.Error("Failed to mark transaction failed", "transaction_id", txn.TransactionID, "error", err)
		return fmt.Errorf("failed to mark transaction %s failed: %w", txn.TransactionID, err)
	}

	*txn = failed
	return nil
}
