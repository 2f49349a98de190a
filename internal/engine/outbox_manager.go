package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/domain/outbox"
	"github.com/finance-ledger/internal/domain/shared"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/logger"
)

type OutboxManagerImpl struct {
	logger *slog.Logger
}

func NewOutboxManager(logger *slog.Logger) *OutboxManagerImpl {
	return &OutboxManagerImpl{logger: logger}
}

// CreateOutboxEntry writes the terminal event for txn through repo, inside the unit of
// work that made the status change
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, repo outbox.Repository, txn *transaction.Transaction) error {
	log := logger.FromContext(ctx, m.logger)

	event := &shared.TransactionEvent{
		TransactionID:            txn.TransactionID,
		Type:                     string(txn.Type),
		Status:                   string(txn.Status),
		Amount:                   txn.Amount.String(),
		Description:              txn.Description,
		SourceAccountNumber:      txn.SourceAccountNumber,
		DestinationAccountNumber: txn.DestinationAccountNumber,
		FailureReason:            txn.FailureReason,
		CorrelationID:            logger.CorrelationID(ctx),
		CreatedAt:                txn.CreatedAt,
		ProcessedAt:              txn.ProcessedAt,
		OccurredAt:               time.Now().UTC(),
	}

	message, err := outbox.NewMessage(event)
	if err != nil {
		log.Error("Failed to build outbox message", "transaction_id", txn.TransactionID, "error", err)
		return fmt.Errorf("failed to create outbox message payload for tx %s: %w", txn.TransactionID, err)
	}

	if err = repo.Create(ctx, message); err != nil {
		log.Error("Failed to create outbox message", "transaction_id", txn.TransactionID, "error", err)
		return fmt.Errorf("failed to create outbox message for tx %s: %w", txn.TransactionID, err)
	}
	log.Debug("Outbox message created", "transaction_id", txn.TransactionID, "outbox_id", message.ID, "event_type", message.EventType)

	return nil
}
