package outbox_relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/finance-ledger/internal/domain/outbox"
	"github.com/finance-ledger/internal/domain/shared"
	"github.com/finance-ledger/internal/logger"
	"github.com/finance-ledger/internal/platform/messaging/producers"
)

// Dispatcher hands one outbox message to the broker and records the outcome
type Dispatcher interface {
	Dispatch(ctx context.Context, message *outbox.Message) error
}

// EventDispatcher publishes outbox messages as transaction events
type EventDispatcher struct {
	outboxRepo outbox.Repository
	publisher  producers.EventPublisher
	logger     *slog.Logger
}

func NewEventDispatcher(outboxRepo outbox.Repository, publisher producers.EventPublisher, logger *slog.Logger) *EventDispatcher {
	return &EventDispatcher{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// Dispatch publishes the stored payload unchanged, keyed by transaction id, then marks the
// message PROCESSED. A crash between the two republishes the event; consumers upsert.
func (d *EventDispatcher) Dispatch(ctx context.Context, message *outbox.Message) error {
	ctx = logger.WithCorrelationID(ctx, correlationIDOf(message))
	log := logger.FromContext(ctx, d.logger)

	if err := d.publisher.PublishEvent(ctx, message.TransactionID, message.EventType, message.Payload); err != nil {
		return fmt.Errorf("failed to publish outbox message %d: %w", message.ID, err)
	}

	if err := d.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		log.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("event for %s published, but failed to mark outbox %d as PROCESSED: %w", message.TransactionID, message.ID, err)
	}

	log.Info("Outbox message published and marked as PROCESSED",
		"outbox_id", message.ID, "transaction_id", message.TransactionID, "event_type", message.EventType,
	)
	return nil
}

// correlationIDOf reads the correlation id carried in the event payload, if any
func correlationIDOf(message *outbox.Message) string {
	var envelope struct {
		CorrelationID string `json:"correlation_id"`
	}
	if err := json.Unmarshal(message.Payload, &envelope); err != nil {
		return ""
	}
	return envelope.CorrelationID
}
