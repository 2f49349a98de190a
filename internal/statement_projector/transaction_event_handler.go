package statement_projector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finance-ledger/internal/domain/shared"
	"github.com/finance-ledger/internal/logger"
	"github.com/finance-ledger/internal/platform/messaging/producers"
	"github.com/segmentio/kafka-go"
)

// TransactionEventHandler handles transaction events consumed from Kafka
type TransactionEventHandler struct {
	projector Projector
	producer  producers.DeadLetterPublisher
	logger    *slog.Logger
}

// NewTransactionEventHandler creates a new handler. producer may be nil when no DLQ is configured.
func NewTransactionEventHandler(
	logger *slog.Logger,
	projector Projector,
	producer producers.DeadLetterPublisher,
) *TransactionEventHandler {
	return &TransactionEventHandler{
		projector: projector,
		producer:  producer,
		logger:    logger,
	}
}

// HandleMessage decodes and projects one event. A nil return commits the offset; an
// error asks the consumer to deliver the message again.
func (h *TransactionEventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	ctx = logger.WithCorrelationID(ctx, headerValue(msg, producers.HeaderCorrelationID))

	var event shared.TransactionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return h.deadLetter(ctx, msg, fmt.Sprintf("failed to unmarshal transaction event: %s", err))
	}

	if logger.CorrelationID(ctx) == "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}
	log := logger.FromContext(ctx, h.logger)

	err := h.projector.Project(ctx, &event)
	if errors.Is(err, ErrUnprojectable{}) {
		return h.deadLetter(ctx, msg, err.Error())
	}
	if err != nil {
		log.Error("Failed to project transaction event", "transaction_id", event.TransactionID, "error", err)
		return fmt.Errorf("projecting transaction %s failed: %w", event.TransactionID, err)
	}

	log.Info("Projected transaction event",
		"transaction_id", event.TransactionID,
		"type", event.Type,
		"status", event.Status,
	)
	return nil
}

// deadLetter moves a poison message aside. Without a DLQ the message is dropped, since
// redelivery cannot fix it.
func (h *TransactionEventHandler) deadLetter(ctx context.Context, msg kafka.Message, reason string) error {
	log := logger.FromContext(ctx, h.logger).With("message_key", string(msg.Key), "offset", msg.Offset)
	log.Error("Unprocessable transaction event", "reason", reason)

	if h.producer == nil {
		log.Warn("No DLQ configured, dropping unprocessable event")
		return nil
	}

	err := h.producer.PublishToDLQ(ctx, string(msg.Key), msg.Value, reason)
	switch {
	case err == nil:
		log.Info("Published unprocessable event to DLQ")
		return nil
	case errors.Is(err, producers.ErrDLQDisabled):
		log.Warn("DLQ disabled, dropping unprocessable event")
		return nil
	default:
		log.Error("Failed to publish event to DLQ", "dlq_error", err)
		return fmt.Errorf("failed to dead-letter message %s: %w", string(msg.Key), err)
	}
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
