package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// ErrDLQDisabled is returned by a nil DLQProducer
var ErrDLQDisabled = errors.New("dead letter topic not configured")

// DeadLetter is the record parked for a transaction event the projector could not apply.
// Event holds the original bytes verbatim when they are JSON, Raw otherwise.
type DeadLetter struct {
	TransactionID string          `json:"transaction_id"`
	SourceTopic   string          `json:"source_topic"`
	Reason        string          `json:"reason"`
	Event         json.RawMessage `json:"event,omitempty"`
	Raw           string          `json:"raw,omitempty"`
	FailedAt      time.Time       `json:"failed_at"`
}

type DLQProducer struct {
	logger      *slog.Logger
	writer      KafkaWriter
	topic       string
	sourceTopic string
	now         func() time.Time
}

var _ DeadLetterPublisher = (*DLQProducer)(nil)

// NewDLQProducer returns nil, nil when cfg.DLQTopic is empty; poison events are then dropped
func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("No dead letter topic configured, poison events will be dropped")
		return nil, nil
	}

	if err := ensureTopic(ctx, cfg, cfg.DLQTopic, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure DLQ topic %s exists: %w", cfg.DLQTopic, err)
	}

	return &DLQProducer{
		logger: logger,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: cfg.MaxWait,
		},
		topic:       cfg.DLQTopic,
		sourceTopic: cfg.EventTopic,
		now:         time.Now,
	}, nil
}

// PublishToDLQ parks one event. Keying by transaction id keeps a transaction's dead
// letters on one partition, in the order they failed.
func (p *DLQProducer) PublishToDLQ(ctx context.Context, transactionID string, value []byte, reason string) error {
	if p == nil || p.writer == nil {
		return ErrDLQDisabled
	}

	letter := DeadLetter{
		TransactionID: transactionID,
		SourceTopic:   p.sourceTopic,
		Reason:        reason,
		FailedAt:      p.now().UTC(),
	}
	if json.Valid(value) {
		letter.Event = value
	} else {
		letter.Raw = string(value)
	}

	body, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(transactionID),
		Value: body,
		Headers: []kafka.Header{
			{Key: HeaderDLQReason, Value: []byte(reason)},
			{Key: HeaderSourceTopic, Value: []byte(p.sourceTopic)},
		},
	})
	if err != nil {
		p.logger.Error("Failed to park event on dead letter topic",
			"topic", p.topic,
			"transaction_id", transactionID,
			"error", err,
		)
		return fmt.Errorf("failed to publish to dead letter topic %s: %w", p.topic, err)
	}

	p.logger.Warn("Parked event on dead letter topic",
		"topic", p.topic,
		"transaction_id", transactionID,
		"reason", reason,
	)
	return nil
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close dead letter writer for %s: %w", p.topic, err)
	}
	return nil
}
