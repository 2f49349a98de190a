package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes already-encoded transaction events to the event topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, key, eventType string, payload []byte) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, transactionID string, value []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message headers set on every published event
const (
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
	HeaderDLQReason     = "dlq-reason"
	HeaderSourceTopic   = "source-topic"
)
