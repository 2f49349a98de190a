package consumers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/finance-ledger/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves a fixed list of messages, then blocks until ctx ends
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	commitErr error
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commitErr != nil {
		return r.commitErr
	}
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func newTestConsumer(reader KafkaReader) *KafkaConsumer {
	return &KafkaConsumer{
		reader:     reader,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		topic:      "events",
		groupID:    "group",
		minBackoff: time.Millisecond,
		maxBackoff: 4 * time.Millisecond,
	}
}

func runAsync(ctx context.Context, c *KafkaConsumer, handler MessageHandler) <-chan error {
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, handler) }()
	return done
}

func TestNewKafkaConsumer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.KafkaConfig{
		Brokers:       "localhost:9092",
		EventTopic:    "test-topic",
		ConsumerGroup: "test-group",
		MinBytes:      1024,
		MaxBytes:      10240,
		MaxWait:       time.Second,
	}

	consumer := NewKafkaConsumer(logger, cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader, "Kafka reader should be initialized")
	assert.Equal(t, "test-topic", consumer.topic)
	assert.Equal(t, "test-group", consumer.groupID)
	assert.NoError(t, consumer.Close())
}

func TestKafkaConsumer_Run(t *testing.T) {
	t.Run("CommitsHandledMessagesInOrder", func(t *testing.T) {
		reader := &fakeReader{messages: []kafka.Message{{Offset: 1}, {Offset: 2}, {Offset: 3}}}
		consumer := newTestConsumer(reader)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var mu sync.Mutex
		var seen []int64
		done := runAsync(ctx, consumer, func(_ context.Context, msg kafka.Message) error {
			mu.Lock()
			seen = append(seen, msg.Offset)
			mu.Unlock()
			return nil
		})

		assert.Eventually(t, func() bool { return len(reader.committedOffsets()) == 3 }, time.Second, 5*time.Millisecond)
		cancel()
		require.NoError(t, <-done)

		assert.Equal(t, []int64{1, 2, 3}, reader.committedOffsets())
		mu.Lock()
		assert.Equal(t, []int64{1, 2, 3}, seen)
		mu.Unlock()
	})

	t.Run("RetriesFailingHandlerBeforeCommit", func(t *testing.T) {
		reader := &fakeReader{messages: []kafka.Message{{Offset: 7}}}
		consumer := newTestConsumer(reader)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var mu sync.Mutex
		attempts := 0
		done := runAsync(ctx, consumer, func(context.Context, kafka.Message) error {
			mu.Lock()
			defer mu.Unlock()
			attempts++
			if attempts < 3 {
				return errors.New("mongo unavailable")
			}
			return nil
		})

		assert.Eventually(t, func() bool { return len(reader.committedOffsets()) == 1 }, time.Second, 5*time.Millisecond)
		cancel()
		require.NoError(t, <-done)

		mu.Lock()
		assert.Equal(t, 3, attempts)
		mu.Unlock()
	})

	t.Run("StopsWithoutCommittingWhenCanceledMidRetry", func(t *testing.T) {
		reader := &fakeReader{messages: []kafka.Message{{Offset: 9}}}
		consumer := newTestConsumer(reader)
		ctx, cancel := context.WithCancel(context.Background())

		failing := make(chan struct{}, 1)
		done := runAsync(ctx, consumer, func(context.Context, kafka.Message) error {
			select {
			case failing <- struct{}{}:
			default:
			}
			return errors.New("still failing")
		})

		<-failing
		cancel()
		require.NoError(t, <-done)
		assert.Empty(t, reader.committedOffsets())
	})

	t.Run("CommitFailureKeepsConsuming", func(t *testing.T) {
		reader := &fakeReader{messages: []kafka.Message{{Offset: 1}, {Offset: 2}}, commitErr: errors.New("rebalance")}
		consumer := newTestConsumer(reader)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		handled := make(chan int64, 2)
		done := runAsync(ctx, consumer, func(_ context.Context, msg kafka.Message) error {
			handled <- msg.Offset
			return nil
		})

		assert.Equal(t, int64(1), <-handled)
		assert.Equal(t, int64(2), <-handled)
		cancel()
		require.NoError(t, <-done)
	})
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
		require.NoError(t, consumer.Close(), "Close should return nil if reader is nil")
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := &fakeReader{}
		require.NoError(t, newTestConsumer(reader).Close())
		assert.True(t, reader.closed)
	})
}
