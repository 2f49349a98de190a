package producers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/finance-ledger/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDLQProducer(w KafkaWriter, now time.Time) *DLQProducer {
	return &DLQProducer{
		logger:      discardLogger(),
		writer:      w,
		topic:       "ledger.transaction-events.dlq",
		sourceTopic: "ledger.transaction-events",
		now:         func() time.Time { return now },
	}
}

func TestDLQProducer_PublishToDLQ(t *testing.T) {
	ctx := context.Background()
	failedAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	captured := func(w *MockKafkaWriter) *kafka.Message {
		var got kafka.Message
		w.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).
			Run(func(args mock.Arguments) { got = args.Get(1).([]kafka.Message)[0] }).
			Return(nil).Once()
		return &got
	}

	t.Run("JSONEventIsEmbedded", func(t *testing.T) {
		w := new(MockKafkaWriter)
		msg := captured(w)
		producer := newTestDLQProducer(w, failedAt)

		event := []byte(`{"transaction_id":"TX0123456789ABCDEF0123","amount":"abc"}`)
		require.NoError(t, producer.PublishToDLQ(ctx, "TX0123456789ABCDEF0123", event, "invalid amount"))
		w.AssertExpectations(t)

		assert.Equal(t, "TX0123456789ABCDEF0123", string(msg.Key))
		assert.Equal(t, "invalid amount", header(*msg, HeaderDLQReason))
		assert.Equal(t, "ledger.transaction-events", header(*msg, HeaderSourceTopic))

		var letter DeadLetter
		require.NoError(t, json.Unmarshal(msg.Value, &letter))
		assert.JSONEq(t, string(event), string(letter.Event))
		assert.Empty(t, letter.Raw)
		assert.Equal(t, "ledger.transaction-events", letter.SourceTopic)
		assert.True(t, failedAt.Equal(letter.FailedAt))
	})

	t.Run("UndecodableBytesKeptRaw", func(t *testing.T) {
		w := new(MockKafkaWriter)
		msg := captured(w)
		producer := newTestDLQProducer(w, failedAt)

		require.NoError(t, producer.PublishToDLQ(ctx, "", []byte(`{"transaction_id":`), "undecodable event"))

		var letter DeadLetter
		require.NoError(t, json.Unmarshal(msg.Value, &letter))
		assert.Nil(t, letter.Event)
		assert.Equal(t, `{"transaction_id":`, letter.Raw)
		assert.Equal(t, "undecodable event", letter.Reason)
	})

	t.Run("WriterError", func(t *testing.T) {
		w := new(MockKafkaWriter)
		writeErr := errors.New("not enough replicas")
		w.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writeErr).Once()

		err := newTestDLQProducer(w, failedAt).PublishToDLQ(ctx, "TX1", []byte(`{}`), "boom")
		assert.ErrorIs(t, err, writeErr)
	})

	t.Run("NilProducerIsDisabled", func(t *testing.T) {
		var producer *DLQProducer

		assert.ErrorIs(t, producer.PublishToDLQ(ctx, "TX1", []byte(`{}`), "disabled"), ErrDLQDisabled)
		assert.NoError(t, producer.Close())
	})
}

func TestDLQProducer_Close(t *testing.T) {
	w := new(MockKafkaWriter)
	closeErr := errors.New("connection refused")
	w.On("Close").Return(closeErr).Once()

	assert.ErrorIs(t, newTestDLQProducer(w, time.Now()).Close(), closeErr)
}

func TestNewDLQProducer_Disabled(t *testing.T) {
	producer, err := NewDLQProducer(context.Background(), discardLogger(), &config.KafkaConfig{})

	require.NoError(t, err)
	assert.Nil(t, producer)
}
