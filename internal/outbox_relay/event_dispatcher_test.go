package outbox_relay

import (
	"context"
	"errors"
	"testing"

	"github.com/finance-ledger/internal/domain/outbox"
	"github.com/finance-ledger/internal/domain/shared"
	"github.com/finance-ledger/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEventDispatcher_Dispatch(t *testing.T) {
	payload := []byte(`{"transaction_id":"TX0123456789ABCDEF0123","status":"COMPLETED","correlation_id":"corr-42"}`)
	message := &outbox.Message{
		ID:            11,
		TransactionID: "TX0123456789ABCDEF0123",
		EventType:     shared.EventTransactionCompleted,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
	}

	withCorrelation := mock.MatchedBy(func(ctx context.Context) bool {
		return logger.CorrelationID(ctx) == "corr-42"
	})

	t.Run("PublishesThenMarksProcessed", func(t *testing.T) {
		repo := &MockOutboxRepo{}
		publisher := &MockEventPublisher{}
		publisher.On("PublishEvent", withCorrelation, message.TransactionID, shared.EventTransactionCompleted, []byte(payload)).Return(nil).Once()
		repo.On("UpdateStatus", mock.Anything, int64(11), shared.OutboxStatusProcessed).Return(nil).Once()

		err := NewEventDispatcher(repo, publisher, discardLogger()).Dispatch(context.Background(), message)

		require.NoError(t, err)
		publisher.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("PublishFailureLeavesMessagePending", func(t *testing.T) {
		repo := &MockOutboxRepo{}
		publisher := &MockEventPublisher{}
		brokerErr := errors.New("broker down")
		publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(brokerErr).Once()

		err := NewEventDispatcher(repo, publisher, discardLogger()).Dispatch(context.Background(), message)

		assert.ErrorIs(t, err, brokerErr)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("StatusUpdateFailure", func(t *testing.T) {
		repo := &MockOutboxRepo{}
		publisher := &MockEventPublisher{}
		dbErr := errors.New("connection reset")
		publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		repo.On("UpdateStatus", mock.Anything, int64(11), shared.OutboxStatusProcessed).Return(dbErr).Once()

		err := NewEventDispatcher(repo, publisher, discardLogger()).Dispatch(context.Background(), message)

		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "published")
	})
}

func TestCorrelationIDOf(t *testing.T) {
	assert.Equal(t, "abc", correlationIDOf(&outbox.Message{Payload: []byte(`{"correlation_id":"abc"}`)}))
	assert.Empty(t, correlationIDOf(&outbox.Message{Payload: []byte(`{}`)}))
	assert.Empty(t, correlationIDOf(&outbox.Message{Payload: []byte(`not json`)}))
}
