package memory

import (
	"context"
	"sort"
	"time"

	"github.com/finance-ledger/internal/domain/outbox"
	"github.com/finance-ledger/internal/domain/shared"
	"github.com/finance-ledger/internal/engine"
)

type outboxRepository struct {
	store *Store
	unit  *unit
}

func (r *outboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	if r.unit == nil {
		return r.store.RunInUnit(ctx, func(ctx context.Context, uow engine.UnitOfWork) error {
			return uow.Outbox().Create(ctx, message)
		})
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, staged := range r.unit.messages {
		if staged.TransactionID == message.TransactionID {
			return outbox.ErrDuplicateMessage{TransactionID: message.TransactionID}
		}
	}

	r.store.nextMessageID++
	message.ID = r.store.nextMessageID
	r.unit.messages = append(r.unit.messages, cloneMessage(message))
	return nil
}

func (r *outboxRepository) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	messages := make([]*outbox.Message, 0)
	for _, msg := range r.store.messages {
		if msg.Status == shared.OutboxStatusPending {
			messages = append(messages, cloneMessage(msg))
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (r *outboxRepository) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	return r.mutate(id, func(msg *outbox.Message, now time.Time) {
		msg.Settle(status, now)
	})
}

func (r *outboxRepository) IncrementAttempts(_ context.Context, id int64) error {
	return r.mutate(id, (*outbox.Message).RecordAttempt)
}

func (r *outboxRepository) GetByTransactionID(_ context.Context, transactionID string) (*outbox.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, msg := range r.store.messages {
		if msg.TransactionID == transactionID {
			return cloneMessage(msg), nil
		}
	}
	return nil, outbox.ErrMessageNotFound{}
}

func (r *outboxRepository) mutate(id int64, fn func(msg *outbox.Message, now time.Time)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	msg, ok := r.store.messages[id]
	if !ok {
		return outbox.ErrMessageNotFound{ID: id}
	}
	fn(msg, time.Now().UTC())
	return nil
}
