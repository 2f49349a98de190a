package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/engine"
)

type transactionRepository struct {
	store *Store
	unit  *unit
}

func (r *transactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	if r.unit == nil {
		return r.store.RunInUnit(ctx, func(ctx context.Context, uow engine.UnitOfWork) error {
			return uow.Transactions().Create(ctx, txn)
		})
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if txn.IdempotencyKey != "" {
		if s.liveHolderLocked(txn.IdempotencyKey) != nil || r.unit.liveHolder(txn.IdempotencyKey) != nil {
			return transaction.ErrDuplicateIdempotencyKey{Key: txn.IdempotencyKey}
		}
	}

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		id := s.generateTransactionID()
		if _, taken := s.transactions[id]; taken {
			continue
		}
		if _, staged := r.unit.transactions[id]; staged {
			continue
		}

		s.nextTransactionID++
		txn.ID = s.nextTransactionID
		txn.TransactionID = id
		r.unit.transactions[id] = cloneTransaction(txn)
		r.unit.txnCreated[id] = true
		return nil
	}

	return fmt.Errorf("failed to create transaction: exhausted %d transaction id attempts", maxNumberAttempts)
}

// UpdateStatus stages the terminal status of a record that is still PENDING
func (r *transactionRepository) UpdateStatus(ctx context.Context, txn *transaction.Transaction) error {
	if r.unit == nil {
		return r.store.RunInUnit(ctx, func(ctx context.Context, uow engine.UnitOfWork) error {
			return uow.Transactions().UpdateStatus(ctx, txn)
		})
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current := r.lookupLocked(txn.TransactionID)
	if current == nil || current.Status != transaction.StatusPending {
		return transaction.ErrTransactionNotPending{TransactionID: txn.TransactionID}
	}

	updated := cloneTransaction(current)
	updated.Status = txn.Status
	updated.FailureReason = txn.FailureReason
	updated.UpdatedAt = txn.UpdatedAt
	updated.ProcessedAt = nil
	if txn.ProcessedAt != nil {
		at := *txn.ProcessedAt
		updated.ProcessedAt = &at
	}
	r.unit.transactions[txn.TransactionID] = updated
	return nil
}

func (r *transactionRepository) GetByTransactionID(_ context.Context, transactionID string) (*transaction.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if txn := r.lookupLocked(transactionID); txn != nil {
		return cloneTransaction(txn), nil
	}
	return nil, transaction.ErrTransactionNotFound{TransactionID: transactionID}
}

func (r *transactionRepository) GetByIdempotencyKey(_ context.Context, key string) (*transaction.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if txn := r.store.liveHolderLocked(key); txn != nil {
		return cloneTransaction(txn), nil
	}
	return nil, nil
}

func (r *transactionRepository) ListByAccount(_ context.Context, accountNumber string, limit, offset int) ([]*transaction.Transaction, error) {
	txns := r.filter(func(t *transaction.Transaction) bool { return touches(t, accountNumber) })
	sort.Slice(txns, func(i, j int) bool { return newerFirst(txns[i], txns[j]) })

	if offset >= len(txns) {
		return make([]*transaction.Transaction, 0), nil
	}
	end := offset + limit
	if limit <= 0 || end > len(txns) {
		end = len(txns)
	}
	return txns[offset:end], nil
}

func (r *transactionRepository) CountByAccount(_ context.Context, accountNumber string) (int64, error) {
	return int64(len(r.filter(func(t *transaction.Transaction) bool { return touches(t, accountNumber) }))), nil
}

func (r *transactionRepository) ListByAccountAndRange(_ context.Context, accountNumber string, from, to time.Time) ([]*transaction.Transaction, error) {
	txns := r.filter(func(t *transaction.Transaction) bool {
		return touches(t, accountNumber) && !t.CreatedAt.Before(from) && !t.CreatedAt.After(to)
	})
	sort.Slice(txns, func(i, j int) bool { return newerFirst(txns[j], txns[i]) })
	return txns, nil
}

func (r *transactionRepository) ListStalePending(_ context.Context, olderThan time.Time, limit int) ([]*transaction.Transaction, error) {
	txns := r.filter(func(t *transaction.Transaction) bool {
		return t.Status == transaction.StatusPending && t.CreatedAt.Before(olderThan)
	})
	sort.Slice(txns, func(i, j int) bool { return newerFirst(txns[j], txns[i]) })
	if limit > 0 && len(txns) > limit {
		txns = txns[:limit]
	}
	return txns, nil
}

// filter returns clones of the committed records matching keep
func (r *transactionRepository) filter(keep func(*transaction.Transaction) bool) []*transaction.Transaction {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	txns := make([]*transaction.Transaction, 0)
	for _, txn := range r.store.transactions {
		if keep(txn) {
			txns = append(txns, cloneTransaction(txn))
		}
	}
	return txns
}

func (r *transactionRepository) lookupLocked(transactionID string) *transaction.Transaction {
	if r.unit != nil {
		if txn, ok := r.unit.transactions[transactionID]; ok {
			return txn
		}
	}
	return r.store.transactions[transactionID]
}

// liveHolderLocked returns the newest committed non-FAILED record holding key
func (s *Store) liveHolderLocked(key string) *transaction.Transaction {
	if key == "" {
		return nil
	}
	var holder *transaction.Transaction
	for _, txn := range s.transactions {
		if txn.IdempotencyKey == key && txn.Status != transaction.StatusFailed {
			if holder == nil || newerFirst(txn, holder) {
				holder = txn
			}
		}
	}
	return holder
}

func (u *unit) liveHolder(key string) *transaction.Transaction {
	for _, txn := range u.transactions {
		if txn.IdempotencyKey == key && txn.Status != transaction.StatusFailed {
			return txn
		}
	}
	return nil
}

func touches(t *transaction.Transaction, accountNumber string) bool {
	return t.SourceAccountNumber == accountNumber || t.DestinationAccountNumber == accountNumber
}

func newerFirst(a, b *transaction.Transaction) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
