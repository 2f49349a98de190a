package memory

import (
	"fmt"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/outbox"
	"github.com/finance-ledger/internal/domain/transaction"
)

// unit stages writes until commit
type unit struct {
	store *Store
	held  []string

	accounts     map[string]*account.Account // Saved or created, by account number
	created      map[string]bool
	baseVersion  map[string]int // Committed version seen by the first save
	transactions map[string]*transaction.Transaction // Created or updated, by transaction id
	txnCreated   map[string]bool
	messages     []*outbox.Message
}

func newUnit(s *Store) *unit {
	return &unit{
		store:        s,
		accounts:     make(map[string]*account.Account),
		created:      make(map[string]bool),
		baseVersion:  make(map[string]int),
		transactions: make(map[string]*transaction.Transaction),
		txnCreated:   make(map[string]bool),
	}
}

func (u *unit) Accounts() account.Repository {
	return &accountRepository{store: u.store, unit: u}
}

func (u *unit) Transactions() transaction.Repository {
	return &transactionRepository{store: u.store, unit: u}
}

func (u *unit) Outbox() outbox.Repository {
	return &outboxRepository{store: u.store, unit: u}
}

func (u *unit) holds(accountNumber string) bool {
	for _, n := range u.held {
		if n == accountNumber {
			return true
		}
	}
	return false
}

func (u *unit) release() {
	for i := len(u.held) - 1; i >= 0; i-- {
		u.store.releaseLock(u.held[i])
	}
	u.held = nil
}

// commit re-checks every staged write against committed state and applies all of them
// or none
func (u *unit) commit() error {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for number := range u.accounts {
		current, exists := s.accounts[number]
		if u.created[number] {
			if exists {
				return account.ErrDuplicateAccountNumber{}
			}
			continue
		}
		if !exists {
			return account.ErrAccountNotFound{AccountNumber: number}
		}
		if current.Version != u.baseVersion[number] {
			return account.ErrConcurrentModification{AccountNumber: number}
		}
	}

	for id, txn := range u.transactions {
		current, exists := s.transactions[id]
		if u.txnCreated[id] {
			if exists {
				return fmt.Errorf("transaction id %s already exists", id)
			}
			if holder := s.liveHolderLocked(txn.IdempotencyKey); holder != nil {
				return transaction.ErrDuplicateIdempotencyKey{Key: txn.IdempotencyKey}
			}
			continue
		}
		if !exists || current.Status != transaction.StatusPending {
			return transaction.ErrTransactionNotPending{TransactionID: id}
		}
	}

	for _, msg := range u.messages {
		for _, existing := range s.messages {
			if existing.TransactionID == msg.TransactionID {
				return outbox.ErrDuplicateMessage{TransactionID: msg.TransactionID}
			}
		}
	}

	for number, acc := range u.accounts {
		s.accounts[number] = acc
		s.accountIDs[acc.ID] = number
	}
	for id, txn := range u.transactions {
		s.transactions[id] = txn
	}
	for _, msg := range u.messages {
		s.messages[msg.ID] = msg
	}

	return nil
}
