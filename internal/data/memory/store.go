// Package memory provides an in-process Store for the ledger engine. Account locks are
// per-account semaphores held until the unit of work ends, and unit writes are staged
// and applied together on commit.
package memory

import (
	"context"
	"sync"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/outbox"
	"github.com/finance-ledger/internal/domain/owner"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/engine"
)

// maxNumberAttempts bounds regeneration of colliding external identifiers
const maxNumberAttempts = 5

// Store keeps committed state behind one mutex
type Store struct {
	mu sync.Mutex

	accounts     map[string]*account.Account // By account number
	accountIDs   map[int64]string
	transactions map[string]*transaction.Transaction // By transaction id
	messages     map[int64]*outbox.Message
	locks        map[string]chan struct{}
	clients      map[int64]*owner.Client
	merchants    map[int64]*owner.Merchant

	nextAccountID     int64
	nextTransactionID int64
	nextMessageID     int64
	nextClientID      int64
	nextMerchantID    int64

	generateAccountNumber func() string
	generateTransactionID func() string
}

var _ engine.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		accounts:              make(map[string]*account.Account),
		accountIDs:            make(map[int64]string),
		transactions:          make(map[string]*transaction.Transaction),
		messages:              make(map[int64]*outbox.Message),
		locks:                 make(map[string]chan struct{}),
		clients:               make(map[int64]*owner.Client),
		merchants:             make(map[int64]*owner.Merchant),
		generateAccountNumber: account.GenerateAccountNumber,
		generateTransactionID: transaction.GenerateTransactionID,
	}
}

// RunInUnit runs fn with a fresh unit of work. The unit commits when fn returns nil and
// is discarded otherwise. Locks are released in both cases.
func (s *Store) RunInUnit(ctx context.Context, fn func(ctx context.Context, uow engine.UnitOfWork) error) error {
	u := newUnit(s)
	defer u.release()

	if err := fn(ctx, u); err != nil {
		return err
	}
	return u.commit()
}

// Accounts returns a repository reading committed state. Writes through it run in an
// implicit unit of their own.
func (s *Store) Accounts() account.Repository {
	return &accountRepository{store: s}
}

// Transactions returns a repository reading committed state
func (s *Store) Transactions() transaction.Repository {
	return &transactionRepository{store: s}
}

// Outbox returns the outbox repository used by the relay. Status bookkeeping is
// applied immediately.
func (s *Store) Outbox() outbox.Repository {
	return &outboxRepository{store: s}
}

// Owners returns the client and merchant registry. Account creation does not consult
// it; the account service checks the owner first.
func (s *Store) Owners() owner.Repository {
	return &ownerRepository{store: s}
}

func (s *Store) lockFor(accountNumber string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.locks[accountNumber]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[accountNumber] = ch
	}
	return ch
}

// acquire blocks until the account lock is free or ctx is done
func (s *Store) acquire(ctx context.Context, accountNumber string) error {
	select {
	case s.lockFor(accountNumber) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) releaseLock(accountNumber string) {
	<-s.lockFor(accountNumber)
}

func cloneAccount(a *account.Account) *account.Account {
	c := *a
	if a.AvailableLimit != nil {
		limit := *a.AvailableLimit
		c.AvailableLimit = &limit
	}
	if a.ClientID != nil {
		id := *a.ClientID
		c.ClientID = &id
	}
	if a.MerchantID != nil {
		id := *a.MerchantID
		c.MerchantID = &id
	}
	return &c
}

func cloneTransaction(t *transaction.Transaction) *transaction.Transaction {
	c := *t
	if t.ProcessedAt != nil {
		at := *t.ProcessedAt
		c.ProcessedAt = &at
	}
	return &c
}

func cloneMessage(m *outbox.Message) *outbox.Message {
	c := *m
	c.Payload = append([]byte(nil), m.Payload...)
	if m.LastAttemptAt != nil {
		at := *m.LastAttemptAt
		c.LastAttemptAt = &at
	}
	return &c
}
