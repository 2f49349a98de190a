package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/finance-ledger/internal/data/memory"
	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/engine"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected fault")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(store engine.Store, cache engine.IdempotencyCache, metrics engine.MetricsRecorder) *engine.LedgerEngine {
	logger := discardLogger()
	outboxManager := engine.NewOutboxManager(logger)
	return engine.NewLedgerEngine(
		store,
		engine.NewOperationValidator(logger),
		engine.NewIdempotencyChecker(store, cache, logger),
		engine.NewAccountManager(logger),
		outboxManager,
		engine.NewFailureRecorder(store, outboxManager, logger),
		metrics,
		logger,
	)
}

func openAccount(t *testing.T, store engine.Store, balance string) *account.Account {
	t.Helper()
	clientID := int64(1)
	acc, err := account.NewAccount(account.OpenParams{
		Type:           account.TypeChecking,
		ClientID:       &clientID,
		InitialDeposit: money.MustParse(balance),
	})
	require.NoError(t, err)
	require.NoError(t, store.Accounts().Create(context.Background(), acc))
	return acc
}

func balanceOf(t *testing.T, store engine.Store, accountNumber string) string {
	t.Helper()
	acc, err := store.Accounts().GetByNumber(context.Background(), accountNumber)
	require.NoError(t, err)
	return acc.Balance.String()
}

func historyOf(t *testing.T, store engine.Store, accountNumber string) []*transaction.Transaction {
	t.Helper()
	txns, err := store.Transactions().ListByAccount(context.Background(), accountNumber, 100, 0)
	require.NoError(t, err)
	return txns
}

// faultyStore wraps the memory store and fails chosen writes
type faultyStore struct {
	*memory.Store

	failSaveOn     int32 // 1-based Save call that fails, 0 disables
	failComplete   bool
	failMarkFailed bool
	beforeComplete func()

	saves int32
}

func newFaultyStore() *faultyStore {
	return &faultyStore{Store: memory.NewStore()}
}

func (f *faultyStore) RunInUnit(ctx context.Context, fn func(ctx context.Context, uow engine.UnitOfWork) error) error {
	return f.Store.RunInUnit(ctx, func(ctx context.Context, uow engine.UnitOfWork) error {
		return fn(ctx, &faultyUnit{UnitOfWork: uow, store: f})
	})
}

type faultyUnit struct {
	engine.UnitOfWork
	store *faultyStore
}

func (u *faultyUnit) Accounts() account.Repository {
	return &faultyAccounts{Repository: u.UnitOfWork.Accounts(), store: u.store}
}

func (u *faultyUnit) Transactions() transaction.Repository {
	return &faultyTransactions{Repository: u.UnitOfWork.Transactions(), store: u.store}
}

type faultyAccounts struct {
	account.Repository
	store *faultyStore
}

func (a *faultyAccounts) Save(ctx context.Context, acc *account.Account) error {
	if n := atomic.AddInt32(&a.store.saves, 1); n == a.store.failSaveOn {
		return errInjected
	}
	return a.Repository.Save(ctx, acc)
}

type faultyTransactions struct {
	transaction.Repository
	store *faultyStore
}

func (t *faultyTransactions) UpdateStatus(ctx context.Context, txn *transaction.Transaction) error {
	switch txn.Status {
	case transaction.StatusCompleted:
		if t.store.beforeComplete != nil {
			t.store.beforeComplete()
		}
		if t.store.failComplete {
			return errInjected
		}
	case transaction.StatusFailed:
		if t.store.failMarkFailed {
			return errInjected
		}
	}
	return t.Repository.UpdateStatus(ctx, txn)
}

type observation struct {
	typ     transaction.Type
	outcome engine.Outcome
	amount  string
}

type recordingMetrics struct {
	mu           sync.Mutex
	observations []observation
	reaped       int
}

func (m *recordingMetrics) ObserveOperation(typ transaction.Type, outcome engine.Outcome, amount money.Amount, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations = append(m.observations, observation{typ: typ, outcome: outcome, amount: amount.String()})
}

func (m *recordingMetrics) ObserveReaped(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reaped += count
}

func (m *recordingMetrics) last() observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observations[len(m.observations)-1]
}

// mapCache is an in-process IdempotencyCache
type mapCache struct {
	mu      sync.Mutex
	results map[string]engine.Result
	hits    int
}

func newMapCache() *mapCache {
	return &mapCache{results: make(map[string]engine.Result)}
}

func (c *mapCache) Get(_ context.Context, key string) (*engine.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[key]
	if !ok {
		return nil, nil
	}
	c.hits++
	return &r, nil
}

func (c *mapCache) Set(_ context.Context, key string, result *engine.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[key] = *result
	return nil
}
