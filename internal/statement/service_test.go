package statement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/finance-ledger/internal/config"
	"github.com/finance-ledger/internal/data/memory"
	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/shared"
	feed "github.com/finance-ledger/internal/domain/statement"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Upsert(ctx context.Context, entry *feed.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockActivityRepo) GetByAccount(ctx context.Context, accountNumber string, limit, offset int) ([]*feed.Entry, error) {
	args := m.Called(ctx, accountNumber, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*feed.Entry), args.Error(1)
}

func (m *MockActivityRepo) CountByAccount(ctx context.Context, accountNumber string) (int64, error) {
	args := m.Called(ctx, accountNumber)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockActivityRepo) GetByTransactionID(ctx context.Context, transactionID string) ([]*feed.Entry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*feed.Entry), args.Error(1)
}

type fixture struct {
	store   *memory.Store
	ledger  engine.Ledger
	service *Service
}

func newFixture(t *testing.T, activity feed.Repository) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	cfg := &config.Config{
		WorkerPool: config.WorkerPoolConfig{Size: 2},
		Ledger:     config.LedgerConfig{OperationTimeout: 5 * time.Second},
	}
	return &fixture{
		store:   store,
		ledger:  engine.CreateLedger(store, nil, nil, cfg, logger),
		service: NewService(store.Accounts(), store.Transactions(), activity, logger),
	}
}

func (f *fixture) open(t *testing.T, balance string) string {
	t.Helper()
	owner := int64(1)
	acc, err := account.NewAccount(account.OpenParams{
		Type:           account.TypeChecking,
		ClientID:       &owner,
		InitialDeposit: money.MustParse(balance),
	})
	require.NoError(t, err)
	require.NoError(t, f.store.Accounts().Create(context.Background(), acc))
	return acc.AccountNumber
}

func (f *fixture) deposit(t *testing.T, number, amount string) *engine.Result {
	t.Helper()
	res, err := f.ledger.Deposit(context.Background(), engine.DepositCommand{AccountNumber: number, Amount: money.MustParse(amount)})
	require.NoError(t, err)
	return res
}

func TestService_GetTransaction(t *testing.T) {
	f := newFixture(t, nil)
	number := f.open(t, "0.00")
	res := f.deposit(t, number, "25.00")

	txn, err := f.service.GetTransaction(context.Background(), res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCompleted, txn.Status)
	assert.Equal(t, "25.00", txn.Amount.String())

	_, err = f.service.GetTransaction(context.Background(), "TX00000000000000000000")
	assert.ErrorIs(t, err, transaction.ErrTransactionNotFound{})

	_, err = f.service.GetTransaction(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, transaction.ErrTransactionNotFound{})
}

func TestService_ListAccountTransactions(t *testing.T) {
	f := newFixture(t, nil)
	number := f.open(t, "0.00")
	for _, amount := range []string{"1.00", "2.00", "3.00"} {
		f.deposit(t, number, amount)
	}

	t.Run("Pagination", func(t *testing.T) {
		page1, total, err := f.service.ListAccountTransactions(context.Background(), number, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, page1, 2)

		page2, _, err := f.service.ListAccountTransactions(context.Background(), number, 2, 2)
		require.NoError(t, err)
		assert.Len(t, page2, 1)
		assert.NotEqual(t, page1[0].TransactionID, page2[0].TransactionID)
	})

	t.Run("InvalidPage", func(t *testing.T) {
		_, _, err := f.service.ListAccountTransactions(context.Background(), number, 0, 10)
		assert.ErrorIs(t, err, ErrInvalidPage)

		_, _, err = f.service.ListAccountTransactions(context.Background(), number, math.MaxInt/2, MaxPerPage)
		assert.ErrorIs(t, err, ErrInvalidPage, "offset would overflow")
	})

	t.Run("LastAllowedPage", func(t *testing.T) {
		items, total, err := f.service.ListAccountTransactions(context.Background(), number, MaxPage, MaxPerPage)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Equal(t, int64(3), total)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		_, _, err := f.service.ListAccountTransactions(context.Background(), "9999999999", 1, 10)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{})
	})
}

func TestService_GenerateStatement(t *testing.T) {
	f := newFixture(t, nil)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return fixed }

	number := f.open(t, "100.00")
	from := time.Now().UTC().Add(-time.Minute)
	f.deposit(t, number, "50.00")
	f.deposit(t, number, "25.00")
	to := time.Now().UTC().Add(time.Minute)

	t.Run("IncludesRangeOldestFirst", func(t *testing.T) {
		stmt, err := f.service.GenerateStatement(context.Background(), number, from, to)
		require.NoError(t, err)

		assert.Equal(t, number, stmt.AccountNumber)
		assert.Equal(t, account.TypeChecking, stmt.AccountType)
		assert.Equal(t, "175.00", stmt.CurrentBalance.String())
		assert.Equal(t, fixed, stmt.GeneratedAt)
		require.Len(t, stmt.Transactions, 2)
		assert.Equal(t, "50.00", stmt.Transactions[0].Amount.String())
		assert.Equal(t, "25.00", stmt.Transactions[1].Amount.String())
	})

	t.Run("EmptyRange", func(t *testing.T) {
		stmt, err := f.service.GenerateStatement(context.Background(), number, to.Add(time.Hour), to.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, stmt.Transactions)
	})

	t.Run("InvalidRange", func(t *testing.T) {
		_, err := f.service.GenerateStatement(context.Background(), number, to, from)
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		_, err := f.service.GenerateStatement(context.Background(), "9999999999", from, to)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{})
	})
}

func TestService_ListActivity(t *testing.T) {
	t.Run("ReadsProjection", func(t *testing.T) {
		repo := &MockActivityRepo{}
		entries := []*feed.Entry{{TransactionID: "TX1", AccountNumber: "1000000001", Direction: shared.EntryDirectionCredit}}
		repo.On("GetByAccount", mock.Anything, "1000000001", 20, 20).Return(entries, nil).Once()
		repo.On("CountByAccount", mock.Anything, "1000000001").Return(int64(21), nil).Once()

		got, total, err := newFixture(t, repo).service.ListActivity(context.Background(), "1000000001", 2, 20)

		require.NoError(t, err)
		assert.Equal(t, entries, got)
		assert.Equal(t, int64(21), total)
		repo.AssertExpectations(t)
	})

	t.Run("PerPageIsCapped", func(t *testing.T) {
		repo := &MockActivityRepo{}
		repo.On("GetByAccount", mock.Anything, "1000000001", MaxPerPage, 0).Return([]*feed.Entry{}, nil).Once()
		repo.On("CountByAccount", mock.Anything, "1000000001").Return(int64(0), nil).Once()

		_, _, err := newFixture(t, repo).service.ListActivity(context.Background(), "1000000001", 1, 1000)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("PageBeyondLimit", func(t *testing.T) {
		repo := &MockActivityRepo{}

		_, _, err := newFixture(t, repo).service.ListActivity(context.Background(), "1000000001", MaxPage+1, 10)
		assert.ErrorIs(t, err, ErrInvalidPage)
		repo.AssertNotCalled(t, "GetByAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("StoreError", func(t *testing.T) {
		repo := &MockActivityRepo{}
		storeErr := errors.New("mongo down")
		repo.On("GetByAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, storeErr).Once()

		_, _, err := newFixture(t, repo).service.ListActivity(context.Background(), "1000000001", 1, 10)
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("Unavailable", func(t *testing.T) {
		_, _, err := newFixture(t, nil).service.ListActivity(context.Background(), "1000000001", 1, 10)
		assert.ErrorIs(t, err, ErrActivityUnavailable)
	})
}
