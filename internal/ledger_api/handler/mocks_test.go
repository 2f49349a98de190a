package handler

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/owner"
	feed "github.com/finance-ledger/internal/domain/statement"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/engine"
	"github.com/finance-ledger/internal/ledger_api/service"
	"github.com/finance-ledger/internal/statement"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Open(ctx context.Context, input service.OpenAccountInput) (*account.Account, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) ListByOwner(ctx context.Context, kind account.OwnerKind, ownerID int64) ([]*account.Account, error) {
	args := m.Called(ctx, kind, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountService) ChangeStatus(ctx context.Context, accountNumber string, status account.Status) (*account.Account, error) {
	args := m.Called(ctx, accountNumber, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Deposit(ctx context.Context, cmd engine.DepositCommand) (*engine.Result, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.Result), args.Error(1)
}

func (m *MockTransactionService) Withdraw(ctx context.Context, cmd engine.WithdrawCommand) (*engine.Result, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.Result), args.Error(1)
}

func (m *MockTransactionService) Transfer(ctx context.Context, cmd engine.TransferCommand) (*engine.Result, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.Result), args.Error(1)
}

type MockStatementService struct {
	mock.Mock
}

func (m *MockStatementService) GetTransaction(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockStatementService) ListAccountTransactions(ctx context.Context, accountNumber string, page, perPage int) ([]*transaction.Transaction, int64, error) {
	args := m.Called(ctx, accountNumber, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*transaction.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockStatementService) GenerateStatement(ctx context.Context, accountNumber string, from, to time.Time) (*statement.Statement, error) {
	args := m.Called(ctx, accountNumber, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statement.Statement), args.Error(1)
}

func (m *MockStatementService) ListActivity(ctx context.Context, accountNumber string, page, perPage int) ([]*feed.Entry, int64, error) {
	args := m.Called(ctx, accountNumber, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*feed.Entry), args.Get(1).(int64), args.Error(2)
}

type MockOwnerService struct {
	mock.Mock
}

func (m *MockOwnerService) CreateClient(ctx context.Context, details owner.ClientDetails) (*owner.Client, error) {
	args := m.Called(ctx, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*owner.Client), args.Error(1)
}

func (m *MockOwnerService) GetClient(ctx context.Context, id int64) (*owner.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*owner.Client), args.Error(1)
}

func (m *MockOwnerService) ListClients(ctx context.Context) ([]*owner.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*owner.Client), args.Error(1)
}

func (m *MockOwnerService) UpdateClient(ctx context.Context, id int64, details owner.ClientDetails) (*owner.Client, error) {
	args := m.Called(ctx, id, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*owner.Client), args.Error(1)
}

func (m *MockOwnerService) DeleteClient(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOwnerService) CreateMerchant(ctx context.Context, details owner.MerchantDetails) (*owner.Merchant, error) {
	args := m.Called(ctx, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*owner.Merchant), args.Error(1)
}

func (m *MockOwnerService) GetMerchant(ctx context.Context, id int64) (*owner.Merchant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*owner.Merchant), args.Error(1)
}

func (m *MockOwnerService) ListMerchants(ctx context.Context) ([]*owner.Merchant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*owner.Merchant), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	return gin.New()
}
