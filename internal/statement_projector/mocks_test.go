package statement_projector

import (
	"context"
	"io"
	"log/slog"

	"github.com/finance-ledger/internal/domain/shared"
	"github.com/finance-ledger/internal/domain/statement"
	"github.com/stretchr/testify/mock"
)

type MockStatementRepo struct {
	mock.Mock
}

func (m *MockStatementRepo) Upsert(ctx context.Context, entry *statement.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStatementRepo) GetByAccount(ctx context.Context, accountNumber string, limit, offset int) ([]*statement.Entry, error) {
	args := m.Called(ctx, accountNumber, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*statement.Entry), args.Error(1)
}

func (m *MockStatementRepo) CountByAccount(ctx context.Context, accountNumber string) (int64, error) {
	args := m.Called(ctx, accountNumber)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatementRepo) GetByTransactionID(ctx context.Context, transactionID string) ([]*statement.Entry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*statement.Entry), args.Error(1)
}

type MockProjector struct {
	mock.Mock
}

func (m *MockProjector) Project(ctx context.Context, event *shared.TransactionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockDLQProducer struct {
	mock.Mock
}

func (m *MockDLQProducer) PublishToDLQ(ctx context.Context, transactionID string, value []byte, reason string) error {
	args := m.Called(ctx, transactionID, value, reason)
	return args.Error(0)
}

func (m *MockDLQProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
