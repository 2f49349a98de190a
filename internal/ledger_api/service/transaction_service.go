package service

import (
	"context"
	"log/slog"

	"github.com/finance-ledger/internal/engine"
	"github.com/finance-ledger/internal/logger"
)

// TransactionServiceImpl implements the TransactionService interface on top of the engine
type TransactionServiceImpl struct {
	ledger engine.Ledger
	logger *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(logger *slog.Logger, ledger engine.Ledger) *TransactionServiceImpl {
	return &TransactionServiceImpl{
		ledger: ledger,
		logger: logger,
	}
}

func (s *TransactionServiceImpl) Deposit(ctx context.Context, cmd engine.DepositCommand) (*engine.Result, error) {
	result, err := s.ledger.Deposit(ctx, cmd)
	s.logOutcome(ctx, "deposit", result, err)
	return result, err
}

func (s *TransactionServiceImpl) Withdraw(ctx context.Context, cmd engine.WithdrawCommand) (*engine.Result, error) {
	result, err := s.ledger.Withdraw(ctx, cmd)
	s.logOutcome(ctx, "withdrawal", result, err)
	return result, err
}

func (s *TransactionServiceImpl) Transfer(ctx context.Context, cmd engine.TransferCommand) (*engine.Result, error) {
	result, err := s.ledger.Transfer(ctx, cmd)
	s.logOutcome(ctx, "transfer", result, err)
	return result, err
}

// logOutcome notes replays; failures are already logged by the engine
func (s *TransactionServiceImpl) logOutcome(ctx context.Context, op string, result *engine.Result, err error) {
	if err != nil || result == nil || !result.Replayed {
		return
	}
	logger.FromContext(ctx, s.logger).Info("Replayed idempotent request",
		"operation", op,
		"transaction_id", result.TransactionID,
	)
}
