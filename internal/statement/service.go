// Package statement answers read-side questions about accounts: transaction history,
// date-range statements and the projected activity feed.
package statement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/money"
	feed "github.com/finance-ledger/internal/domain/statement"
	"github.com/finance-ledger/internal/domain/transaction"
)

var (
	ErrInvalidDateRange    = errors.New("statement start date must not be after end date")
	ErrInvalidPage         = errors.New("page must be between 1 and 10000000 and per_page positive")
	ErrActivityUnavailable = errors.New("activity feed is not configured")
)

// MaxPerPage caps one page of history
const MaxPerPage = 100

// MaxPage keeps the row offset inside 32 bits for every per_page value
const MaxPage = 10_000_000

// Statement is an account's balance and history over a date range
type Statement struct {
	AccountNumber  string                     `json:"account_number"`
	AccountType    account.Type               `json:"account_type"`
	CurrentBalance money.Amount               `json:"current_balance"`
	StartDate      time.Time                  `json:"start_date"`
	EndDate        time.Time                  `json:"end_date"`
	GeneratedAt    time.Time                  `json:"generated_at"`
	Transactions   []*transaction.Transaction `json:"transactions"`
}

// Service is the read-only query façade over the ledger
type Service struct {
	accounts     account.Repository
	transactions transaction.Repository
	activity     feed.Repository // nil when the projection store is not configured
	logger       *slog.Logger
	now          func() time.Time
}

// NewService creates the façade. activity may be nil.
func NewService(accounts account.Repository, transactions transaction.Repository, activity feed.Repository, logger *slog.Logger) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		activity:     activity,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GetTransaction returns one record by its external id
func (s *Service) GetTransaction(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	if !transaction.ValidateTransactionID(transactionID) {
		return nil, transaction.ErrTransactionNotFound{TransactionID: transactionID}
	}
	return s.transactions.GetByTransactionID(ctx, transactionID)
}

// ListAccountTransactions returns one page of history, newest first, and the total count
func (s *Service) ListAccountTransactions(ctx context.Context, accountNumber string, page, perPage int) ([]*transaction.Transaction, int64, error) {
	limit, offset, err := pageBounds(page, perPage)
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.accounts.GetByNumber(ctx, accountNumber); err != nil {
		return nil, 0, err
	}

	txns, err := s.transactions.ListByAccount(ctx, accountNumber, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	total, err := s.transactions.CountByAccount(ctx, accountNumber)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return txns, total, nil
}

// GenerateStatement lists records created within [from, to], oldest first, together with
// the account's current balance
func (s *Service) GenerateStatement(ctx context.Context, accountNumber string, from, to time.Time) (*Statement, error) {
	if from.After(to) {
		return nil, ErrInvalidDateRange
	}

	acc, err := s.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	txns, err := s.transactions.ListByAccountAndRange(ctx, accountNumber, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for statement: %w", err)
	}

	s.logger.Info("Generated account statement",
		"account_number", accountNumber,
		"from", from,
		"to", to,
		"transactions", len(txns),
	)

	return &Statement{
		AccountNumber:  acc.AccountNumber,
		AccountType:    acc.Type,
		CurrentBalance: acc.Balance,
		StartDate:      from,
		EndDate:        to,
		GeneratedAt:    s.now(),
		Transactions:   txns,
	}, nil
}

// ListActivity reads the projected activity feed. The feed is eventually consistent
// with the ledger.
func (s *Service) ListActivity(ctx context.Context, accountNumber string, page, perPage int) ([]*feed.Entry, int64, error) {
	if s.activity == nil {
		return nil, 0, ErrActivityUnavailable
	}
	limit, offset, err := pageBounds(page, perPage)
	if err != nil {
		return nil, 0, err
	}

	entries, err := s.activity.GetByAccount(ctx, accountNumber, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activity: %w", err)
	}
	total, err := s.activity.CountByAccount(ctx, accountNumber)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count activity: %w", err)
	}

	return entries, total, nil
}

func pageBounds(page, perPage int) (limit, offset int, err error) {
	if page < 1 || page > MaxPage || perPage < 1 {
		return 0, 0, ErrInvalidPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return perPage, (page - 1) * perPage, nil
}
