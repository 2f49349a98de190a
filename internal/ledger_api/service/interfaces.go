// Package service adapts the ledger engine and the read-side façade to the HTTP API.
package service

import (
	"context"
	"time"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/owner"
	feed "github.com/finance-ledger/internal/domain/statement"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/engine"
	"github.com/finance-ledger/internal/statement"
)

// OpenAccountInput carries everything needed to open an account
type OpenAccountInput struct {
	Type           account.Type
	ClientID       *int64
	MerchantID     *int64
	InitialDeposit money.Amount
	AvailableLimit *money.Amount
}

// AccountService defines account administration
type AccountService interface {
	// Open creates an ACTIVE account. Returns ErrInvalidOwner unless exactly one owner is
	// set and ErrOwnerNotFound when that owner is not registered.
	Open(ctx context.Context, input OpenAccountInput) (*account.Account, error)

	// GetByNumber returns ErrAccountNotFound if the account doesn't exist
	GetByNumber(ctx context.Context, accountNumber string) (*account.Account, error)

	ListByOwner(ctx context.Context, kind account.OwnerKind, ownerID int64) ([]*account.Account, error)

	// ChangeStatus locks the account and sets its status. It never moves money.
	ChangeStatus(ctx context.Context, accountNumber string, status account.Status) (*account.Account, error)
}

// OwnerService defines the client and merchant registry
type OwnerService interface {
	CreateClient(ctx context.Context, details owner.ClientDetails) (*owner.Client, error)
	GetClient(ctx context.Context, id int64) (*owner.Client, error)
	ListClients(ctx context.Context) ([]*owner.Client, error)
	UpdateClient(ctx context.Context, id int64, details owner.ClientDetails) (*owner.Client, error)
	// DeleteClient returns ErrOwnerHasAccounts while the client holds any account
	DeleteClient(ctx context.Context, id int64) error

	CreateMerchant(ctx context.Context, details owner.MerchantDetails) (*owner.Merchant, error)
	GetMerchant(ctx context.Context, id int64) (*owner.Merchant, error)
	ListMerchants(ctx context.Context) ([]*owner.Merchant, error)
}

// TransactionService defines money movement as seen by the API
type TransactionService interface {
	Deposit(ctx context.Context, cmd engine.DepositCommand) (*engine.Result, error)
	Withdraw(ctx context.Context, cmd engine.WithdrawCommand) (*engine.Result, error)
	Transfer(ctx context.Context, cmd engine.TransferCommand) (*engine.Result, error)
}

// StatementService defines the read-only queries. *statement.Service implements it.
type StatementService interface {
	GetTransaction(ctx context.Context, transactionID string) (*transaction.Transaction, error)
	ListAccountTransactions(ctx context.Context, accountNumber string, page, perPage int) ([]*transaction.Transaction, int64, error)
	GenerateStatement(ctx context.Context, accountNumber string, from, to time.Time) (*statement.Statement, error)
	ListActivity(ctx context.Context, accountNumber string, page, perPage int) ([]*feed.Entry, int64, error)
}

var _ StatementService = (*statement.Service)(nil)
