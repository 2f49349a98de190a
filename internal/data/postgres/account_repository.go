// Package postgres provides PostgreSQL implementations of the domain repositories
// and the unit of work used by the ledger engine.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/owner"
	"github.com/finance-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// maxNumberAttempts bounds regeneration of colliding external identifiers
const maxNumberAttempts = 5

// Numeric columns are read back as text and parsed into money.Amount
const accountColumns = `id, account_number, type, balance::text, available_limit::text, status, client_id, merchant_id, version, created_at, updated_at`

// scanner is satisfied by pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier    persistence.Querier // Can be the pool or pgx.Tx
	logger     *slog.Logger
	generateID func() string
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) *AccountRepository {
	return &AccountRepository{
		querier:    db.Pool(),
		logger:     logger,
		generateID: account.GenerateAccountNumber,
	}
}

// WithTx returns a repository bound to tx. Locks taken through it last until tx ends.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	return &AccountRepository{
		querier:    tx,
		logger:     r.logger,
		generateID: r.generateID,
	}
}

// Create stores a new account, drawing account numbers until one is free
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (account_number, type, balance, available_limit, status, client_id, merchant_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (account_number) DO NOTHING
		RETURNING id
	`

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		number := r.generateID()
		err := r.querier.QueryRow(ctx, query,
			number,
			string(acc.Type),
			acc.Balance.String(),
			amountArg(acc.AvailableLimit),
			string(acc.Status),
			acc.ClientID,
			acc.MerchantID,
			acc.Version,
			acc.CreatedAt,
			acc.UpdatedAt,
		).Scan(&acc.ID)
		if err == nil {
			acc.AccountNumber = number
			return nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Account number collision, regenerating", "account_number", number, "attempt", attempt)
			continue
		}
		if _, ok := persistence.ForeignKeyViolation(err); ok {
			kind, id := acc.Owner()
			return owner.ErrOwnerNotFound{Kind: kind, ID: id}
		}
		r.logger.Error("Failed to create account", "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return fmt.Errorf("failed to create account: %w", account.ErrDuplicateAccountNumber{})
}

// GetByID retrieves an account by its internal id
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{ID: id}
		}
		r.logger.Error("Failed to get account", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetByNumber retrieves an account by its external account number without locking
func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = $1
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountNumber: accountNumber}
		}
		r.logger.Error("Failed to get account by number", "account_number", accountNumber, "error", err)
		return nil, fmt.Errorf("failed to get account by number: %w", err)
	}

	return acc, nil
}

// ListByOwner returns the accounts held by one client or merchant, oldest first
func (r *AccountRepository) ListByOwner(ctx context.Context, kind account.OwnerKind, ownerID int64) ([]*account.Account, error) {
	column := "client_id"
	if kind == account.OwnerMerchant {
		column = "merchant_id"
	}
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE ` + column + ` = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to list accounts by owner", "owner_kind", string(kind), "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to list accounts by owner: %w", err)
	}
	defer rows.Close()

	accounts := make([]*account.Account, 0)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}

	return accounts, nil
}

// GetForUpdate locks the account row for the rest of the enclosing transaction.
// FOR NO KEY UPDATE still lets other transactions insert rows referencing the account.
func (r *AccountRepository) GetForUpdate(ctx context.Context, accountNumber string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = $1
		FOR NO KEY UPDATE
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountNumber: accountNumber}
		}
		r.logger.Error("Failed to lock account for update", "account_number", accountNumber, "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}

	return acc, nil
}

// Save writes balance, limit and status back, guarded by the version read with the account
func (r *AccountRepository) Save(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET balance = $1, available_limit = $2, status = $3, version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6
	`

	result, err := r.querier.Exec(ctx, query,
		acc.Balance.String(),
		amountArg(acc.AvailableLimit),
		string(acc.Status),
		acc.UpdatedAt,
		acc.ID,
		acc.Version,
	)
	if err != nil {
		r.logger.Error("Failed to save account", "account_number", acc.AccountNumber, "error", err)
		return fmt.Errorf("failed to save account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountNumber: acc.AccountNumber}
	}

	acc.Version++
	return nil
}

func scanAccount(row scanner) (*account.Account, error) {
	var (
		acc                  account.Account
		typ, status, balance string
		availableLimit       *string
	)
	err := row.Scan(
		&acc.ID,
		&acc.AccountNumber,
		&typ,
		&balance,
		&availableLimit,
		&status,
		&acc.ClientID,
		&acc.MerchantID,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	acc.Type = account.Type(typ)
	acc.Status = account.Status(status)
	if acc.Balance, err = money.Parse(balance); err != nil {
		return nil, fmt.Errorf("invalid balance for account %s: %w", acc.AccountNumber, err)
	}
	if availableLimit != nil {
		limit, err := money.Parse(*availableLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid available limit for account %s: %w", acc.AccountNumber, err)
		}
		acc.AvailableLimit = &limit
	}

	return &acc, nil
}

// amountArg renders an optional amount as a NUMERIC parameter
func amountArg(a *money.Amount) *string {
	if a == nil {
		return nil
	}
	s := a.String()
	return &s
}
