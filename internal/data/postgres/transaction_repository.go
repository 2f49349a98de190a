package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const idempotencyKeyIndex = "transactions_idempotency_key_live_idx"

const transactionColumns = `id, transaction_id, amount::text, type, description, status, source_account_number, destination_account_number, idempotency_key, failure_reason, created_at, updated_at, processed_at`

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier    persistence.Querier
	logger     *slog.Logger
	generateID func() string
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) *TransactionRepository {
	return &TransactionRepository{
		querier:    db.Pool(),
		logger:     logger,
		generateID: transaction.GenerateTransactionID,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *TransactionRepository) WithTx(tx pgx.Tx) *TransactionRepository {
	return &TransactionRepository{
		querier:    tx,
		logger:     r.logger,
		generateID: r.generateID,
	}
}

// Create inserts a PENDING record. Colliding transaction ids are regenerated; a live
// record already holding the idempotency key yields ErrDuplicateIdempotencyKey.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (transaction_id, amount, type, description, status, source_account_number, destination_account_number, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (transaction_id) DO NOTHING
		RETURNING id
	`

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		id := r.generateID()
		err := r.querier.QueryRow(ctx, query,
			id,
			txn.Amount.String(),
			string(txn.Type),
			txn.Description,
			string(txn.Status),
			nullable(txn.SourceAccountNumber),
			nullable(txn.DestinationAccountNumber),
			nullable(txn.IdempotencyKey),
			txn.CreatedAt,
			txn.UpdatedAt,
		).Scan(&txn.ID)
		if err == nil {
			txn.TransactionID = id
			return nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Transaction id collision, regenerating", "transaction_id", id, "attempt", attempt)
			continue
		}
		if constraint, ok := persistence.UniqueViolation(err); ok && constraint == idempotencyKeyIndex {
			return transaction.ErrDuplicateIdempotencyKey{Key: txn.IdempotencyKey}
		}
		r.logger.Error("Failed to create transaction", "type", string(txn.Type), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return fmt.Errorf("failed to create transaction: exhausted %d transaction id attempts", maxNumberAttempts)
}

// UpdateStatus writes the terminal status of a record that is still PENDING
func (r *TransactionRepository) UpdateStatus(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $1, failure_reason = $2, processed_at = $3, updated_at = $4
		WHERE transaction_id = $5 AND status = 'PENDING'
	`

	result, err := r.querier.Exec(ctx, query,
		string(txn.Status),
		txn.FailureReason,
		txn.ProcessedAt,
		txn.UpdatedAt,
		txn.TransactionID,
	)
	if err != nil {
		r.logger.Error("Failed to update transaction status",
			"transaction_id", txn.TransactionID,
			"status", string(txn.Status),
			"error", err,
		)
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotPending{TransactionID: txn.TransactionID}
	}

	return nil
}

// GetByTransactionID retrieves a record by its external id
func (r *TransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_id = $1
	`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get transaction", "transaction_id", transactionID, "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// GetByIdempotencyKey returns the live record holding key, or nil when there is none
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE idempotency_key = $1 AND status <> 'FAILED'
		ORDER BY created_at DESC
		LIMIT 1
	`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by idempotency key", "idempotency_key", key, "error", err)
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}

	return txn, nil
}

// ListByAccount returns one page of an account's history, newest first
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountNumber string, limit, offset int) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE source_account_number = $1 OR destination_account_number = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	return r.list(ctx, "list transactions by account", query, accountNumber, limit, offset)
}

// CountByAccount counts every record touching the account
func (r *TransactionRepository) CountByAccount(ctx context.Context, accountNumber string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE source_account_number = $1 OR destination_account_number = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, accountNumber).Scan(&count); err != nil {
		r.logger.Error("Failed to count transactions", "account_number", accountNumber, "error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

// ListByAccountAndRange returns records created within [from, to], oldest first
func (r *TransactionRepository) ListByAccountAndRange(ctx context.Context, accountNumber string, from, to time.Time) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (source_account_number = $1 OR destination_account_number = $1)
		  AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC, id ASC
	`

	return r.list(ctx, "list transactions by range", query, accountNumber, from, to)
}

// ListStalePending selects abandoned PENDING records. Rows locked by another reaper are skipped.
func (r *TransactionRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = 'PENDING' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`

	return r.list(ctx, "list stale pending transactions", query, olderThan, limit)
}

func (r *TransactionRepository) list(ctx context.Context, op, query string, args ...any) ([]*transaction.Transaction, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	txns := make([]*transaction.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction", "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return txns, nil
}

func scanTransaction(row scanner) (*transaction.Transaction, error) {
	var (
		txn                              transaction.Transaction
		amount, typ, status              string
		source, destination, idempotency *string
	)
	err := row.Scan(
		&txn.ID,
		&txn.TransactionID,
		&amount,
		&typ,
		&txn.Description,
		&status,
		&source,
		&destination,
		&idempotency,
		&txn.FailureReason,
		&txn.CreatedAt,
		&txn.UpdatedAt,
		&txn.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	if txn.Amount, err = money.Parse(amount); err != nil {
		return nil, fmt.Errorf("invalid amount for transaction %s: %w", txn.TransactionID, err)
	}
	txn.Type = transaction.Type(typ)
	txn.Status = transaction.Status(status)
	txn.SourceAccountNumber = deref(source)
	txn.DestinationAccountNumber = deref(destination)
	txn.IdempotencyKey = deref(idempotency)

	return &txn, nil
}

// nullable maps the empty string to SQL NULL
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
