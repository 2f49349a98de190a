package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/domain/outbox"
	"github.com/finance-ledger/internal/domain/shared"
	"github.com/finance-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const outboxColumns = `id, transaction_id, event_type, payload, status, attempts, created_at, last_attempt_at`

// OutboxRepository implements the outbox.Repository interface for PostgreSQL
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewOutboxRepository creates a new PostgreSQL outbox repository
func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) *OutboxRepository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to tx so the message commits with the status change it announces
func (r *OutboxRepository) WithTx(tx pgx.Tx) *OutboxRepository {
	return &OutboxRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create queues the event inside the caller's unit of work. The unique index on
// transaction_id keeps a transaction to a single event.
func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	err := r.querier.QueryRow(ctx, `
		INSERT INTO outbox_messages (transaction_id, event_type, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		message.TransactionID,
		message.EventType,
		[]byte(message.Payload),
		string(message.Status),
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)
	if err == nil {
		return nil
	}

	if _, ok := persistence.UniqueViolation(err); ok {
		return outbox.ErrDuplicateMessage{TransactionID: message.TransactionID}
	}
	r.logger.Error("Failed to queue transaction event", "transaction_id", message.TransactionID, "error", err)
	return fmt.Errorf("failed to create outbox message: %w", err)
}

// GetPending returns the relay's next batch in commit order
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	rows, err := r.querier.Query(ctx, `SELECT `+outboxColumns+`
		FROM outbox_messages
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2`,
		string(shared.OutboxStatusPending), limit,
	)
	if err != nil {
		r.logger.Error("Failed to load pending events", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*outbox.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over outbox messages: %w", err)
	}

	return messages, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return r.touch(ctx, id, "update outbox message status",
		`UPDATE outbox_messages SET status = $2, last_attempt_at = $3 WHERE id = $1`,
		string(status), time.Now().UTC())
}

func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	return r.touch(ctx, id, "increment outbox message attempts",
		`UPDATE outbox_messages SET attempts = attempts + 1, last_attempt_at = $2 WHERE id = $1`,
		time.Now().UTC())
}

// touch runs a statement addressed to one message by id; $1 is always the id
func (r *OutboxRepository) touch(ctx context.Context, id int64, op, query string, args ...any) error {
	result, err := r.querier.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		r.logger.Error("Failed to "+op, "id", id, "error", err)
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

// GetByTransactionID retrieves the event recorded for a transaction
func (r *OutboxRepository) GetByTransactionID(ctx context.Context, transactionID string) (*outbox.Message, error) {
	query := `SELECT ` + outboxColumns + `
		FROM outbox_messages
		WHERE transaction_id = $1
	`

	message, err := scanMessage(r.querier.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, outbox.ErrMessageNotFound{}
		}
		r.logger.Error("Failed to get outbox message by transaction ID",
			"transaction_id", transactionID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get outbox message by transaction ID: %w", err)
	}

	return message, nil
}

func scanMessage(row scanner) (*outbox.Message, error) {
	var (
		message outbox.Message
		payload []byte
		status  string
	)
	err := row.Scan(
		&message.ID,
		&message.TransactionID,
		&message.EventType,
		&payload,
		&status,
		&message.Attempts,
		&message.CreatedAt,
		&message.LastAttemptAt,
	)
	if err != nil {
		return nil, err
	}
	message.Payload = payload
	message.Status = shared.OutboxStatus(status)
	return &message, nil
}
