// Package statement_projector builds the per-account activity feed in MongoDB from
// terminal transaction events.
package statement_projector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finance-ledger/internal/domain/shared"
	"github.com/finance-ledger/internal/domain/statement"
)

// Projector applies one decoded event to the read model
type Projector interface {
	Project(ctx context.Context, event *shared.TransactionEvent) error
}

// ErrUnprojectable marks events that can never be applied, however often they are retried
type ErrUnprojectable struct {
	TransactionID string
	Err           error
}

func (e ErrUnprojectable) Error() string {
	return fmt.Sprintf("event for transaction %q cannot be projected: %v", e.TransactionID, e.Err)
}

func (e ErrUnprojectable) Unwrap() error { return e.Err }

// Is implements the errors.Is interface for ErrUnprojectable
func (e ErrUnprojectable) Is(target error) bool {
	_, ok := target.(ErrUnprojectable)
	return ok
}

// StatementProjector upserts one statement entry per affected account
type StatementProjector struct {
	repo   statement.Repository
	logger *slog.Logger
}

var _ Projector = (*StatementProjector)(nil)

func NewStatementProjector(repo statement.Repository, logger *slog.Logger) *StatementProjector {
	return &StatementProjector{repo: repo, logger: logger}
}

// Project is idempotent: entries are keyed by (transaction id, account number), so a
// redelivered event overwrites what it wrote the first time.
func (p *StatementProjector) Project(ctx context.Context, event *shared.TransactionEvent) error {
	entries, err := statement.EntriesFromEvent(event)
	if err != nil {
		return ErrUnprojectable{TransactionID: event.TransactionID, Err: err}
	}

	for _, entry := range entries {
		if err := p.repo.Upsert(ctx, entry); err != nil {
			return fmt.Errorf("failed to project %s entry for account %s: %w", entry.Direction, entry.AccountNumber, err)
		}
	}

	p.logger.Debug("Projected transaction event",
		"transaction_id", event.TransactionID,
		"status", event.Status,
		"entries", len(entries),
	)
	return nil
}
