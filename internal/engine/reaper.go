package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/config"
	"github.com/finance-ledger/internal/domain/shared"
)

// Reaper fails PENDING records whose operation died before finishing, for example when
// the process crashed between writing the record and committing the balance change.
// An operation that is still running and later tries to complete a reaped record loses
// its conditional update and rolls back, so balances never disagree with the records.
type Reaper struct {
	store         Store
	outboxManager OutboxManager
	metrics       MetricsRecorder
	logger        *slog.Logger
	interval      time.Duration
	staleAfter    time.Duration
	batchSize     int
	now           func() time.Time
}

func NewReaper(
	cfg *config.LedgerConfig,
	store Store,
	outboxManager OutboxManager,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *Reaper {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Reaper{
		store:         store,
		outboxManager: outboxManager,
		metrics:       metrics,
		logger:        logger,
		interval:      cfg.ReaperInterval,
		staleAfter:    cfg.StalePendingAfter,
		batchSize:     cfg.ReaperBatchSize,
		now:           time.Now,
	}
}

// Start reaps on every tick until ctx is canceled
func (r *Reaper) Start(ctx context.Context) {
	r.logger.Info("Starting stale transaction reaper",
		"interval", r.interval.String(),
		"stale_after", r.staleAfter.String(),
		"batch_size", r.batchSize,
	)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stale transaction reaper stopping due to context cancellation.")
			return
		case <-ticker.C:
			if _, err := r.ReapOnce(ctx); err != nil {
				r.logger.Error("Error while reaping stale transactions", "error", err)
			}
		}
	}
}

// ReapOnce fails one batch of stale PENDING records and returns how many were failed
func (r *Reaper) ReapOnce(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.staleAfter).UTC()
	reaped := 0

	err := r.store.RunInUnit(ctx, func(ctx context.Context, uow UnitOfWork) error {
		reaped = 0
		stale, err := uow.Transactions().ListStalePending(ctx, cutoff, r.batchSize)
		if err != nil {
			return err
		}

		for _, txn := range stale {
			if err := txn.Fail(string(shared.FailureReasonAbandoned), r.now()); err != nil {
				return err
			}
			if err := uow.Transactions().UpdateStatus(ctx, txn); err != nil {
				return err
			}
			if err := r.outboxManager.CreateOutboxEntry(ctx, uow.Outbox(), txn); err != nil {
				return err
			}
			r.logger.Warn("Abandoned transaction marked failed",
				"transaction_id", txn.TransactionID,
				"created_at", txn.CreatedAt,
			)
			reaped++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reap stale transactions: %w", err)
	}

	if reaped > 0 {
		r.logger.Info("Reaped stale transactions", "count", reaped)
		r.metrics.ObserveReaped(reaped)
	}
	return reaped, nil
}
