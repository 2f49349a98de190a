// Package outbox_relay moves transaction events from the outbox table to Kafka.
package outbox_relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/config"
	"github.com/finance-ledger/internal/domain/outbox"
	"github.com/finance-ledger/internal/domain/shared"
)

// PublishMetrics counts relay outcomes
type PublishMetrics interface {
	ObservePublished()
	ObservePublishFailure(final bool)
}

type nopPublishMetrics struct{}

func (nopPublishMetrics) ObservePublished()          {}
func (nopPublishMetrics) ObservePublishFailure(bool) {}

// Poller relays PENDING outbox rows in creation order, one batch per tick.
// A row that keeps failing is parked as FAILED_TO_PUBLISH after maxAttempts tries.
type Poller struct {
	repo        outbox.Repository
	dispatcher  Dispatcher
	metrics     PublishMetrics
	logger      *slog.Logger
	interval    time.Duration
	batch       int
	maxAttempts int
}

// NewPoller builds a poller; metrics may be nil
func NewPoller(
	cfg *config.OutboxConfig,
	repo outbox.Repository,
	dispatcher Dispatcher,
	metrics PublishMetrics,
	logger *slog.Logger,
) *Poller {
	if metrics == nil {
		metrics = nopPublishMetrics{}
	}
	return &Poller{
		repo:        repo,
		dispatcher:  dispatcher,
		metrics:     metrics,
		logger:      logger,
		interval:    cfg.PollingInterval,
		batch:       cfg.BatchSize,
		maxAttempts: cfg.MaxRetryAttempts,
	}
}

// Start polls until ctx is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Outbox relay started",
		"interval", p.interval.String(),
		"batch", p.batch,
		"max_attempts", p.maxAttempts,
	)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox relay stopped")
			return
		case <-ticker.C:
			if err := p.relayBatch(ctx); err != nil {
				p.logger.Error("Outbox relay batch failed", "error", err)
			}
		}
	}
}

// relayBatch publishes one batch. Per-message failures are recorded, not returned.
func (p *Poller) relayBatch(ctx context.Context) error {
	pending, err := p.repo.GetPending(ctx, p.batch)
	if err != nil {
		return fmt.Errorf("failed to load pending outbox batch: %w", err)
	}
	if len(pending) > 0 {
		p.logger.Debug("Relaying outbox batch", "size", len(pending))
	}

	for _, msg := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.dispatcher.Dispatch(ctx, msg); err != nil {
			p.recordFailure(ctx, msg, err)
			continue
		}
		p.metrics.ObservePublished()
	}
	return nil
}

func (p *Poller) recordFailure(ctx context.Context, msg *outbox.Message, cause error) {
	log := p.logger.With("outbox_id", msg.ID, "transaction_id", msg.TransactionID)
	attempt := msg.Attempts + 1
	log.Error("Outbox publish failed", "attempt", attempt, "error", cause)

	if err := p.repo.IncrementAttempts(ctx, msg.ID); err != nil {
		log.Error("Could not record outbox attempt", "error", err)
		p.metrics.ObservePublishFailure(false)
		return
	}

	exhausted := attempt >= p.maxAttempts
	p.metrics.ObservePublishFailure(exhausted)
	if !exhausted {
		return
	}

	log.Warn("Outbox message exhausted its attempts, parking it", "attempts", attempt)
	if err := p.repo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
		log.Error("Could not park outbox message", "error", err)
	}
}
