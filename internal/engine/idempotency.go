package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finance-ledger/internal/domain/transaction"
	"github.com/finance-ledger/internal/logger"
)

// IdempotencyCheckerImpl consults the cache first and the transaction store second
type IdempotencyCheckerImpl struct {
	store  Store
	cache  IdempotencyCache // Optional
	logger *slog.Logger
}

func NewIdempotencyChecker(store Store, cache IdempotencyCache, logger *slog.Logger) *IdempotencyCheckerImpl {
	return &IdempotencyCheckerImpl{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Check returns the original result when the key was already used for the same request.
// FAILED records do not hold their key, so a failed attempt can be retried with it.
func (c *IdempotencyCheckerImpl) Check(ctx context.Context, op Operation) (*Result, error) {
	if op.IdempotencyKey == "" {
		return nil, nil
	}
	log := logger.FromContext(ctx, c.logger)

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, op.IdempotencyKey)
		if err != nil {
			log.Warn("Idempotency cache lookup failed", "idempotency_key", op.IdempotencyKey, "error", err)
		} else if cached != nil {
			if !cached.matches(op) {
				return nil, ErrIdempotencyKeyMismatch
			}
			log.Info("Replaying cached result", "idempotency_key", op.IdempotencyKey, "transaction_id", cached.TransactionID)
			cached.Replayed = true
			return cached, nil
		}
	}

	existing, err := c.store.Transactions().GetByIdempotencyKey(ctx, op.IdempotencyKey)
	if err != nil {
		log.Error("Failed to check idempotency key", "idempotency_key", op.IdempotencyKey, "error", err)
		return nil, fmt.Errorf("%w: idempotency check failed: %w", ErrPersistence, err)
	}
	if existing == nil {
		return nil, nil
	}

	if !existing.SameShape(op.Type, op.Source, op.Destination, op.Amount) {
		log.Warn("Idempotency key reused for a different request",
			"idempotency_key", op.IdempotencyKey,
			"transaction_id", existing.TransactionID,
		)
		return nil, ErrIdempotencyKeyMismatch
	}
	if existing.Status == transaction.StatusPending {
		return nil, ErrRequestInProgress
	}

	log.Info("Replaying stored result", "idempotency_key", op.IdempotencyKey, "transaction_id", existing.TransactionID)
	result := NewResult(existing)
	c.Remember(ctx, op.IdempotencyKey, result)
	result.Replayed = true
	return result, nil
}

// Remember caches a completed result under key
func (c *IdempotencyCheckerImpl) Remember(ctx context.Context, key string, result *Result) {
	if c.cache == nil || key == "" || result == nil {
		return
	}
	if err := c.cache.Set(ctx, key, result); err != nil {
		logger.FromContext(ctx, c.logger).Warn("Failed to cache result", "idempotency_key", key, "error", err)
	}
}
