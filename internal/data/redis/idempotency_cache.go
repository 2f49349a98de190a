// Package redis caches completed ledger results in Redis so that replays of an
// idempotency key skip the transaction store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/engine"
	goredis "github.com/go-redis/redis/v8"
)

const keyPrefix = "ledger:idempotency:"

// IdempotencyCache implements engine.IdempotencyCache
type IdempotencyCache struct {
	client goredis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

var _ engine.IdempotencyCache = (*IdempotencyCache)(nil)

func NewIdempotencyCache(logger *slog.Logger, client goredis.Cmdable, ttl time.Duration) *IdempotencyCache {
	return &IdempotencyCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached result for key, or nil on a miss
func (c *IdempotencyCache) Get(ctx context.Context, key string) (*engine.Result, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read idempotency key %s: %w", key, err)
	}

	var result engine.Result
	if err := json.Unmarshal(data, &result); err != nil {
		// A corrupt entry is treated as a miss; the store is authoritative
		c.logger.Warn("Discarding unreadable idempotency entry", "idempotency_key", key, "error", err)
		return nil, nil
	}

	return &result, nil
}

// Set stores result under key for the configured TTL
func (c *IdempotencyCache) Set(ctx context.Context, key string, result *engine.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result for idempotency key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, keyPrefix+key, string(data), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency key %s: %w", key, err)
	}

	return nil
}
