package engine

import (
	"log/slog"

	"github.com/finance-ledger/internal/config"
)

// CreateLedger wires the engine components and wraps the engine in a worker pool.
// cache and metrics may be nil. Callers shut the pool down through *WorkerPoolEngine.
func CreateLedger(
	store Store,
	cache IdempotencyCache,
	metrics MetricsRecorder,
	cfg *config.Config,
	logger *slog.Logger,
) Ledger {
	outboxManager := NewOutboxManager(logger)

	base := NewLedgerEngine(
		store,
		NewOperationValidator(logger),
		NewIdempotencyChecker(store, cache, logger),
		NewAccountManager(logger),
		outboxManager,
		NewFailureRecorder(store, outboxManager, logger),
		metrics,
		logger,
	).WithOperationTimeout(cfg.Ledger.OperationTimeout)

	workerPool, err := NewWorkerPoolEngine(
		base,
		WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool engine, falling back to base engine", "error", err)
		return base
	}

	logger.Info("Created worker pool ledger engine", "pool_size", cfg.WorkerPool.Size)
	return workerPool
}
