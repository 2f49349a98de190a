package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/logger"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolEngine bounds the number of operations running at once. Each operation can
// hold two database connections (the locking unit and the PENDING insert), so the pool
// size must stay at or below half the connection pool.
type WorkerPoolEngine struct {
	base   Ledger
	pool   *ants.Pool
	logger *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

type outcome struct {
	result *Result
	err    error
}

func NewWorkerPoolEngine(base Ledger, config WorkerPoolConfig, logger *slog.Logger) (*WorkerPoolEngine, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolEngine{
		base:   base,
		pool:   pool,
		logger: logger,
	}, nil
}

func (w *WorkerPoolEngine) Deposit(ctx context.Context, cmd DepositCommand) (*Result, error) {
	return w.submit(ctx, "deposit", func() (*Result, error) { return w.base.Deposit(ctx, cmd) })
}

func (w *WorkerPoolEngine) Withdraw(ctx context.Context, cmd WithdrawCommand) (*Result, error) {
	return w.submit(ctx, "withdraw", func() (*Result, error) { return w.base.Withdraw(ctx, cmd) })
}

func (w *WorkerPoolEngine) Transfer(ctx context.Context, cmd TransferCommand) (*Result, error) {
	return w.submit(ctx, "transfer", func() (*Result, error) { return w.base.Transfer(ctx, cmd) })
}

// submit runs fn on a pool worker and waits for it. Submit blocks while every worker is
// busy. Once fn is running the caller waits for it to finish, so an operation is never
// abandoned halfway by its submitter.
func (w *WorkerPoolEngine) submit(ctx context.Context, op string, fn func() (*Result, error)) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resultChan := make(chan outcome, 1)
	err := w.pool.Submit(func() {
		result, err := fn()
		resultChan <- outcome{result: result, err: err}
	})
	if err != nil {
		logger.FromContext(ctx, w.logger).Error("Failed to submit operation to worker pool", "operation", op, "error", err)
		return nil, err
	}

	res := <-resultChan
	return res.result, res.err
}

// Shutdown releases the pool, waiting up to timeout for running operations
func (w *WorkerPoolEngine) Shutdown(timeout time.Duration) error {
	w.logger.Info("Shutting down worker pool", "running_workers", w.pool.Running())
	return w.pool.ReleaseTimeout(timeout)
}

// Running returns the number of running workers in the pool.
func (w *WorkerPoolEngine) Running() int {
	return w.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (w *WorkerPoolEngine) Capacity() int {
	return w.pool.Cap()
}
