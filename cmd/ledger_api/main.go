package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/finance-ledger/internal/config"
	"github.com/finance-ledger/internal/data/mongo"
	"github.com/finance-ledger/internal/data/postgres"
	redisdata "github.com/finance-ledger/internal/data/redis"
	"github.com/finance-ledger/internal/engine"
	"github.com/finance-ledger/internal/ledger_api"
	"github.com/finance-ledger/internal/ledger_api/service"
	"github.com/finance-ledger/internal/logger"
	"github.com/finance-ledger/internal/outbox_relay"
	"github.com/finance-ledger/internal/platform/messaging/producers"
	"github.com/finance-ledger/internal/platform/metrics"
	"github.com/finance-ledger/internal/platform/persistence"
	"github.com/finance-ledger/internal/statement"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("ledger_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	if cfg.Postgres.MigrationsPath != "" {
		if err := persistence.NewMigrator(&cfg.Postgres).Up(); err != nil {
			log.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
		log.Info("Database migrations applied", "path", cfg.Postgres.MigrationsPath)
	}

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Idempotency results are cached in Redis when enabled; the transactions table stays
	// the source of truth either way
	var cache engine.IdempotencyCache
	var closeRedis func() error
	if cfg.Redis.Enabled {
		redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
		if err != nil {
			log.Error("Failed to initialize Redis", "error", err)
			os.Exit(1)
		}
		cache = redisdata.NewIdempotencyCache(log, redisClient, cfg.Redis.IdempotencyTTL)
		closeRedis = redisClient.Close
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	eventProducer, err := producers.NewTransactionEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize transaction event producer", "error", err)
		os.Exit(1)
	}

	// Initialize stores and repositories
	store := postgres.NewStore(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	statementRepo := mongo.NewStatementRepository(log, mongoDB.Database())

	// Initialize the engine and its background workers
	ledger := engine.CreateLedger(store, cache, ledgerMetrics, cfg, log)
	reaper := engine.NewReaper(&cfg.Ledger, store, engine.NewOutboxManager(log), ledgerMetrics, log.With("component", "reaper"))
	poller := outbox_relay.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		outbox_relay.NewEventDispatcher(outboxRepo, eventProducer, log),
		ledgerMetrics,
		log.With("component", "outbox_relay"),
	)

	// Initialize services
	services := ledger_api.Services{
		Accounts:     service.NewAccountService(log, store, store.Owners()),
		Transactions: service.NewTransactionService(log, ledger),
		Statements:   statement.NewService(store.Accounts(), store.Transactions(), statementRepo, log),
		Owners:       service.NewOwnerService(log, store.Owners()),
	}

	server, err := ledger_api.NewServer(log, cfg, services, registry)
	if err != nil {
		log.Error("Failed to initialize REST server", "error", err)
		os.Exit(1)
	}

	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	wg.Add(2)
	go func() {
		defer wg.Done()
		log.Info("Starting outbox relay",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()
	go func() {
		defer wg.Done()
		log.Info("Starting pending transaction reaper",
			"interval", cfg.Ledger.ReaperInterval.String(),
			"stale_after", cfg.Ledger.StalePendingAfter.String(),
		)
		reaper.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop taking requests first, then drain the engine, then the background workers
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if pool, ok := ledger.(*engine.WorkerPoolEngine); ok {
		log.Info("Shutting down worker pool", "running_workers", pool.Running())
		if err := pool.Shutdown(cfg.Server.ShutdownTimeout); err != nil {
			log.Error("Error shutting down worker pool", "error", err)
		}
	}

	cancelAppCtx()

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()
	select {
	case <-wgChan:
		log.Info("Background workers stopped")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if err := eventProducer.Close(); err != nil {
		log.Error("Error closing transaction event producer", "error", err)
	}

	if closeRedis != nil {
		if err := closeRedis(); err != nil {
			log.Error("Error closing Redis client", "error", err)
		}
	}

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("Ledger API shutdown completed with errors", "error", serverErr)
		os.Exit(1)
	}
	log.Info("Ledger API shutdown completed successfully")
}
