package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/finance-ledger/internal/cli"
	"github.com/finance-ledger/internal/config"
	"github.com/finance-ledger/internal/data/postgres"
	"github.com/finance-ledger/internal/ledger_api/service"
	"github.com/finance-ledger/internal/logger"
	"github.com/finance-ledger/internal/platform/persistence"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig("ledgerctl")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg)

	connect := func(ctx context.Context, needAccounts bool) (*cli.Backend, error) {
		backend := &cli.Backend{Migrator: persistence.NewMigrator(&cfg.Postgres)}
		if !needAccounts {
			return backend, nil
		}

		db, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		store := postgres.NewStore(log, db)
		backend.Accounts = service.NewAccountService(log, store, store.Owners())
		backend.Owners = service.NewOwnerService(log, store.Owners())
		backend.Close = db.Close
		return backend, nil
	}

	if err := cli.NewRootCommand(connect).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
