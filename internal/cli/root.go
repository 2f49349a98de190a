// Package cli implements ledgerctl, the operator tool for schema migrations, owner
// registration and account administration.
package cli

import (
	"context"

	"github.com/finance-ledger/internal/ledger_api/service"
	"github.com/finance-ledger/internal/platform/persistence"
	"github.com/spf13/cobra"
)

// Migrator applies and reverts the Postgres schema
type Migrator interface {
	Up() error
	Down(steps int) error
	Status() (persistence.MigrationStatus, error)
}

// Backend is what the commands operate on. Close releases its connections.
type Backend struct {
	Migrator Migrator
	Accounts service.AccountService
	Owners   service.OwnerService
	Close    func()
}

// BackendFactory connects to the backend. needAccounts is false for commands that
// only touch the schema, so no connection pool is opened for them.
type BackendFactory func(ctx context.Context, needAccounts bool) (*Backend, error)

// NewRootCommand builds the ledgerctl command tree
func NewRootCommand(connect BackendFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the finance ledger",
		Long:          `ledgerctl applies database migrations, registers clients and merchants and administers ledger accounts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCommand(connect))
	root.AddCommand(newAccountCommand(connect))
	root.AddCommand(newClientCommand(connect), newMerchantCommand(connect))
	return root
}

// withBackend connects, runs fn and always releases the backend
func withBackend(cmd *cobra.Command, connect BackendFactory, needAccounts bool, fn func(b *Backend) error) error {
	backend, err := connect(cmd.Context(), needAccounts)
	if err != nil {
		return err
	}
	if backend.Close != nil {
		defer backend.Close()
	}
	return fn(backend)
}
