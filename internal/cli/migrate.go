package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(connect BackendFactory) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, connect, false, func(b *Backend) error {
				if err := b.Migrator.Up(); err != nil {
					return err
				}
				return printStatus(cmd, b)
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps <= 0 {
				return fmt.Errorf("--steps must be greater than 0")
			}
			return withBackend(cmd, connect, false, func(b *Backend) error {
				if err := b.Migrator.Down(steps); err != nil {
					return err
				}
				return printStatus(cmd, b)
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to revert")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, connect, false, func(b *Backend) error {
				return printStatus(cmd, b)
			})
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, statusCmd)
	return migrateCmd
}

func printStatus(cmd *cobra.Command, b *Backend) error {
	status, err := b.Migrator.Status()
	if err != nil {
		return err
	}
	if status.Version == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "schema version: none")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d", status.Version)
	if status.Dirty {
		fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
