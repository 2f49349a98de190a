package cli

import (
	"fmt"
	"strings"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/ledger_api/service"
	"github.com/spf13/cobra"
)

func newAccountCommand(connect BackendFactory) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Administer ledger accounts",
	}

	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open an ACTIVE account for a client or a merchant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := openInput(cmd)
			if err != nil {
				return err
			}
			return withBackend(cmd, connect, true, func(b *Backend) error {
				acc, err := b.Accounts.Open(cmd.Context(), input)
				if err != nil {
					return err
				}
				return printAccount(cmd, acc)
			})
		},
	}
	openCmd.Flags().String("type", string(account.TypeChecking), "Account type: CHECKING, SAVINGS, BUSINESS or INVESTMENT")
	openCmd.Flags().Int64("client-id", 0, "Owning client")
	openCmd.Flags().Int64("merchant-id", 0, "Owning merchant")
	openCmd.Flags().String("initial-deposit", "0.00", "Opening balance")
	openCmd.Flags().String("limit", "", "Informational available limit")

	showCmd := &cobra.Command{
		Use:   "show ACCOUNT_NUMBER",
		Short: "Print an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, connect, true, func(b *Backend) error {
				acc, err := b.Accounts.GetByNumber(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printAccount(cmd, acc)
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status ACCOUNT_NUMBER STATUS",
		Short: "Set an account's status (ACTIVE, INACTIVE, BLOCKED or CLOSED)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := account.ParseStatus(strings.ToUpper(args[1]))
			if err != nil {
				return err
			}
			return withBackend(cmd, connect, true, func(b *Backend) error {
				acc, err := b.Accounts.ChangeStatus(cmd.Context(), args[0], status)
				if err != nil {
					return err
				}
				return printAccount(cmd, acc)
			})
		},
	}

	accountCmd.AddCommand(openCmd, showCmd, statusCmd)
	return accountCmd
}

func openInput(cmd *cobra.Command) (service.OpenAccountInput, error) {
	var input service.OpenAccountInput

	rawType, _ := cmd.Flags().GetString("type")
	typ, err := account.ParseType(strings.ToUpper(rawType))
	if err != nil {
		return input, err
	}
	input.Type = typ

	if cmd.Flags().Changed("client-id") {
		id, _ := cmd.Flags().GetInt64("client-id")
		input.ClientID = &id
	}
	if cmd.Flags().Changed("merchant-id") {
		id, _ := cmd.Flags().GetInt64("merchant-id")
		input.MerchantID = &id
	}

	rawDeposit, _ := cmd.Flags().GetString("initial-deposit")
	if input.InitialDeposit, err = money.Parse(rawDeposit); err != nil {
		return input, fmt.Errorf("invalid --initial-deposit: %w", err)
	}

	if rawLimit, _ := cmd.Flags().GetString("limit"); rawLimit != "" {
		limit, err := money.Parse(rawLimit)
		if err != nil {
			return input, fmt.Errorf("invalid --limit: %w", err)
		}
		input.AvailableLimit = &limit
	}

	return input, nil
}

func printAccount(cmd *cobra.Command, acc *account.Account) error {
	return printJSON(cmd, acc)
}
