package cli

import (
	"encoding/json"

	"github.com/finance-ledger/internal/domain/owner"
	"github.com/spf13/cobra"
)

func newClientCommand(connect BackendFactory) *cobra.Command {
	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Register clients that accounts can be opened for",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			details := owner.ClientDetails{}
			details.Name, _ = flags.GetString("name")
			details.Email, _ = flags.GetString("email")
			details.DocumentNumber, _ = flags.GetString("document")
			details.Phone, _ = flags.GetString("phone")
			details.Address, _ = flags.GetString("address")

			return withBackend(cmd, connect, true, func(b *Backend) error {
				client, err := b.Owners.CreateClient(cmd.Context(), details)
				if err != nil {
					return err
				}
				return printJSON(cmd, client)
			})
		},
	}
	createCmd.Flags().String("name", "", "Full name")
	createCmd.Flags().String("email", "", "Contact email, unique across clients")
	createCmd.Flags().String("document", "", "Identity document number, unique across clients")
	createCmd.Flags().String("phone", "", "Contact phone")
	createCmd.Flags().String("address", "", "Postal address")

	clientCmd.AddCommand(createCmd)
	return clientCmd
}

func newMerchantCommand(connect BackendFactory) *cobra.Command {
	merchantCmd := &cobra.Command{
		Use:   "merchant",
		Short: "Register merchants that accounts can be opened for",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a merchant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			details := owner.MerchantDetails{}
			details.BusinessName, _ = flags.GetString("business-name")
			details.TradingName, _ = flags.GetString("trading-name")
			details.Email, _ = flags.GetString("email")
			details.NIF, _ = flags.GetString("nif")
			details.Phone, _ = flags.GetString("phone")
			details.Address, _ = flags.GetString("address")
			details.MerchantCategoryCode, _ = flags.GetString("mcc")

			return withBackend(cmd, connect, true, func(b *Backend) error {
				merchant, err := b.Owners.CreateMerchant(cmd.Context(), details)
				if err != nil {
					return err
				}
				return printJSON(cmd, merchant)
			})
		},
	}
	createCmd.Flags().String("business-name", "", "Registered business name")
	createCmd.Flags().String("trading-name", "", "Name the business trades under")
	createCmd.Flags().String("email", "", "Contact email, unique across merchants")
	createCmd.Flags().String("nif", "", "Tax number, unique across merchants")
	createCmd.Flags().String("phone", "", "Contact phone")
	createCmd.Flags().String("address", "", "Postal address")
	createCmd.Flags().String("mcc", "", "Four digit merchant category code")

	merchantCmd.AddCommand(createCmd)
	return merchantCmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
