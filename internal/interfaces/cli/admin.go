package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newAdminCmd(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operator commands (admin token required)",
	}

	var (
		grantAccount string
		grantAmount  int64
		grantReason  string
		grantKey     string
	)
	grantCmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant tokens to an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)
			err := client.call(cmd.Context(), http.MethodPost, "/api/v1/admin/credits/grant", map[string]any{
				"account_id":      grantAccount,
				"amount":          grantAmount,
				"reason":          grantReason,
				"idempotency_key": grantKey,
			}, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted %d tokens to %s\n", grantAmount, grantAccount)
			return nil
		},
	}
	grantCmd.Flags().StringVar(&grantAccount, "account", "", "account id (required)")
	grantCmd.Flags().Int64Var(&grantAmount, "amount", 0, "tokens to grant (required)")
	grantCmd.Flags().StringVar(&grantReason, "reason", "manual grant", "ledger reason")
	grantCmd.Flags().StringVar(&grantKey, "key", "", "idempotency key (required)")
	grantCmd.MarkFlagRequired("account")
	grantCmd.MarkFlagRequired("amount")
	grantCmd.MarkFlagRequired("key")

	cancelCmd := &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel any account's job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)
			if err := client.call(cmd.Context(), http.MethodPost, "/api/v1/admin/jobs/"+args[0]+"/cancel", nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cancellation requested")
			return nil
		},
	}

	cmd.AddCommand(grantCmd, cancelCmd)
	return cmd
}
