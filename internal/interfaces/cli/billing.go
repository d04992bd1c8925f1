package cli

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

type packView struct {
	ID       string `json:"id"`
	Tokens   int64  `json:"tokens"`
	PriceUSD int64  `json:"price_usd_cents"`
}

type transactionView struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

func newBillingCmd(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Token balance, history, and purchases",
	}

	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the current token balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)
			var out struct {
				AccountID string `json:"account_id"`
				Balance   int64  `json:"balance"`
			}
			if err := client.call(cmd.Context(), http.MethodGet, "/api/v1/billing/balance", nil, &out); err != nil {
				return err
			}
			return printResult(cmd, opts, out, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %d tokens\n", out.AccountID, out.Balance)
			})
		},
	}

	var historyLimit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List ledger transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)
			var out struct {
				Transactions []transactionView `json:"transactions"`
			}
			path := fmt.Sprintf("/api/v1/billing/history?limit=%d", historyLimit)
			if err := client.call(cmd.Context(), http.MethodGet, path, nil, &out); err != nil {
				return err
			}
			return printResult(cmd, opts, out, func(w io.Writer) {
				for _, tx := range out.Transactions {
					fmt.Fprintf(w, "%s  %-7s %6d  %s\n", tx.CreatedAt, tx.Kind, tx.Amount, tx.Reason)
				}
			})
		},
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum transactions to list")

	packsCmd := &cobra.Command{
		Use:   "packs",
		Short: "List purchasable token packs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)
			var out struct {
				Packs []packView `json:"packs"`
			}
			if err := client.call(cmd.Context(), http.MethodGet, "/api/v1/billing/packs", nil, &out); err != nil {
				return err
			}
			return printResult(cmd, opts, out, func(w io.Writer) {
				for _, p := range out.Packs {
					fmt.Fprintf(w, "%-12s %5d tokens  $%d.%02d\n", p.ID, p.Tokens, p.PriceUSD/100, p.PriceUSD%100)
				}
			})
		},
	}

	var buyPack string
	buyCmd := &cobra.Command{
		Use:   "buy",
		Short: "Open a checkout session for a token pack",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)
			var out struct {
				CheckoutURL string `json:"checkout_url"`
			}
			err := client.call(cmd.Context(), http.MethodPost, "/api/v1/billing/checkout",
				map[string]string{"pack_id": buyPack}, &out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "complete the purchase at:\n%s\n", out.CheckoutURL)
			return nil
		},
	}
	buyCmd.Flags().StringVar(&buyPack, "pack", "", "pack id (required)")
	buyCmd.MarkFlagRequired("pack")

	cmd.AddCommand(balanceCmd, historyCmd, packsCmd, buyCmd)
	return cmd
}
