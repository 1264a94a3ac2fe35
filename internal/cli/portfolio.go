package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperledger/engine"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	var capital float64

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the portfolio with starting capital",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			resp, err := eng.InitializePortfolio(cmd.Context(), engine.InitializePortfolioRequest{
				StartingCapital: capital,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
	cmd.Flags().Float64Var(&capital, "capital", 100000, "Starting capital")
	return cmd
}

func newStateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show cash, open positions and today's figures",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			state, err := eng.GetPortfolioState(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), state)
		},
	}
}

func newPnLCmd(opts *rootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "pnl",
		Short: "Show a day's realized P&L against the loss budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			rep, err := eng.GetDailyPnL(cmd.Context(), date)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default today)")
	return cmd
}

func newMetricsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show the risk dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			m, err := eng.GetRiskMetrics(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m)
		},
	}
}
