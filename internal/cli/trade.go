package cli

import (
	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperledger/engine"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var req engine.CheckRiskLimitsRequest

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the risk gate over a proposed trade",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			res, err := eng.CheckRiskLimits(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&req.Symbol, "symbol", "", "Instrument symbol")
	cmd.Flags().Int64Var(&req.Quantity, "quantity", 0, "Proposed quantity")
	cmd.Flags().Float64Var(&req.EntryPrice, "entry", 0, "Entry price")
	cmd.Flags().Float64Var(&req.StopLoss, "stop", 0, "Stop-loss price")
	cmd.Flags().StringVar(&req.TransactionType, "type", "BUY", "BUY or SELL")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("quantity")
	cmd.MarkFlagRequired("entry")
	return cmd
}

func newSizeCmd(opts *rootOptions) *cobra.Command {
	var (
		entry, stop float64
		confidence  string
	)

	cmd := &cobra.Command{
		Use:   "size",
		Short: "Compute a position size for an entry and stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			sizing, err := eng.CalculatePositionSize(cmd.Context(), entry, stop, confidence)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sizing)
		},
	}
	cmd.Flags().Float64Var(&entry, "entry", 0, "Entry price")
	cmd.Flags().Float64Var(&stop, "stop", 0, "Stop-loss price")
	cmd.Flags().StringVar(&confidence, "confidence", "MODERATE", "HIGH, MODERATE or LOW")
	cmd.MarkFlagRequired("entry")
	cmd.MarkFlagRequired("stop")
	return cmd
}

func newTradeCmd(opts *rootOptions) *cobra.Command {
	var req engine.LogTradeRequest

	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Append a trade to the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			resp, err := eng.LogTrade(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&req.Symbol, "symbol", "", "Instrument symbol")
	cmd.Flags().StringVar(&req.Token, "token", "", "Instrument token")
	cmd.Flags().StringVar(&req.TransactionType, "type", "", "BUY or SELL")
	cmd.Flags().Int64Var(&req.Quantity, "quantity", 0, "Quantity")
	cmd.Flags().Float64Var(&req.Price, "price", 0, "Fill price")
	cmd.Flags().Float64Var(&req.StopLoss, "stop", 0, "Stop-loss price")
	cmd.Flags().StringVar(&req.Confidence, "confidence", "", "HIGH, MODERATE or LOW")
	cmd.Flags().StringVar(&req.Reasoning, "reasoning", "", "Free-form rationale")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("quantity")
	cmd.MarkFlagRequired("price")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		req engine.TradeHistoryRequest
		csv bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the trade journal, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			if csv {
				return eng.ExportTradeHistoryCSV(cmd.Context(), cmd.OutOrStdout(), req)
			}
			rows, err := eng.GetTradeHistory(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVar(&req.Symbol, "symbol", "", "Filter by symbol")
	cmd.Flags().StringVar(&req.TransactionType, "type", "", "Filter by BUY or SELL")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "Max rows (default 20)")
	cmd.Flags().BoolVar(&csv, "csv", false, "Emit CSV instead of JSON")
	return cmd
}
