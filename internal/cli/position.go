package cli

import (
	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperledger/engine"
)

func newPositionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Open or close a position",
	}
	cmd.AddCommand(newPositionOpenCmd(opts), newPositionCloseCmd(opts))
	return cmd
}

func newPositionOpenCmd(opts *rootOptions) *cobra.Command {
	var req engine.UpdatePositionRequest

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a position, debiting cash",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			req.Action = engine.ActionOpen
			resp, err := eng.UpdatePosition(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&req.Symbol, "symbol", "", "Instrument symbol")
	cmd.Flags().StringVar(&req.Token, "token", "", "Instrument token")
	cmd.Flags().Int64Var(&req.Quantity, "quantity", 0, "Quantity")
	cmd.Flags().Float64Var(&req.EntryPrice, "entry", 0, "Entry price")
	cmd.Flags().Float64Var(&req.StopLoss, "stop", 0, "Stop-loss price")
	cmd.Flags().StringVar(&req.TradeID, "trade-id", "", "Journal trade ID to link")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("quantity")
	cmd.MarkFlagRequired("entry")
	return cmd
}

func newPositionCloseCmd(opts *rootOptions) *cobra.Command {
	var req engine.UpdatePositionRequest

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close the symbol's open position, crediting cash",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			req.Action = engine.ActionClose
			resp, err := eng.UpdatePosition(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&req.Symbol, "symbol", "", "Instrument symbol")
	cmd.Flags().Float64Var(&req.ExitPrice, "exit", 0, "Exit price")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("exit")
	return cmd
}
