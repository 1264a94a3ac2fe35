package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperledger/engine"
)

func newAnalysisCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Save, read or prune cached analyses",
	}
	cmd.AddCommand(newAnalysisSaveCmd(opts), newAnalysisGetCmd(opts), newAnalysisPruneCmd(opts))
	return cmd
}

func newAnalysisSaveCmd(opts *rootOptions) *cobra.Command {
	var req engine.SaveAnalysisRequest

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Cache an analysis score with a TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			resp, err := eng.SaveAnalysis(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&req.Symbol, "symbol", "", "Instrument symbol")
	cmd.Flags().StringVar(&req.AnalysisType, "type", "", "TECHNICAL, SENTIMENT or COMBINED")
	cmd.Flags().Float64Var(&req.Score, "score", 0, "Score")
	cmd.Flags().StringVar(&req.Label, "label", "", "Label, e.g. bullish")
	cmd.Flags().StringVar(&req.DetailsJSON, "details", "", "Details as a JSON string")
	cmd.Flags().IntVar(&req.TTLMinutes, "ttl", 0, "TTL in minutes (default 30)")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("type")
	return cmd
}

func newAnalysisGetCmd(opts *rootOptions) *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "get <symbol>",
		Short: "List unexpired cached analyses for a symbol, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			rows, err := eng.GetPreviousAnalysis(cmd.Context(), args[0], typ)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "Filter by analysis type")
	return cmd
}

func newAnalysisPruneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := buildEngine(opts.cfg)
			if err != nil {
				return err
			}
			defer closer()

			pruned, err := eng.PruneAnalyses(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d expired entries\n", pruned)
			return nil
		},
	}
}
