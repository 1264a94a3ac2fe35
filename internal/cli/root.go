// Package cli wires the cobra command tree for the paperledger binary.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperledger/config"
)

type rootOptions struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	JSONLog    bool

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "paperledger",
		Short:         "Paperledger — risk-gated ledger for paper equity trading",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite ledger database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().BoolVar(&opts.JSONLog, "json-log", false, "Emit JSON logs instead of console output")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(opts.LogLevel, opts.JSONLog); err != nil {
			return err
		}

		cfg := config.Default()
		if opts.ConfigPath != "" {
			loaded, err := config.LoadFromFile(opts.ConfigPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if opts.DBPath != "" {
			cfg.Storage.Path = opts.DBPath
		}
		opts.cfg = cfg
		return nil
	}

	cmd.AddCommand(
		newServeCmd(opts),
		newInitCmd(opts),
		newStateCmd(opts),
		newCheckCmd(opts),
		newSizeCmd(opts),
		newTradeCmd(opts),
		newPositionCmd(opts),
		newPnLCmd(opts),
		newMetricsCmd(opts),
		newHistoryCmd(opts),
		newAnalysisCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

func setupLogging(level string, jsonOut bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	if !jsonOut {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
