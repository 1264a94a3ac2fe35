package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped by the build via -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "paperledger %s\n", Version)
		},
	}
}
