package main

import (
	"github.com/aretw0/waypoint/internal/cli"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Run messages from stdin through the graph and print every transition",
	Long: `Drives the router directly, without sessions or persistence. Each line of
stdin is one message; the guard that selected each transition is printed next
to it. Useful to check a graph document before serving it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunTrace(cmd.Context(), cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
}
