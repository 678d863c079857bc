package main

import (
	"fmt"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/aretw0/waypoint/pkg/graphdoc"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a graph document for consistency",
	Long: `Checks the document structure, then binds it against the assistant handlers
and builds the router, reporting unknown handlers, dangling edges, shadowed
transitions and unreachable nodes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := cli.LoadDocument(args[0])
		if err != nil {
			return err
		}
		if err := graphdoc.Validate(doc); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		c, err := cli.Collaborators(cfg, logger, nil)
		if err != nil {
			return err
		}
		check := cfg
		check.Router.Graph = args[0]
		if _, err := cli.BuildGraph(check, c); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Graph is valid! %d nodes, %d edges.\n", len(doc.Nodes), len(doc.Edges))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
