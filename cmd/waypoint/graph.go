package main

import (
	"fmt"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/aretw0/waypoint/internal/presentation/graph"
	"github.com/aretw0/waypoint/pkg/graphdoc"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Export the routing graph",
	Long: `Prints the graph as a Mermaid flowchart (default), JSON or YAML document.
Without a file argument the configured graph is exported. --session highlights
the route a stored session has taken.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		sessionID, _ := cmd.Flags().GetString("session")

		var doc *graphdoc.Document
		var overlay *graph.GraphOverlay
		if len(args) == 1 {
			loaded, err := cli.LoadDocument(args[0])
			if err != nil {
				return err
			}
			doc = loaded
		} else {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			doc = graphdoc.Export(app.Graph, graphdoc.Metadata{Title: "waypoint"})

			if sessionID != "" {
				s, err := app.Engine.Session(cmd.Context(), sessionID)
				if err != nil {
					return fmt.Errorf("session %s: %w", sessionID, err)
				}
				overlay = &graph.GraphOverlay{VisitedNodes: s.History, CurrentNode: s.Node}
			}
		}

		out := cmd.OutOrStdout()
		switch format {
		case "mermaid":
			fmt.Fprint(out, graph.GenerateMermaid(doc, overlay))
		case "json":
			data, err := doc.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		case "yaml":
			data, err := doc.YAML()
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))
		default:
			return fmt.Errorf("unknown format %q (want mermaid, json or yaml)", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid, json or yaml")
	graphCmd.Flags().String("session", "", "Highlight the route of this session")
}
