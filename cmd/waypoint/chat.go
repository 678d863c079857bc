package main

import (
	"os"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant interactively",
	Long: `Reads one message per line from stdin and prints the reply of every turn.
Type 'exit' or 'quit', or press Ctrl+D, to leave. With the redis store a
session can be resumed later by passing the same --session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		jsonMode, _ := cmd.Flags().GetBool("json")
		showPath, _ := cmd.Flags().GetBool("path")

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.RunChat(cmd.Context(), app, cli.ChatOptions{
			SessionID:   sessionID,
			Fresh:       fresh,
			JSON:        jsonMode,
			Interactive: term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())),
			ShowPath:    showPath,
			In:          cmd.InOrStdin(),
			Out:         cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "Session ID to create or resume")
	chatCmd.Flags().Bool("fresh", false, "Delete the session before starting")
	chatCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	chatCmd.Flags().Bool("path", false, "Print the nodes visited by each turn")

	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
