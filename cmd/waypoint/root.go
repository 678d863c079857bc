package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/aretw0/waypoint/internal/config"
	"github.com/aretw0/waypoint/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "waypoint",
	Short: "Waypoint routes conversational turns through a guarded action graph",
	Long: `Waypoint checks each user message for safety, classifies its intent and
dispatches it to the matching action before waiting for the next message.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		applyFlags(cmd, &loaded)
		if err := loaded.Validate(); err != nil {
			return err
		}

		level, _ := logging.ParseLevel(loaded.LogLevel)
		cfg = loaded
		logger = logging.New(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Path to a YAML config file")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("store", "", "Session store: memory or redis")
	flags.String("redis-addr", "", "Redis address (redis store only)")
	flags.String("graph", "", "Graph document to bind instead of the built-in assistant")
	flags.Int("max-steps", 0, "Maximum steps per turn (0 keeps the configured value)")
}

// applyFlags lets explicitly set flags override file and environment.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("store") {
		c.Store.Driver, _ = flags.GetString("store")
	}
	if flags.Changed("redis-addr") {
		c.Redis.Addr, _ = flags.GetString("redis-addr")
	}
	if flags.Changed("graph") {
		c.Router.Graph, _ = flags.GetString("graph")
	}
	if flags.Changed("max-steps") {
		c.Router.MaxSteps, _ = flags.GetInt("max-steps")
	}
}

// newApp builds the application for the current command.
func newApp(cmd *cobra.Command, opts ...cli.AppOption) (*cli.App, error) {
	return cli.NewApp(cmd.Context(), cfg, logger, opts...)
}
