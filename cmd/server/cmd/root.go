/*
root.go - Command tree for the cashflow binary

PURPOSE:
  Loads configuration once for every subcommand and sets up slog.

COMMANDS:
  serve      Run the HTTP API (default deployment)
  upcoming   Print an owner's open events as a table
  sweep      Materialize horizons and mark overdue events, then exit
  migrate    Apply schema migrations and print the version

CONFIGURATION:
  See config/config.go. --env-file points at a .env file; CASHFLOW_*
  environment variables override everything else.

SEE ALSO:
  - config/config.go: Settings and defaults
  - serve.go: Server startup and graceful shutdown
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/cashflow-engine/config"
	"github.com/warp/cashflow-engine/generic"
	"github.com/warp/cashflow-engine/store/sqlite"
)

var (
	envFile string
	debug   bool

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cashflow",
	Short: "Recurring income and bill scheduler",
	Long: `cashflow keeps a rolling window of expected income and bills for each
owner, flips missed ones to overdue, and records confirmed ones in a ledger.

Example:
  cashflow serve
  cashflow upcoming --owner demo-salaried --limit 10`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if debug {
			loaded.Log.Level = "debug"
		}
		cfg = loaded
		logger = cfg.Log.Logger(os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default is ./.env when present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(upcomingCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(migrateCmd)
}

// openEngine opens the configured database and builds the engine over it.
func openEngine() (*sqlite.Store, *generic.Engine, error) {
	slog.Debug("opening database", "path", cfg.Database.Path)
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	engine := generic.NewEngine(store, cfg.Scheduler.Clock(), logger, cfg.Scheduler.Horizons())
	engine.Scheduler.DefaultLimit = cfg.Scheduler.ListLimit
	return store, engine, nil
}
