package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openrange/elkhorn/cmd/elkhorn/commands"
	"github.com/openrange/elkhorn/logger"
)

var (
	verboseFlag int
	jsonFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "elkhorn",
	Short: "Elkhorn - conservation analytics ETL pipeline",
	Long: `Elkhorn - batch ETL for conservation and fundraising analytics.

Elkhorn reads donor, campaign, and donation tables, habitat and project
documents, and financial filing dumps, conforms them into a star schema,
validates and flags them, and loads a SQLite analytics store.

Available commands:
  run      - Execute a full pipeline run and emit the run report
  extract  - Run filing extraction alone and dump the raw fields
  db       - Manage the analytics store
  config   - Manage configuration
  version  - Show build information

Examples:
  elkhorn run                       # Full pipeline run
  elkhorn run --json --report r.json
  elkhorn extract 'data/raw/filings/*.txt'
  elkhorn db stats                  # Row counts per table
  elkhorn config init               # Write a default elkhorn.toml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(jsonFlag, verboseFlag); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v",
		"Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false,
		"Emit machine-readable JSON output")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.ExtractCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	// Cancellation lands between entity boundaries; an in-flight entity
	// transaction rolls back and completed loads stay.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
