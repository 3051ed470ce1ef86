package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openrange/elkhorn/config"
	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/logger"
	"github.com/openrange/elkhorn/pipeline"
)

// RunCmd executes a full pipeline run.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a full pipeline run",
	Long: `Execute a full ETL run: read every configured source, conform,
validate, detect anomalies, and load the analytics store, then emit the
run report.

The command exits non-zero when the run is degraded or failed, so it can
gate downstream jobs.

Examples:
  elkhorn run
  elkhorn run --json                   # Report as JSON on stdout
  elkhorn run --report out/report.json # Also persist the report
  elkhorn run --timeout 300            # Per-entity timeout in seconds`,
	RunE: runPipeline,
}

var (
	reportPathFlag string
	timeoutFlag    int
)

func init() {
	RunCmd.Flags().StringVar(&reportPathFlag, "report", "", "Write the run report to this path")
	RunCmd.Flags().IntVar(&timeoutFlag, "timeout", 0, "Per-entity timeout in seconds (overrides configuration)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if timeoutFlag > 0 {
		cfg.Run.EntityTimeoutSeconds = timeoutFlag
	}

	report, err := pipeline.NewRunner(cfg).Run(cmd.Context())
	if err != nil {
		return err
	}

	if reportPathFlag != "" {
		if err := report.Write(reportPathFlag); err != nil {
			return err
		}
	}

	if logger.JSONOutput {
		out, err := report.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	} else {
		printReport(cmd, report)
	}

	if !report.Healthy() {
		return errors.Newf("pipeline run %s", report.Status)
	}
	return nil
}

func printReport(cmd *cobra.Command, report *pipeline.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s in %dms\n", report.RunID, report.Status, report.ElapsedMS)
	fmt.Fprintf(out, "%-22s %6s %6s %6s %6s %6s  %s\n",
		"entity", "read", "conf", "rej", "load", "skip", "error")
	for _, e := range report.Entities {
		fmt.Fprintf(out, "%-22s %6d %6d %6d %6d %6d  %s\n",
			e.Entity, e.Read, e.Conformed, e.Rejected, e.Loaded, e.Skipped, e.Err)
		for rule, n := range e.Anomalies {
			fmt.Fprintf(out, "  anomaly %s: %d\n", rule, n)
		}
	}
	fmt.Fprintf(out, "Memory: %d MB RSS\n", report.Memory.RSSMB)
}
