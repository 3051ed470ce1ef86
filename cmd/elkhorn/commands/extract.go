package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openrange/elkhorn/config"
	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/ingest"
	"github.com/openrange/elkhorn/logger"
)

// ExtractCmd runs filing extraction alone, without conforming or loading.
// Useful for eyeballing what the label heuristics pull out of a new filing
// year before wiring it into a run.
var ExtractCmd = &cobra.Command{
	Use:   "extract [glob]",
	Short: "Extract filing fields without loading",
	Long: `Run the filing reader against a glob of filing documents and dump
the extracted fields as JSON. Defaults to the configured filings source.

Examples:
  elkhorn extract
  elkhorn extract 'data/raw/filings/*.txt'
  elkhorn extract --out extracted.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

var extractOutFlag string

func init() {
	ExtractCmd.Flags().StringVar(&extractOutFlag, "out", "", "Write extracted JSON to this path instead of stdout")
}

func runExtract(cmd *cobra.Command, args []string) error {
	locator := ""
	if len(args) == 1 {
		locator = args[0]
	} else {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		locator = cfg.Sources.Filings
	}

	reader := &ingest.FilingReader{Logger: logger.Logger}
	records, stats, err := reader.Read(cmd.Context(), locator)
	if err != nil {
		return err
	}

	type extracted struct {
		Source string         `json:"source"`
		Fields map[string]any `json:"fields"`
	}
	out := make([]extracted, 0, len(records))
	for _, rec := range records {
		out = append(out, extracted{Source: rec.Source, Fields: rec.Fields})
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling extracted filings")
	}

	if extractOutFlag != "" {
		if err := os.WriteFile(extractOutFlag, append(b, '\n'), 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", extractOutFlag)
		}
		logger.Infow("Extraction written", "path", extractOutFlag, "filings", stats.Read, "skipped", stats.Skipped)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
