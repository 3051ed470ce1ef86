package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openrange/elkhorn/config"
	"github.com/openrange/elkhorn/db"
	"github.com/openrange/elkhorn/errors"
	"github.com/openrange/elkhorn/logger"
	"github.com/openrange/elkhorn/star"
)

// DbCmd groups analytics store operations.
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the analytics store",
	Long: `Manage the SQLite analytics store.

Examples:
  elkhorn db stats    # Row counts per dimension and fact table`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts per table",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	store, err := db.OpenWithMigrations(cfg.Database.Path, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "failed to open analytics store")
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Store: %s\n", cfg.Database.Path)

	entities := append(append([]star.Entity{}, star.DimensionOrder...), star.EntityDate)
	entities = append(entities, star.FactOrder...)
	for _, entity := range entities {
		var count int
		if err := store.QueryRow("SELECT COUNT(*) FROM " + entity.Table()).Scan(&count); err != nil {
			return errors.Wrapf(err, "counting %s", entity.Table())
		}
		fmt.Fprintf(out, "%-24s %8d\n", entity.Table(), count)
	}

	var flags int
	if err := store.QueryRow("SELECT COUNT(*) FROM anomaly_flag").Scan(&flags); err != nil {
		return errors.Wrap(err, "counting anomaly_flag")
	}
	fmt.Fprintf(out, "%-24s %8d\n", "anomaly_flag", flags)
	return nil
}
