package commands

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/openrange/elkhorn/config"
	"github.com/openrange/elkhorn/errors"
)

// ConfigCmd groups configuration management.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage elkhorn configuration.

Configuration merges, lowest precedence first: built-in defaults,
~/.elkhorn/config.toml, the nearest elkhorn.toml up the directory tree,
and ELKHORN_* environment variables.

Examples:
  elkhorn config init    # Write a default elkhorn.toml here
  elkhorn config show    # Show the effective merged configuration`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "elkhorn.toml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		if err := toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg); err != nil {
			return errors.Wrap(err, "encoding configuration")
		}
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
}
