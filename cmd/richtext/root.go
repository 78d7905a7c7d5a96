package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/richtext/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "richtext",
		Short:         "Drive the rich-text editing core from the command line",
		Long:          `richtext builds the configured plugin pipeline and replays editing events against documents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file (.toml, .yaml)")
	root.AddCommand(newReplayCmd(), newPluginsCmd(), newVersionCmd())
	return root
}

// loadConfig loads the file named by --config, or the defaults plus the
// environment when none is given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}
