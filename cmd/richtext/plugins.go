package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/richtext/internal/app"
)

func newPluginsCmd() *cobra.Command {
	var available bool
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the configured plugin pipeline in dispatch order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ed, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer ed.Close(context.Background())

			out := cmd.OutOrStdout()
			names := ed.Pipeline().Names()
			if available {
				names = ed.Registry().Names()
			}
			for i, name := range names {
				fmt.Fprintf(out, "%2d. %s\n", i+1, name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&available, "available", false, "List every registered plugin instead")
	return cmd
}
