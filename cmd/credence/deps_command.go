package main

import (
	"github.com/spf13/cobra"

	"credence/internal/deps"
	"credence/internal/present"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools the scan waterfall depends on",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckAll(cfg)
			if jsonFlag {
				return writeJSON(cmd, statuses)
			}
			present.NewRenderer(cmd.OutOrStdout()).Dependencies(statuses)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the dependency statuses as JSON")
	return cmd
}
