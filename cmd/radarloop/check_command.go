package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/setanarut/radarloop/internal/fetch"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [URL]",
		Short: "Check that the radar source can be reached",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			url := cfg.Source.Products[0]
			if len(args) == 1 {
				url = args[0]
			}
			client := fetch.New(cfg.Timeout(), cfg.Source.UserAgent)
			if _, err := client.Fetch(cmd.Context(), url); err != nil {
				return fmt.Errorf("radar source unreachable: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully connected to %s\n", url)
			return nil
		},
	}
}
