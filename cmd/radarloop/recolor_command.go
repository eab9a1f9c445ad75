package main

import (
	"github.com/spf13/cobra"

	"github.com/setanarut/radarloop"
	"github.com/setanarut/radarloop/internal/store"
)

func newRecolorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recolor INPUT OUTPUT",
		Short: "Rewrite palette entries of an animation using the configured rules",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			rules, err := cfg.RemapRules()
			if err != nil {
				return err
			}
			anim, err := store.ReadAnimation(args[0])
			if err != nil {
				return err
			}
			out := radarloop.RecolorAnimation(anim, cfg.Recolor.KeyY, cfg.Recolor.KeyX, rules)
			if err := store.WriteAnimation(args[1], out); err != nil {
				return err
			}
			logger.Info("recolored animation", "path", args[1], "rules", len(rules), "frames", len(out.Frames))
			return nil
		},
	}
}
