package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/setanarut/radarloop"
	"github.com/setanarut/radarloop/internal/config"
	"github.com/setanarut/radarloop/internal/store"
)

func newJoinCommand(ctx *commandContext) *cobra.Command {
	var arrangement string
	var output string

	cmd := &cobra.Command{
		Use:   "join FIRST SECOND",
		Short: "Join two animated GIFs frame by frame",
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
			spec, err := joinSpec(cfg, arrangement)
			if err != nil {
				return err
			}
			if output == "" {
				output = cfg.FinalPath(spec.Orientation)
			}
			return joinFiles(cmd.Context(), cfg, spec, logger, args[0], args[1], output)
		},
	}

	cmd.Flags().StringVarP(&arrangement, "arrangement", "a", "", "Arrangement of the joined images (h|horizontal|v|vertical)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to the configured final name)")
	return cmd
}

func joinSpec(cfg *config.Config, arrangement string) (radarloop.JoinSpec, error) {
	spec, err := cfg.JoinSpec()
	if err != nil {
		return spec, err
	}
	if arrangement != "" {
		if spec.Orientation, err = radarloop.ParseOrientation(arrangement); err != nil {
			return spec, err
		}
	}
	return spec, nil
}

func joinFiles(ctx context.Context, cfg *config.Config, spec radarloop.JoinSpec, logger *slog.Logger, first, second, out string) error {
	a, err := store.ReadAnimation(first)
	if err != nil {
		return err
	}
	b, err := store.ReadAnimation(second)
	if err != nil {
		return err
	}
	joined, err := radarloop.NewJoiner(spec, cfg.Quantizer(), logger).Join(ctx, a, b)
	if err != nil {
		return err
	}
	if err := store.WriteAnimation(out, joined); err != nil {
		return err
	}
	logger.Info("joined animations", "path", out, "frames", len(joined.Frames),
		"orientation", spec.Orientation, "size", joined.Size())
	return nil
}
