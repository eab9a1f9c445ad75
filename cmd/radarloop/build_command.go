package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/setanarut/radarloop"
	"github.com/setanarut/radarloop/internal/config"
	"github.com/setanarut/radarloop/internal/fetch"
	"github.com/setanarut/radarloop/internal/source"
	"github.com/setanarut/radarloop/internal/store"
	"github.com/setanarut/radarloop/utils"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var dev bool
	var arrangement string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fetch both radar products, animate them and join the result",
		Args:  cobra.NoArgs,
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

			first, second := cfg.FirstPath(), cfg.SecondPath()
			var updated time.Time
			if dev {
				logger.Info("dev mode: joining existing intermediate files")
				for _, p := range []string{first, second} {
					if _, err := os.Stat(p); err != nil {
						return fmt.Errorf("dev mode needs %s: %w", p, err)
					}
				}
			} else {
				client := fetch.New(cfg.Timeout(), cfg.Source.UserAgent)
				updated, err = buildProducts(cmd.Context(), cfg, client, logger, []string{first, second})
				if err != nil {
					return err
				}
			}

			out := cfg.FinalPath(spec.Orientation)
			if err := joinFiles(cmd.Context(), cfg, spec, logger, first, second, out); err != nil {
				return err
			}
			if cfg.Output.Timestamp && !updated.IsZero() {
				if err := store.WriteTimestamp(out, updated); err != nil {
					logger.Warn("timestamp sidecar not written", "error", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dev, "dev", false, "Skip scraping and join the existing intermediate files")
	cmd.Flags().StringVarP(&arrangement, "arrangement", "a", "", "Arrangement of the joined images (h|horizontal|v|vertical)")
	return cmd
}

// buildProducts writes one animation per configured product to paths. Both
// products must succeed. It returns the newest Last-Modified time seen.
func buildProducts(ctx context.Context, cfg *config.Config, client *fetch.Client, logger *slog.Logger, paths []string) (time.Time, error) {
	pipeline := radarloop.NewPipeline(client, logger)
	pipeline.CropRows = cfg.Render.CropRows
	pipeline.Delay = cfg.FrameDelay()
	pipeline.Quantizer = cfg.Quantizer()
	pipeline.Compositor.Placeholder = cfg.PlaceholderColor()

	var newest time.Time
	var failed []error
	for i, page := range cfg.Source.Products {
		product, err := source.Discover(ctx, client, page, cfg.Source.BaseURL)
		if err != nil {
			failed = append(failed, err)
			logger.Error("frame discovery failed", "page", page, "error", err)
			continue
		}
		anim, err := pipeline.Build(ctx, product)
		if err != nil {
			failed = append(failed, err)
			logger.Error("product build failed", "product", product.Name, "error", err)
			continue
		}
		if err := store.WriteAnimation(paths[i], anim); err != nil {
			return newest, err
		}
		logger.Info("saved animation", "product", product.Name, "path", paths[i])

		if cfg.Output.FramesDir != "" {
			if err := os.MkdirAll(cfg.Output.FramesDir, 0o755); err != nil {
				return newest, err
			}
			if err := utils.SaveFrames(anim.Frames, cfg.Output.FramesDir, product.Name); err != nil {
				logger.Warn("frame dump failed", "product", product.Name, "error", err)
			}
		}
		if cfg.Output.Timestamp {
			latest := product.Frames[len(product.Frames)-1]
			if t, err := client.LastModified(ctx, latest); err != nil {
				logger.Warn("last-modified unavailable", "url", latest, "error", err)
			} else if t.After(newest) {
				newest = t
			}
		}
	}
	if len(failed) > 0 {
		return newest, fmt.Errorf("failed to create one or both radar animations: %w", errors.Join(failed...))
	}
	return newest, nil
}
