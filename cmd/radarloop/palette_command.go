package main

import (
	"fmt"
	"image"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/setanarut/radarloop"
	"github.com/setanarut/radarloop/internal/store"
	"github.com/setanarut/radarloop/utils"
)

func newPaletteCommand(ctx *commandContext) *cobra.Command {
	var frame int
	var swatch string

	cmd := &cobra.Command{
		Use:   "palette FILE",
		Short: "Print the palette of an animation frame and its legend indices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			anim, err := store.ReadAnimation(args[0])
			if err != nil {
				return err
			}
			if frame < 0 || frame >= len(anim.Frames) {
				return fmt.Errorf("frame %d out of range (0..%d)", frame, len(anim.Frames)-1)
			}
			img := anim.Frames[frame]
			keys := radarloop.SampleKeyIndices(img, cfg.Recolor.KeyY, cfg.Recolor.KeyX)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, "Radar key palette (left to right)")
			fmt.Fprintln(out, renderPalette(img, keys, colorize))
			fmt.Fprintln(out, "Full palette")
			fmt.Fprintln(out, renderPalette(img, allIndices(len(img.Palette)), colorize))

			if swatch != "" {
				if err := utils.SavePalette(img.Palette, 16, swatch); err != nil {
					return fmt.Errorf("write swatch: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&frame, "frame", 0, "Frame to inspect")
	cmd.Flags().StringVar(&swatch, "swatch", "", "Also write the palette as a PNG swatch strip")
	return cmd
}

func allIndices(n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = uint8(i)
	}
	return out
}

func renderPalette(img *image.Paletted, indices []uint8, colorize bool) string {
	if len(indices) == 0 {
		return "  (no indices found)"
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := table.Row{"Index", "R", "G", "B", "Hex"}
	if colorize {
		header = append(header, "")
	}
	tw.AppendHeader(header)

	for _, idx := range indices {
		if int(idx) >= len(img.Palette) {
			continue
		}
		c := img.Palette[idx]
		r, g, b, _ := c.RGBA()
		r8, g8, b8 := r>>8, g>>8, b>>8
		row := table.Row{strconv.Itoa(int(idx)), r8, g8, b8, utils.Hex(c)}
		if colorize {
			row = append(row, fmt.Sprintf("\x1b[48;2;%d;%d;%dm    \x1b[0m", r8, g8, b8))
		}
		tw.AppendRow(row)
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
