package radarloop

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"

	"github.com/setanarut/radarloop/utils"
)

// MaxPaletteSize is the largest palette an indexed frame can carry.
const MaxPaletteSize = 256

// Quantizer reduces an RGB raster to an indexed one without dithering.
type Quantizer struct {
	MaxColors int
	Method    utils.PaletteMethod
}

func DefaultQuantizer() *Quantizer {
	return &Quantizer{MaxColors: MaxPaletteSize, Method: utils.PaletteMethodCoverage}
}

type histEntry struct {
	key   uint32
	count int
}

func packRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func unpackRGB(k uint32) color.RGBA {
	return color.RGBA{uint8(k >> 16), uint8(k >> 8), uint8(k), 255}
}

// histogram counts the exact colors of an opaque RGBA raster, most frequent
// first, ties by packed value.
func histogram(img *image.RGBA) []histEntry {
	counts := make(map[uint32]int)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			o := x * 4
			counts[packRGB(row[o], row[o+1], row[o+2])]++
		}
	}
	out := make([]histEntry, 0, len(counts))
	for k, n := range counts {
		out = append(out, histEntry{k, n})
	}
	slices.SortFunc(out, func(a, b histEntry) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return int(a.key) - int(b.key)
	})
	return out
}

// Quantize flattens img to RGB and maps every pixel to a palette of at most
// MaxColors entries. Identical input always yields identical palette and
// indices for the coverage method.
func (q *Quantizer) Quantize(img image.Image) (*image.Paletted, error) {
	k := q.MaxColors
	if k <= 0 || k > MaxPaletteSize {
		k = MaxPaletteSize
	}
	rgb := ToRGB(img)
	if rgb.Bounds().Empty() {
		return nil, errors.New("radarloop: cannot quantize an empty image")
	}
	hist := histogram(rgb)

	var pal []color.RGBA
	switch q.Method {
	case utils.PaletteMethodCoverage:
		pal = coveragePalette(hist, k)
	case utils.PaletteMethodDominantColor, utils.PaletteMethodKMeans:
		pal = clusterPalette(rgb, k, q.Method)
	default:
		return nil, fmt.Errorf("radarloop: unsupported palette method %v", q.Method)
	}
	if len(pal) == 0 {
		return nil, fmt.Errorf("radarloop: %v produced an empty palette", q.Method)
	}

	index := nearestIndex(hist, pal)
	palette := make(color.Palette, len(pal))
	for i, c := range pal {
		palette[i] = c
	}
	out := image.NewPaletted(rgb.Bounds(), palette)
	for i := 0; i < len(out.Pix); i++ {
		o := i * 4
		out.Pix[i] = index[packRGB(rgb.Pix[o], rgb.Pix[o+1], rgb.Pix[o+2])]
	}
	return out, nil
}

func coveragePalette(hist []histEntry, k int) []color.RGBA {
	if len(hist) <= k {
		pal := make([]color.RGBA, len(hist))
		for i, h := range hist {
			pal[i] = unpackRGB(h.key)
		}
		return pal
	}

	// Bucket to 5 bits per channel. Each bucket is represented by its most
	// frequent exact color and weighted by its total pixel count.
	type bucket struct {
		rep   uint32
		count int
	}
	var buckets []bucket
	pos := make(map[uint32]int)
	for _, h := range hist {
		c := unpackRGB(h.key)
		b5 := uint32(c.R>>3)<<10 | uint32(c.G>>3)<<5 | uint32(c.B>>3)
		if i, ok := pos[b5]; ok {
			buckets[i].count += h.count
			continue
		}
		pos[b5] = len(buckets)
		buckets = append(buckets, bucket{rep: h.key, count: h.count})
	}
	slices.SortStableFunc(buckets, func(a, b bucket) int {
		return b.count - a.count
	})

	cands := make([]utils.WeightedColor, len(buckets))
	for i, b := range buckets {
		col, _ := colorful.MakeColor(unpackRGB(b.rep))
		cands[i] = utils.WeightedColor{Col: col, Weight: float64(b.count)}
	}
	selected := utils.SelectCoverageColors(cands, k)
	pal := make([]color.RGBA, len(selected))
	for i, c := range selected {
		r, g, b := c.RGB255()
		pal[i] = color.RGBA{r, g, b, 255}
	}
	return pal
}

func clusterPalette(img image.Image, k int, method utils.PaletteMethod) []color.RGBA {
	cols := utils.ExtractPalette(img, k, method)
	utils.SortPaletteByBrightness(cols)
	seen := make(map[color.RGBA]bool, len(cols))
	pal := make([]color.RGBA, 0, len(cols))
	for _, c := range cols {
		r, g, b := c.Clamped().RGB255()
		rgba := color.RGBA{r, g, b, 255}
		if !seen[rgba] {
			seen[rgba] = true
			pal = append(pal, rgba)
		}
	}
	return pal
}

// nearestIndex maps each distinct source color to its palette index: exact
// matches first, otherwise the nearest entry by Lab distance.
func nearestIndex(hist []histEntry, pal []color.RGBA) map[uint32]uint8 {
	exact := make(map[uint32]uint8, len(pal))
	labs := make([]colorful.Color, len(pal))
	for i := len(pal) - 1; i >= 0; i-- {
		exact[packRGB(pal[i].R, pal[i].G, pal[i].B)] = uint8(i)
		labs[i], _ = colorful.MakeColor(pal[i])
	}

	index := make(map[uint32]uint8, len(hist))
	for _, h := range hist {
		if i, ok := exact[h.key]; ok {
			index[h.key] = i
			continue
		}
		src, _ := colorful.MakeColor(unpackRGB(h.key))
		best, bestD := 0, math.MaxFloat64
		for i, p := range labs {
			if d := src.DistanceLab(p); d < bestD {
				best, bestD = i, d
			}
		}
		index[h.key] = uint8(best)
	}
	return index
}

// QuantizeReport summarizes how much a quantization lost.
type QuantizeReport struct {
	SourceColors int
	PaletteSize  int
	// Pixel-weighted Lab distance between source and mapped colors.
	MeanError float64
	StdError  float64
}

func Report(src image.Image, dst *image.Paletted) QuantizeReport {
	rgb := ToRGB(src)
	hist := histogram(rgb)
	rep := QuantizeReport{SourceColors: len(hist), PaletteSize: len(dst.Palette)}
	if len(hist) == 0 {
		return rep
	}

	// First pixel of each distinct color tells us where it was mapped.
	mapped := make(map[uint32]color.Color, len(hist))
	for i := 0; i < len(dst.Pix); i++ {
		o := i * 4
		key := packRGB(rgb.Pix[o], rgb.Pix[o+1], rgb.Pix[o+2])
		if _, ok := mapped[key]; !ok {
			mapped[key] = dst.Palette[dst.Pix[i]]
		}
	}

	errs := make([]float64, len(hist))
	weights := make([]float64, len(hist))
	for i, h := range hist {
		a, _ := colorful.MakeColor(unpackRGB(h.key))
		b, _ := colorful.MakeColor(mapped[h.key])
		errs[i] = a.DistanceLab(b)
		weights[i] = float64(h.count)
	}
	rep.MeanError, rep.StdError = stat.MeanStdDev(errs, weights)
	if math.IsNaN(rep.StdError) {
		rep.StdError = 0
	}
	return rep
}
