package radarloop

import (
	"image"
	"image/color"
	"slices"
)

// RemapRule rewrites palette entries. keys holds the palette indices sampled
// from the legend gradient, left to right.
type RemapRule interface {
	apply(pal color.Palette, keys []uint8)
}

// IndexRule recolors one palette index.
type IndexRule struct {
	Index uint8
	Color color.Color
}

// RangeRule recolors every index in [From, To].
type RangeRule struct {
	From, To uint8
	Color    color.Color
}

// KeyRule recolors the sampled legend indices positionally: the i-th key
// index gets Colors[i]. Extra keys or colors are ignored.
type KeyRule struct {
	Colors []color.Color
}

func (r IndexRule) apply(pal color.Palette, _ []uint8) {
	if int(r.Index) < len(pal) {
		pal[r.Index] = r.Color
	}
}

func (r RangeRule) apply(pal color.Palette, _ []uint8) {
	for i := int(r.From); i <= int(r.To) && i < len(pal); i++ {
		pal[i] = r.Color
	}
}

func (r KeyRule) apply(pal color.Palette, keys []uint8) {
	for i, idx := range keys {
		if i >= len(r.Colors) {
			break
		}
		if int(idx) < len(pal) {
			pal[idx] = r.Colors[i]
		}
	}
}

// SampleKeyIndices reads the palette index under each x on row y, keeping the
// first occurrence of each index. Points outside the image are skipped.
func SampleKeyIndices(img *image.Paletted, y int, xs []int) []uint8 {
	var keys []uint8
	b := img.Bounds()
	for _, x := range xs {
		if !image.Pt(x, y).In(b) {
			continue
		}
		idx := img.ColorIndexAt(x, y)
		if !slices.Contains(keys, idx) {
			keys = append(keys, idx)
		}
	}
	return keys
}

// Recolor returns a copy of img with rules applied to its palette in order,
// later rules winning. Pixel indices are untouched and shared with img.
func Recolor(img *image.Paletted, keys []uint8, rules []RemapRule) *image.Paletted {
	pal := slices.Clone(img.Palette)
	for _, r := range rules {
		r.apply(pal, keys)
	}
	return &image.Paletted{
		Pix:     img.Pix,
		Stride:  img.Stride,
		Rect:    img.Rect,
		Palette: pal,
	}
}

// RecolorAnimation recolors every frame. Keys are sampled from each frame so
// per-frame palettes stay consistent with their own legend.
func RecolorAnimation(a *Animation, keyY int, keyXs []int, rules []RemapRule) *Animation {
	out := &Animation{
		Frames:      make([]*image.Paletted, len(a.Frames)),
		Delay:       a.Delay,
		LoopForever: a.LoopForever,
	}
	for i, f := range a.Frames {
		var keys []uint8
		if len(keyXs) > 0 {
			keys = SampleKeyIndices(f, keyY, keyXs)
		}
		out.Frames[i] = Recolor(f, keys, rules)
	}
	return out
}
