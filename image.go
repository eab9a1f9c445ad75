package radarloop

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var ErrDimensionMismatch = errors.New("radarloop: layer dimensions differ")

// ToRGBA copies img into a zero-origin RGBA buffer.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// NewPlaceholder returns an opaque buffer of the given size filled with c.
func NewPlaceholder(size image.Point, c color.Color) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	r, g, b, _ := c.RGBA()
	fill := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 255}
	draw.Draw(out, out.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	return out
}

// CropTop removes the top n rows (a header strip shared by every layer).
// Images no taller than n are copied unchanged.
func CropTop(img image.Image, n int) *image.RGBA {
	b := img.Bounds()
	if n <= 0 || b.Dy() <= n {
		return ToRGBA(img)
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()-n))
	draw.Draw(out, out.Bounds(), img, image.Pt(b.Min.X, b.Min.Y+n), draw.Src)
	return out
}

// AlphaComposite paints src over dst in place.
func AlphaComposite(dst *image.RGBA, src image.Image) error {
	if dst.Bounds().Size() != src.Bounds().Size() {
		return fmt.Errorf("%w: %v onto %v", ErrDimensionMismatch, src.Bounds().Size(), dst.Bounds().Size())
	}
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
	return nil
}

// ToRGB drops alpha, keeping the straight (non-premultiplied) colour of each pixel.
func ToRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			out.SetRGBA(x, y, color.RGBA{c.R, c.G, c.B, 255})
		}
	}
	return out
}
