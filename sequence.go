package radarloop

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"time"

	"golang.org/x/image/draw"
)

// DefaultDelay is the per-frame display time when none is known.
const DefaultDelay = 500 * time.Millisecond

var ErrNoFrames = errors.New("radarloop: no frames to assemble")

// Animation is an ordered run of same-size indexed frames.
type Animation struct {
	Frames      []*image.Paletted
	Delay       time.Duration
	LoopForever bool
}

// Size is the shared canvas size of the frames.
func (a *Animation) Size() image.Point {
	if len(a.Frames) == 0 {
		return image.Point{}
	}
	return a.Frames[0].Bounds().Size()
}

func (a *Animation) Validate() error {
	if len(a.Frames) == 0 {
		return ErrNoFrames
	}
	size := a.Size()
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("radarloop: empty canvas %v", size)
	}
	for i, f := range a.Frames {
		if f.Bounds().Size() != size {
			return fmt.Errorf("%w: frame %d is %v, want %v", ErrDimensionMismatch, i, f.Bounds().Size(), size)
		}
	}
	return nil
}

// Assemble wraps frames into a looping animation. The first frame anchors the
// canvas size. An empty list is ErrNoFrames, never an empty animation.
func Assemble(frames []*image.Paletted, delay time.Duration) (*Animation, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	a := &Animation{
		Frames:      append([]*image.Paletted(nil), frames...),
		Delay:       delay,
		LoopForever: true,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// EncodeGIF writes a as a multi-frame GIF.
func EncodeGIF(w io.Writer, a *Animation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	cs := int((a.Delay + 5*time.Millisecond) / (10 * time.Millisecond))
	g := &gif.GIF{
		Image:     a.Frames,
		Delay:     make([]int, len(a.Frames)),
		LoopCount: -1,
	}
	if a.LoopForever {
		g.LoopCount = 0
	}
	for i := range g.Delay {
		g.Delay[i] = cs
	}
	return gif.EncodeAll(w, g)
}

// DecodeGIF reads a multi-frame GIF. Frames that only update part of the
// canvas are flattened onto the running canvas and requantized, so every
// returned frame is a full picture.
func DecodeGIF(r io.Reader) (*Animation, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, ErrNoFrames
	}

	canvasRect := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if canvasRect.Empty() {
		canvasRect = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(canvasRect)
	q := DefaultQuantizer()

	a := &Animation{
		Frames:      make([]*image.Paletted, 0, len(g.Image)),
		Delay:       DefaultDelay,
		LoopForever: g.LoopCount == 0,
	}
	if len(g.Delay) > 0 && g.Delay[0] > 0 {
		a.Delay = time.Duration(g.Delay[0]) * 10 * time.Millisecond
	}

	for i, frame := range g.Image {
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var previous *image.RGBA
		if disposal == gif.DisposalPrevious {
			previous = ToRGBA(canvas)
		}

		if frame.Bounds() == canvasRect && opaquePalette(frame.Palette) {
			draw.Draw(canvas, canvasRect, frame, canvasRect.Min, draw.Src)
			a.Frames = append(a.Frames, frame)
		} else {
			draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
			full, err := q.Quantize(canvas)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", i, err)
			}
			a.Frames = append(a.Frames, full)
		}

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			draw.Draw(canvas, canvasRect, previous, image.Point{}, draw.Src)
		}
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func opaquePalette(p color.Palette) bool {
	for _, c := range p {
		if _, _, _, a := c.RGBA(); a != 0xffff {
			return false
		}
	}
	return true
}
