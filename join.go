package radarloop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"golang.org/x/image/draw"
)

var (
	ErrNoOverlap       = errors.New("radarloop: joined sequences share no frames")
	ErrInvalidJoinSpec = errors.New("radarloop: invalid join spec")
)

type Orientation int

const (
	// Horizontal places the second sequence to the right of the first.
	Horizontal Orientation = iota
	// Vertical places the second sequence below the first.
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h", "horizontal", "":
		return Horizontal, nil
	case "v", "vertical":
		return Vertical, nil
	}
	return 0, fmt.Errorf("unknown orientation %q", s)
}

// Resample selects the scaler used when fitting a joined frame to the target.
type Resample int

const (
	// ResampleSmooth interpolates (Catmull-Rom).
	ResampleSmooth Resample = iota
	// ResampleNearest never invents colors, so palette-flat input stays flat.
	ResampleNearest
)

func (r Resample) String() string {
	if r == ResampleNearest {
		return "nearest"
	}
	return "smooth"
}

func ParseResample(s string) (Resample, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "smooth", "catmullrom":
		return ResampleSmooth, nil
	case "nearest":
		return ResampleNearest, nil
	}
	return 0, fmt.Errorf("unknown resample policy %q", s)
}

func (r Resample) scaler() draw.Scaler {
	if r == ResampleNearest {
		return draw.NearestNeighbor
	}
	return draw.CatmullRom
}

// DefaultSeparator is the thickness in pixels of the band between the halves.
const DefaultSeparator = 1

type JoinSpec struct {
	Orientation Orientation
	Separator   int
	// Target is the final canvas size. A zero target keeps the joined size.
	Target image.Point
	// Background fills the letterbox margins.
	Background color.Color
	Resample   Resample
}

func DefaultJoinSpec() JoinSpec {
	return JoinSpec{
		Orientation: Horizontal,
		Separator:   DefaultSeparator,
		Background:  color.Black,
		Resample:    ResampleSmooth,
	}
}

func (s JoinSpec) Validate() error {
	if s.Orientation != Horizontal && s.Orientation != Vertical {
		return fmt.Errorf("%w: orientation %v", ErrInvalidJoinSpec, s.Orientation)
	}
	if s.Separator < 0 {
		return fmt.Errorf("%w: negative separator %d", ErrInvalidJoinSpec, s.Separator)
	}
	if s.Target.X < 0 || s.Target.Y < 0 || (s.Target.X == 0) != (s.Target.Y == 0) {
		return fmt.Errorf("%w: target %v", ErrInvalidJoinSpec, s.Target)
	}
	return nil
}

// Joiner combines two animations frame by frame.
type Joiner struct {
	Spec      JoinSpec
	Quantizer *Quantizer
	Logger    *slog.Logger
}

func NewJoiner(spec JoinSpec, q *Quantizer, logger *slog.Logger) *Joiner {
	if q == nil {
		q = DefaultQuantizer()
	}
	return &Joiner{Spec: spec, Quantizer: q, Logger: logger}
}

// Join pairs frame i of a with frame i of b for every i both share; trailing
// frames of the longer input are dropped. The result uses a's frame delay.
// Nothing is returned unless every paired frame succeeded. ctx is checked
// between frames.
func (j *Joiner) Join(ctx context.Context, a, b *Animation) (*Animation, error) {
	if err := j.Spec.Validate(); err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, ErrNoOverlap
	}
	n := min(len(a.Frames), len(b.Frames))
	if n == 0 {
		return nil, ErrNoOverlap
	}
	if len(a.Frames) != len(b.Frames) {
		logger(j.Logger).Info("frame counts differ, truncating to shorter sequence",
			"first", len(a.Frames), "second", len(b.Frames), "kept", n)
	}

	frames := make([]*image.Paletted, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		joined := j.JoinFrame(a.Frames[i], b.Frames[i])
		q, err := j.Quantizer.Quantize(j.Normalize(joined))
		if err != nil {
			return nil, fmt.Errorf("quantize joined frame %d: %w", i, err)
		}
		frames = append(frames, q)
	}

	out, err := Assemble(frames, a.Delay)
	if err != nil {
		return nil, err
	}
	out.LoopForever = true
	return out, nil
}

// JoinFrame places first and second at native size on an opaque black canvas
// with a separator band between them.
func (j *Joiner) JoinFrame(first, second image.Image) *image.RGBA {
	r1 := first.Bounds()
	r2 := second.Bounds()
	sep := j.Spec.Separator

	var size, offset image.Point
	if j.Spec.Orientation == Vertical {
		size = image.Pt(max(r1.Dx(), r2.Dx()), r1.Dy()+sep+r2.Dy())
		offset = image.Pt(0, r1.Dy()+sep)
	} else {
		size = image.Pt(r1.Dx()+sep+r2.Dx(), max(r1.Dy(), r2.Dy()))
		offset = image.Pt(r1.Dx()+sep, 0)
	}

	canvas := NewPlaceholder(size, color.Black)
	draw.Draw(canvas, image.Rectangle{Max: r1.Size()}, first, r1.Min, draw.Over)
	draw.Draw(canvas, image.Rectangle{Min: offset, Max: offset.Add(r2.Size())}, second, r2.Min, draw.Over)
	return canvas
}

// Normalize fits img inside the target canvas preserving aspect ratio and
// centers it on the background color.
func (j *Joiner) Normalize(img *image.RGBA) *image.RGBA {
	target := j.Spec.Target
	src := img.Bounds()
	if target.X == 0 || target.Y == 0 {
		return img
	}
	scaled := FitSize(src.Size(), target)

	bg := j.Spec.Background
	if bg == nil {
		bg = color.Black
	}
	out := NewPlaceholder(target, bg)
	off := image.Pt((target.X-scaled.X)/2, (target.Y-scaled.Y)/2)
	dr := image.Rectangle{Min: off, Max: off.Add(scaled)}
	if scaled == src.Size() {
		draw.Draw(out, dr, img, src.Min, draw.Src)
		return out
	}
	j.Spec.Resample.scaler().Scale(out, dr, img, src, draw.Src, nil)
	return out
}

// FitSize scales size to fit within target. The limiting axis matches the
// target exactly; the other is rounded to the nearest pixel and never exceeds
// its target.
func FitSize(size, target image.Point) image.Point {
	if size.X <= 0 || size.Y <= 0 || target.X <= 0 || target.Y <= 0 {
		return image.Point{}
	}
	// Width limits when target.X/size.X <= target.Y/size.Y.
	if target.X*size.Y <= target.Y*size.X {
		h := (2*size.Y*target.X + size.X) / (2 * size.X)
		return image.Pt(target.X, max(1, min(h, target.Y)))
	}
	w := (2*size.X*target.Y + size.Y) / (2 * size.Y)
	return image.Pt(max(1, min(w, target.X)), target.Y)
}
