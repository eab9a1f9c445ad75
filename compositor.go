package radarloop

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
)

var ErrEmptyStack = errors.New("radarloop: layer stack has no layers")

// Compositor flattens one LayerStack into a single opaque raster.
type Compositor struct {
	// Fill colour of the substitute background when none was fetched.
	Placeholder color.Color
	Logger      *slog.Logger
}

func NewCompositor(logger *slog.Logger) *Compositor {
	return &Compositor{
		Placeholder: color.Black,
		Logger:      logger,
	}
}

// Composite starts from the background and paints topography, radar,
// locations and range over it in that order. Absent optional layers are
// skipped. A missing background is replaced by an opaque placeholder sized to
// the remaining layers. The stack is not modified.
func (c *Compositor) Composite(stack *LayerStack) (*image.RGBA, error) {
	size, ok := stack.Size()
	if !ok {
		return nil, ErrEmptyStack
	}

	var out *image.RGBA
	if bg := stack.Get(Background); bg != nil {
		out = ToRGBA(bg)
	} else {
		logger(c.Logger).Warn("background layer missing, using placeholder",
			"width", size.X, "height", size.Y)
		fill := c.Placeholder
		if fill == nil {
			fill = color.Black
		}
		out = NewPlaceholder(size, fill)
	}

	for _, role := range CompositeOrder[1:] {
		l := stack.Get(role)
		if l == nil {
			continue
		}
		if err := AlphaComposite(out, l); err != nil {
			return nil, fmt.Errorf("composite %s: %w", role, err)
		}
	}
	return out, nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}
