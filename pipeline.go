package radarloop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"time"
)

// DefaultCropRows is the height of the title strip shared by every layer.
const DefaultCropRows = 16

var ErrNoFrameURLs = errors.New("radarloop: product has no frame URLs")

// Fetcher retrieves raw bytes. A non-nil error means nothing usable was
// returned.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Product is one radar product: its static overlays and its ordered frames.
type Product struct {
	Name     string
	Overlays map[LayerRole]string
	Frames   []string
}

// Pipeline builds one animation per product, one frame at a time.
type Pipeline struct {
	Fetcher    Fetcher
	Compositor *Compositor
	Quantizer  *Quantizer
	CropRows   int
	Delay      time.Duration
	Logger     *slog.Logger
}

func NewPipeline(f Fetcher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		Fetcher:    f,
		Compositor: NewCompositor(logger),
		Quantizer:  DefaultQuantizer(),
		CropRows:   DefaultCropRows,
		Delay:      DefaultDelay,
		Logger:     logger,
	}
}

func (p *Pipeline) fetchImage(ctx context.Context, url string) (*image.RGBA, error) {
	data, err := p.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return CropTop(img, p.CropRows), nil
}

// Overlays fetches the static layers once. Layers that fail are left absent.
func (p *Pipeline) Overlays(ctx context.Context, product Product) *LayerStack {
	log := logger(p.Logger).With("product", product.Name)
	stack := NewLayerStack()
	for _, role := range OverlayRoles {
		url, ok := product.Overlays[role]
		if !ok || url == "" {
			continue
		}
		img, err := p.fetchImage(ctx, url)
		if err != nil {
			level := slog.LevelWarn
			if role != Background {
				level = slog.LevelInfo
			}
			log.Log(ctx, level, "overlay unavailable", "layer", role, "url", url, "error", err)
			continue
		}
		stack.Set(role, img)
	}
	if stack.Get(Background) == nil {
		log.Warn("background not found, frames will use a placeholder")
	}
	return stack
}

// Build fetches, composites and quantizes every frame in order and assembles
// the result. Frames that cannot be fetched, decoded or composited are dropped.
// ErrNoFrameURLs and ErrNoFrames are the only ways a product fails.
func (p *Pipeline) Build(ctx context.Context, product Product) (*Animation, error) {
	log := logger(p.Logger).With("product", product.Name)
	if len(product.Frames) == 0 {
		return nil, ErrNoFrameURLs
	}

	overlays := p.Overlays(ctx, product)
	q := p.Quantizer
	if q == nil {
		q = DefaultQuantizer()
	}
	comp := p.Compositor
	if comp == nil {
		comp = NewCompositor(p.Logger)
	}

	frames := make([]*image.Paletted, 0, len(product.Frames))
	for i, url := range product.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		flog := log.With("frame", i+1, "of", len(product.Frames))
		flog.Info("fetching frame", "url", url)

		radar, err := p.fetchImage(ctx, url)
		if err != nil {
			flog.Warn("skipping frame", "url", url, "error", err)
			continue
		}
		flat, err := comp.Composite(overlays.With(Radar, radar))
		if err != nil {
			flog.Warn("skipping frame", "url", url, "error", err)
			continue
		}
		if len(frames) > 0 && flat.Bounds().Size() != frames[0].Bounds().Size() {
			flog.Warn("skipping frame", "url", url, "error",
				fmt.Errorf("%w: %v, sequence is %v", ErrDimensionMismatch, flat.Bounds().Size(), frames[0].Bounds().Size()))
			continue
		}
		pal, err := q.Quantize(flat)
		if err != nil {
			flog.Warn("skipping frame", "url", url, "error", err)
			continue
		}
		if flog.Enabled(ctx, slog.LevelDebug) {
			r := Report(flat, pal)
			flog.Debug("quantized frame", "colors", r.SourceColors, "palette", r.PaletteSize,
				"mean_error", r.MeanError, "std_error", r.StdError)
		}
		frames = append(frames, pal)
	}

	anim, err := Assemble(frames, p.Delay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", product.Name, err)
	}
	log.Info("assembled animation", "frames", len(anim.Frames), "dropped", len(product.Frames)-len(anim.Frames))
	return anim, nil
}
