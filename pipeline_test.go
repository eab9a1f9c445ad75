package radarloop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

type fakeFetcher struct {
	files map[string][]byte
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	data, ok := f.files[url]
	if !ok {
		return nil, fmt.Errorf("fetch %s: status 404", url)
	}
	return data, nil
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// radarFrame is a transparent 20x36 layer with one pixel just below the
// 16-row header.
func radarFrame(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := solid(20, 36, transparent)
	img.SetRGBA(0, 16, c)
	return encodePNG(t, img)
}

func TestPipelineBuildDropsFailedFrames(t *testing.T) {
	f := &fakeFetcher{files: map[string][]byte{
		"bg":  encodePNG(t, solid(20, 36, blue)),
		"loc": encodePNG(t, solid(20, 36, transparent)),
		"f1":  radarFrame(t, red),
		"f3":  []byte("garbage"),
		"f4":  radarFrame(t, green),
	}}
	p := NewPipeline(f, nil)
	p.Delay = 200 * time.Millisecond

	anim, err := p.Build(context.Background(), Product{
		Name: "IDR000",
		Overlays: map[LayerRole]string{
			Background: "bg",
			Topography: "topo",
			Locations:  "loc",
		},
		Frames: []string{"f1", "f2", "f3", "f4"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(anim.Frames))
	}
	if anim.Size() != image.Pt(20, 20) {
		t.Fatalf("size = %v, want header cropped to 20x20", anim.Size())
	}
	if rgbaAt(anim.Frames[0], 0, 0) != red || rgbaAt(anim.Frames[1], 0, 0) != green {
		t.Fatal("frames not in discovery order")
	}
	if rgbaAt(anim.Frames[0], 5, 5) != blue {
		t.Fatal("background missing from composite")
	}
	if anim.Delay != 200*time.Millisecond || !anim.LoopForever {
		t.Fatalf("delay=%v loop=%v", anim.Delay, anim.LoopForever)
	}

	overlayFetches := 0
	for _, c := range f.calls {
		if c == "bg" {
			overlayFetches++
		}
	}
	if overlayFetches != 1 {
		t.Fatalf("background fetched %d times, want once", overlayFetches)
	}
}

func TestPipelineMissingBackgroundUsesPlaceholder(t *testing.T) {
	f := &fakeFetcher{files: map[string][]byte{
		"f1": radarFrame(t, red),
	}}
	anim, err := NewPipeline(f, nil).Build(context.Background(), Product{
		Name:     "IDR000",
		Overlays: map[LayerRole]string{Background: "bg"},
		Frames:   []string{"f1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if rgbaAt(anim.Frames[0], 3, 3) != black || rgbaAt(anim.Frames[0], 0, 0) != red {
		t.Fatal("expected radar over a black placeholder")
	}
}

func TestPipelineNoFrameURLs(t *testing.T) {
	_, err := NewPipeline(&fakeFetcher{}, nil).Build(context.Background(), Product{Name: "x"})
	if !errors.Is(err, ErrNoFrameURLs) {
		t.Fatalf("err = %v, want ErrNoFrameURLs", err)
	}
}

func TestPipelineAllFramesFail(t *testing.T) {
	f := &fakeFetcher{files: map[string][]byte{"bg": encodePNG(t, solid(20, 36, blue))}}
	_, err := NewPipeline(f, nil).Build(context.Background(), Product{
		Name:     "x",
		Overlays: map[LayerRole]string{Background: "bg"},
		Frames:   []string{"a", "b"},
	})
	if !errors.Is(err, ErrNoFrames) {
		t.Fatalf("err = %v, want ErrNoFrames", err)
	}
}

func TestPipelineSkipsMismatchedFrame(t *testing.T) {
	f := &fakeFetcher{files: map[string][]byte{
		"bg":    encodePNG(t, solid(20, 36, blue)),
		"ok":    radarFrame(t, red),
		"small": encodePNG(t, solid(10, 36, transparent)),
	}}
	anim, err := NewPipeline(f, nil).Build(context.Background(), Product{
		Name:     "x",
		Overlays: map[LayerRole]string{Background: "bg"},
		Frames:   []string{"ok", "small", "ok"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(anim.Frames))
	}
}
