package radarloop

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

// testStack builds a 6x6 stack where each optional layer covers a distinct
// region, with some regions overlapping.
func testStack() *LayerStack {
	s := NewLayerStack()
	s.Set(Background, solid(6, 6, blue))

	topo := solid(6, 6, transparent)
	for y := 0; y < 6; y++ {
		topo.SetRGBA(0, y, color.RGBA{0, 64, 0, 128})
		topo.SetRGBA(1, y, color.RGBA{0, 64, 0, 128})
	}
	s.Set(Topography, topo)

	radar := solid(6, 6, transparent)
	for x := 0; x < 6; x++ {
		radar.SetRGBA(x, 1, red)
		radar.SetRGBA(x, 2, color.RGBA{100, 0, 0, 100})
	}
	s.Set(Radar, radar)

	locations := solid(6, 6, transparent)
	locations.SetRGBA(1, 1, white)
	locations.SetRGBA(4, 4, white)
	s.Set(Locations, locations)

	rng := solid(6, 6, transparent)
	rng.SetRGBA(1, 2, color.RGBA{0, 0, 0, 200})
	rng.SetRGBA(5, 5, green)
	s.Set(Range, rng)
	return s
}

func TestCompositeMatchesSequentialBlend(t *testing.T) {
	s := testStack()
	got, err := NewCompositor(nil).Composite(s)
	if err != nil {
		t.Fatal(err)
	}

	want := ToRGBA(s.Get(Background))
	for _, role := range []LayerRole{Topography, Radar, Locations, Range} {
		if err := AlphaComposite(want, s.Get(role)); err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Fatal("composite differs from background->topography->radar->locations->range blend")
	}
	if rgbaAt(got, 1, 1) != white {
		t.Fatalf("locations should paint over radar, got %v", rgbaAt(got, 1, 1))
	}
	if rgbaAt(got, 5, 5) != green {
		t.Fatalf("range should be on top, got %v", rgbaAt(got, 5, 5))
	}
}

func TestCompositeOrderIsFixed(t *testing.T) {
	s := testStack()
	base, err := NewCompositor(nil).Composite(s)
	if err != nil {
		t.Fatal(err)
	}

	swapped := s.With(Radar, s.Get(Locations)).With(Locations, s.Get(Radar))
	other, err := NewCompositor(nil).Composite(swapped)
	if err != nil {
		t.Fatal(err)
	}
	// Radar and locations overlap with different alpha at (1,1).
	if rgbaAt(base, 1, 1) == rgbaAt(other, 1, 1) {
		t.Fatal("swapping radar and locations should change overlapping pixels")
	}
	// Where neither has coverage nothing changes.
	if rgbaAt(base, 3, 5) != rgbaAt(other, 3, 5) {
		t.Fatal("pixels outside both layers should not change")
	}
}

func TestCompositeDoesNotMutateStack(t *testing.T) {
	s := testStack()
	bg := append([]uint8(nil), s.Get(Background).Pix...)
	if _, err := NewCompositor(nil).Composite(s); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bg, s.Get(Background).Pix) {
		t.Fatal("background was modified")
	}
}

func TestCompositeTransparentRadarKeepsBackground(t *testing.T) {
	s := NewLayerStack()
	s.Set(Background, solid(50, 50, blue))
	s.Set(Radar, solid(50, 50, transparent))

	got, err := NewCompositor(nil).Composite(s)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Pix, s.Get(Background).Pix) {
		t.Fatal("transparent radar layer changed the background")
	}
}

func TestCompositeMissingOptionalLayer(t *testing.T) {
	full := testStack()
	want, err := NewCompositor(nil).Composite(full)
	if err != nil {
		t.Fatal(err)
	}

	for _, role := range []LayerRole{Topography, Radar, Locations, Range} {
		t.Run(role.String(), func(t *testing.T) {
			layer := full.Get(role)
			got, err := NewCompositor(nil).Composite(full.With(role, nil))
			if err != nil {
				t.Fatalf("absent %s: %v", role, err)
			}
			for y := 0; y < 6; y++ {
				for x := 0; x < 6; x++ {
					if layer.RGBAAt(x, y).A != 0 {
						continue
					}
					if rgbaAt(got, x, y) != rgbaAt(want, x, y) {
						t.Fatalf("pixel (%d,%d) changed outside the %s layer", x, y, role)
					}
				}
			}
		})
	}
}

func TestCompositeMissingBackgroundUsesPlaceholder(t *testing.T) {
	s := NewLayerStack()
	radar := solid(8, 5, transparent)
	radar.SetRGBA(2, 2, red)
	s.Set(Radar, radar)

	c := NewCompositor(nil)
	c.Placeholder = color.RGBA{9, 9, 9, 255}
	got, err := c.Composite(s)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds().Size() != image.Pt(8, 5) {
		t.Fatalf("size = %v, want radar size", got.Bounds().Size())
	}
	if rgbaAt(got, 0, 0) != (color.RGBA{9, 9, 9, 255}) {
		t.Fatalf("placeholder pixel = %v", rgbaAt(got, 0, 0))
	}
	if rgbaAt(got, 2, 2) != red {
		t.Fatalf("radar pixel = %v", rgbaAt(got, 2, 2))
	}
}

func TestCompositeEmptyStack(t *testing.T) {
	if _, err := NewCompositor(nil).Composite(NewLayerStack()); !errors.Is(err, ErrEmptyStack) {
		t.Fatalf("err = %v, want ErrEmptyStack", err)
	}
}

func TestCompositeDimensionMismatch(t *testing.T) {
	s := NewLayerStack()
	s.Set(Background, solid(10, 10, blue))
	s.Set(Radar, solid(10, 9, red))
	if _, err := NewCompositor(nil).Composite(s); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestCropBeforeOrAfterCompositeAgree(t *testing.T) {
	s := NewLayerStack()
	bg := solid(6, 24, blue)
	radar := solid(6, 24, transparent)
	loc := solid(6, 24, transparent)
	for y := 0; y < 24; y++ {
		radar.SetRGBA(y%6, y, color.RGBA{uint8(y * 10), 0, 0, uint8(y * 10)})
		loc.SetRGBA((y+3)%6, y, white)
	}
	s.Set(Background, bg)
	s.Set(Radar, radar)
	s.Set(Locations, loc)

	whole, err := NewCompositor(nil).Composite(s)
	if err != nil {
		t.Fatal(err)
	}
	cropAfter := CropTop(whole, 16)

	cropped := s.With(Background, bg)
	cropped.CropTop(16)
	cropBefore, err := NewCompositor(nil).Composite(cropped)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(cropAfter.Pix, cropBefore.Pix) {
		t.Fatal("cropping layers then compositing differs from compositing then cropping")
	}
	if s.Get(Radar).Bounds().Dy() != 24 {
		t.Fatal("cropping a copy changed the original stack")
	}
}

func TestParseLayerRole(t *testing.T) {
	for _, role := range CompositeOrder {
		got, err := ParseLayerRole(role.String())
		if err != nil || got != role {
			t.Fatalf("ParseLayerRole(%q) = %v, %v", role.String(), got, err)
		}
	}
	if _, err := ParseLayerRole("clouds"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
