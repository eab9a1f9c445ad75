package radarloop

import (
	"fmt"
	"image"
	"strings"
)

// LayerRole names one raster of a radar product. The numeric order is the
// compositing order: terrain beneath precipitation beneath map annotations.
type LayerRole int

const (
	Background LayerRole = iota
	Topography
	Radar
	Locations
	Range

	numLayerRoles
)

// CompositeOrder lists every role bottom -> top.
var CompositeOrder = [numLayerRoles]LayerRole{Background, Topography, Radar, Locations, Range}

// OverlayRoles are the roles fetched once per product and shared by all frames.
var OverlayRoles = []LayerRole{Background, Topography, Locations, Range}

var layerRoleNames = [numLayerRoles]string{"background", "topography", "radar", "locations", "range"}

func (r LayerRole) String() string {
	if r < 0 || r >= numLayerRoles {
		return fmt.Sprintf("LayerRole(%d)", int(r))
	}
	return layerRoleNames[r]
}

func ParseLayerRole(s string) (LayerRole, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range layerRoleNames {
		if name == s {
			return LayerRole(i), nil
		}
	}
	return 0, fmt.Errorf("unknown layer role %q", s)
}

// LayerStack holds at most one raster per role. Any role may be absent.
type LayerStack struct {
	layers [numLayerRoles]*image.RGBA
}

func NewLayerStack() *LayerStack {
	return &LayerStack{}
}

func (s *LayerStack) Set(role LayerRole, img *image.RGBA) {
	s.layers[role] = img
}

func (s *LayerStack) Get(role LayerRole) *image.RGBA {
	return s.layers[role]
}

// With returns a shallow copy of s with role replaced. The shared rasters are
// never mutated, so the copy can be handed to a compositor while s is reused.
func (s *LayerStack) With(role LayerRole, img *image.RGBA) *LayerStack {
	cp := *s
	cp.layers[role] = img
	return &cp
}

// CropTop crops the same number of rows from every present layer.
func (s *LayerStack) CropTop(n int) {
	for i, l := range s.layers {
		if l != nil {
			s.layers[i] = CropTop(l, n)
		}
	}
}

// Size reports the prevailing canvas size: the background's, else that of the
// first present layer in compositing order. ok is false for an empty stack.
func (s *LayerStack) Size() (size image.Point, ok bool) {
	for _, role := range CompositeOrder {
		if l := s.layers[role]; l != nil {
			return l.Bounds().Size(), true
		}
	}
	return image.Point{}, false
}
