// Package source locates the overlay and frame URLs of a radar loop page.
package source

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/setanarut/radarloop"
)

const DefaultBaseURL = "https://reg.bom.gov.au"

var (
	ErrNoProductID = errors.New("source: page URL has no product id")
	ErrNoFrames    = errors.New("source: no radar frames on page")

	productIDPattern = regexp.MustCompile(`IDR\d+`)
	framePattern     = regexp.MustCompile(`theImageNames\[\d+\]\s*=\s*"([^"]+)"`)
)

// ProductID extracts the product id (e.g. IDR024) from a loop page URL.
func ProductID(pageURL string) (string, error) {
	id := productIDPattern.FindString(pageURL)
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrNoProductID, pageURL)
	}
	return id, nil
}

// OverlayURLs returns the static transparency URLs for a product.
func OverlayURLs(baseURL, id string) map[radarloop.LayerRole]string {
	baseURL = strings.TrimRight(baseURL, "/")
	urls := make(map[radarloop.LayerRole]string, len(radarloop.OverlayRoles))
	for _, role := range radarloop.OverlayRoles {
		urls[role] = fmt.Sprintf("%s/products/radar_transparencies/%s.%s.png", baseURL, id, role)
	}
	return urls
}

// FrameURLs extracts frame paths from the page markup in page order and
// resolves them against baseURL.
func FrameURLs(baseURL string, page []byte) []string {
	baseURL = strings.TrimRight(baseURL, "/")
	matches := framePattern.FindAllSubmatch(page, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		path := string(m[1])
		if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			urls = append(urls, path)
			continue
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		urls = append(urls, baseURL+path)
	}
	return urls
}

// Discover fetches pageURL and builds the product description.
func Discover(ctx context.Context, f radarloop.Fetcher, pageURL, baseURL string) (radarloop.Product, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	id, err := ProductID(pageURL)
	if err != nil {
		return radarloop.Product{}, err
	}
	page, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return radarloop.Product{}, fmt.Errorf("fetch loop page: %w", err)
	}
	frames := FrameURLs(baseURL, page)
	if len(frames) == 0 {
		return radarloop.Product{}, fmt.Errorf("%w: %s", ErrNoFrames, pageURL)
	}
	return radarloop.Product{
		Name:     id,
		Overlays: OverlayURLs(baseURL, id),
		Frames:   frames,
	}, nil
}
