package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/setanarut/radarloop"
	"github.com/setanarut/radarloop/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWhenNoFileExists(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "radarloop", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if len(cfg.Source.Products) != 2 {
		t.Fatalf("expected two default products, got %v", cfg.Source.Products)
	}
	if cfg.Timeout() != 10*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout())
	}
	if cfg.FrameDelay() != radarloop.DefaultDelay {
		t.Fatalf("unexpected frame delay: %v", cfg.FrameDelay())
	}
	q := cfg.Quantizer()
	if q.MaxColors != radarloop.MaxPaletteSize {
		t.Fatalf("unexpected max colors: %d", q.MaxColors)
	}

	spec, err := cfg.JoinSpec()
	if err != nil {
		t.Fatalf("JoinSpec: %v", err)
	}
	if spec.Orientation != radarloop.Horizontal || spec.Separator != 1 {
		t.Fatalf("unexpected join spec: %+v", spec)
	}
	if spec.Target.X != 800 || spec.Target.Y != 480 {
		t.Fatalf("unexpected target: %v", spec.Target)
	}

	rules, err := cfg.RemapRules()
	if err != nil {
		t.Fatalf("RemapRules: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected the legend rule by default, got %d rules", len(rules))
	}
	if _, ok := rules[0].(radarloop.KeyRule); !ok {
		t.Fatalf("expected a KeyRule, got %T", rules[0])
	}
}

func TestLoadParsesFile(t *testing.T) {
	outDir := t.TempDir()
	path := writeConfig(t, `
[render]
max_colors = 32
palette_method = "KMeans"
placeholder = "#112233"

[join]
orientation = "vertical"
separator = 4
target_width = 0
target_height = 0
resample = "nearest"

[output]
dir = "`+outDir+`"
final_pattern = "loop_{orientation}.gif"

[logging]
level = "debug"
format = "json"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be loaded, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Render.PaletteMethod != "kmeans" {
		t.Fatalf("palette method not normalized: %q", cfg.Render.PaletteMethod)
	}
	if r, g, b, _ := cfg.PlaceholderColor().RGBA(); r>>8 != 0x11 || g>>8 != 0x22 || b>>8 != 0x33 {
		t.Fatalf("unexpected placeholder color")
	}

	spec, err := cfg.JoinSpec()
	if err != nil {
		t.Fatalf("JoinSpec: %v", err)
	}
	if spec.Orientation != radarloop.Vertical || spec.Separator != 4 || spec.Resample != radarloop.ResampleNearest {
		t.Fatalf("unexpected join spec: %+v", spec)
	}
	if spec.Target.X != 0 || spec.Target.Y != 0 {
		t.Fatalf("expected zero target, got %v", spec.Target)
	}
	if got := cfg.FinalPath(spec.Orientation); got != filepath.Join(outDir, "loop_vertical.gif") {
		t.Fatalf("unexpected final path: %q", got)
	}
	if cfg.FirstPath() != filepath.Join(outDir, "temp_radar_64km.gif") {
		t.Fatalf("unexpected first path: %q", cfg.FirstPath())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[render]\nmax_colours = 12\n")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestLoadMissingExplicitPathUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	_, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := map[string]func(*config.Config){
		"one product":      func(c *config.Config) { c.Source.Products = c.Source.Products[:1] },
		"zero timeout":     func(c *config.Config) { c.Source.TimeoutSeconds = 0 },
		"one color":        func(c *config.Config) { c.Render.MaxColors = 1 },
		"too many colors":  func(c *config.Config) { c.Render.MaxColors = 300 },
		"unknown method":   func(c *config.Config) { c.Render.PaletteMethod = "octree" },
		"bad placeholder":  func(c *config.Config) { c.Render.Placeholder = "black" },
		"bad orientation":  func(c *config.Config) { c.Join.Orientation = "diagonal" },
		"half target":      func(c *config.Config) { c.Join.TargetHeight = 0 },
		"negative sep":     func(c *config.Config) { c.Join.Separator = -1 },
		"bad log format":   func(c *config.Config) { c.Logging.Format = "xml" },
		"zero frame delay": func(c *config.Config) { c.Render.FrameDelayMS = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRemapRulesRequireOneSelector(t *testing.T) {
	idx, from, to := 3, 5, 2
	tests := map[string]config.RecolorRule{
		"index and keys": {Index: &idx, Color: "#ffffff", KeyColors: []string{"#000000"}},
		"nothing":        {Color: "#ffffff"},
		"half range":     {From: &from, Color: "#ffffff"},
		"reversed range": {From: &from, To: &to, Color: "#ffffff"},
		"bad color":      {Index: &idx, Color: "white"},
	}
	for name, rule := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Recolor.Rules = []config.RecolorRule{rule}
			_, err := cfg.RemapRules()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "recolor.rules[0]") {
				t.Fatalf("error does not name the rule: %v", err)
			}
		})
	}
}

func TestRemapRulesKeepOrder(t *testing.T) {
	idx, from, to := 7, 0, 3
	cfg := config.Default()
	cfg.Recolor.Rules = []config.RecolorRule{
		{From: &from, To: &to, Color: "#000000"},
		{Index: &idx, Color: "#ffffff"},
	}
	rules, err := cfg.RemapRules()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rules[0].(radarloop.RangeRule); !ok {
		t.Fatalf("rules[0] is %T", rules[0])
	}
	if r, ok := rules[1].(radarloop.IndexRule); !ok || r.Index != 7 {
		t.Fatalf("rules[1] is %#v", rules[1])
	}
}
