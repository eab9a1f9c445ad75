package config

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/setanarut/radarloop"
	"github.com/setanarut/radarloop/utils"
)

// Source describes where loop pages and images come from.
type Source struct {
	BaseURL        string   `toml:"base_url"`
	UserAgent      string   `toml:"user_agent"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Products       []string `toml:"products"`
}

// Render controls per-product compositing and quantization.
type Render struct {
	CropRows      int    `toml:"crop_rows"`
	FrameDelayMS  int    `toml:"frame_delay_ms"`
	MaxColors     int    `toml:"max_colors"`
	PaletteMethod string `toml:"palette_method"` // coverage, dominantcolor or kmeans
	Placeholder   string `toml:"placeholder"`    // fill of a missing background
}

// Join controls how the two product animations are combined.
type Join struct {
	Orientation  string `toml:"orientation"` // horizontal or vertical
	Separator    int    `toml:"separator"`
	TargetWidth  int    `toml:"target_width"` // 0 with target_height 0 keeps the joined size
	TargetHeight int    `toml:"target_height"`
	Resample     string `toml:"resample"` // smooth or nearest
	Background   string `toml:"background"`
}

// Output names the artifacts written by a build.
type Output struct {
	Dir          string `toml:"dir"`
	FirstName    string `toml:"first_name"`
	SecondName   string `toml:"second_name"`
	FinalPattern string `toml:"final_pattern"` // {orientation} is replaced
	Timestamp    bool   `toml:"timestamp"`
	FramesDir    string `toml:"frames_dir"` // when set, composited frames are also saved as PNG
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// RecolorRule is one palette rewrite. Exactly one of Index, From/To or
// KeyColors selects the indices.
type RecolorRule struct {
	Index     *int     `toml:"index"`
	From      *int     `toml:"from"`
	To        *int     `toml:"to"`
	Color     string   `toml:"color"`
	KeyColors []string `toml:"key_colors"`
}

// Recolor holds the legend sampling points and the ordered rule list.
type Recolor struct {
	KeyY  int           `toml:"key_y"`
	KeyX  []int         `toml:"key_x"`
	Rules []RecolorRule `toml:"rules"`
}

// Config encapsulates all configuration values for radarloop.
type Config struct {
	Source  Source  `toml:"source"`
	Render  Render  `toml:"render"`
	Join    Join    `toml:"join"`
	Output  Output  `toml:"output"`
	Logging Logging `toml:"logging"`
	Recolor Recolor `toml:"recolor"`
}

// Load locates, parses, and validates a configuration file.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/radarloop/config.toml")
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("radarloop.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}

func (c *Config) normalize() error {
	c.Source.BaseURL = strings.TrimRight(strings.TrimSpace(c.Source.BaseURL), "/")
	c.Render.PaletteMethod = strings.ToLower(strings.TrimSpace(c.Render.PaletteMethod))
	c.Join.Orientation = strings.ToLower(strings.TrimSpace(c.Join.Orientation))
	c.Join.Resample = strings.ToLower(strings.TrimSpace(c.Join.Resample))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	dir, err := expandPath(c.Output.Dir)
	if err != nil {
		return err
	}
	c.Output.Dir = dir
	if c.Output.FramesDir != "" {
		if c.Output.FramesDir, err = expandPath(c.Output.FramesDir); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Source.BaseURL == "" {
		return errors.New("source.base_url must be set")
	}
	if len(c.Source.Products) != 2 {
		return fmt.Errorf("source.products must list exactly two loop pages, got %d", len(c.Source.Products))
	}
	if c.Source.TimeoutSeconds <= 0 {
		return errors.New("source.timeout_seconds must be positive")
	}
	if c.Render.CropRows < 0 {
		return errors.New("render.crop_rows must not be negative")
	}
	if c.Render.FrameDelayMS <= 0 {
		return errors.New("render.frame_delay_ms must be positive")
	}
	if c.Render.MaxColors < 2 || c.Render.MaxColors > radarloop.MaxPaletteSize {
		return fmt.Errorf("render.max_colors must be between 2 and %d", radarloop.MaxPaletteSize)
	}
	if _, err := utils.ParsePaletteMethod(c.Render.PaletteMethod); err != nil {
		return fmt.Errorf("render.palette_method: %w", err)
	}
	if _, err := utils.ParseColor(c.Render.Placeholder); err != nil {
		return fmt.Errorf("render.placeholder: %w", err)
	}
	if _, err := c.JoinSpec(); err != nil {
		return err
	}
	if _, err := c.RemapRules(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

func (c *Config) FrameDelay() time.Duration {
	return time.Duration(c.Render.FrameDelayMS) * time.Millisecond
}

func (c *Config) PlaceholderColor() color.Color {
	col, err := utils.ParseColor(c.Render.Placeholder)
	if err != nil {
		return color.Black
	}
	return col
}

func (c *Config) Quantizer() *radarloop.Quantizer {
	method, _ := utils.ParsePaletteMethod(c.Render.PaletteMethod)
	return &radarloop.Quantizer{MaxColors: c.Render.MaxColors, Method: method}
}

// JoinSpec converts the [join] section.
func (c *Config) JoinSpec() (radarloop.JoinSpec, error) {
	spec := radarloop.DefaultJoinSpec()
	var err error
	if spec.Orientation, err = radarloop.ParseOrientation(c.Join.Orientation); err != nil {
		return spec, fmt.Errorf("join.orientation: %w", err)
	}
	if spec.Resample, err = radarloop.ParseResample(c.Join.Resample); err != nil {
		return spec, fmt.Errorf("join.resample: %w", err)
	}
	bg, err := utils.ParseColor(c.Join.Background)
	if err != nil {
		return spec, fmt.Errorf("join.background: %w", err)
	}
	spec.Background = bg
	spec.Separator = c.Join.Separator
	spec.Target = image.Pt(c.Join.TargetWidth, c.Join.TargetHeight)
	if err := spec.Validate(); err != nil {
		return spec, fmt.Errorf("join: %w", err)
	}
	return spec, nil
}

// FinalPath is the joined artifact path for an orientation.
func (c *Config) FinalPath(o radarloop.Orientation) string {
	name := strings.ReplaceAll(c.Output.FinalPattern, "{orientation}", o.String())
	return filepath.Join(c.Output.Dir, name)
}

func (c *Config) FirstPath() string  { return filepath.Join(c.Output.Dir, c.Output.FirstName) }
func (c *Config) SecondPath() string { return filepath.Join(c.Output.Dir, c.Output.SecondName) }

// RemapRules converts the [[recolor.rules]] list in declared order.
func (c *Config) RemapRules() ([]radarloop.RemapRule, error) {
	rules := make([]radarloop.RemapRule, 0, len(c.Recolor.Rules))
	for i, r := range c.Recolor.Rules {
		rule, err := r.toRule()
		if err != nil {
			return nil, fmt.Errorf("recolor.rules[%d]: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r RecolorRule) toRule() (radarloop.RemapRule, error) {
	kinds := 0
	if r.Index != nil {
		kinds++
	}
	if r.From != nil || r.To != nil {
		kinds++
	}
	if len(r.KeyColors) > 0 {
		kinds++
	}
	if kinds != 1 {
		return nil, errors.New("set exactly one of index, from/to or key_colors")
	}

	if len(r.KeyColors) > 0 {
		cols := make([]color.Color, len(r.KeyColors))
		for i, s := range r.KeyColors {
			col, err := utils.ParseColor(s)
			if err != nil {
				return nil, err
			}
			cols[i] = col
		}
		return radarloop.KeyRule{Colors: cols}, nil
	}

	col, err := utils.ParseColor(r.Color)
	if err != nil {
		return nil, err
	}
	if r.Index != nil {
		if !validIndex(*r.Index) {
			return nil, fmt.Errorf("index %d out of range", *r.Index)
		}
		return radarloop.IndexRule{Index: uint8(*r.Index), Color: col}, nil
	}
	if r.From == nil || r.To == nil {
		return nil, errors.New("range rules need both from and to")
	}
	if !validIndex(*r.From) || !validIndex(*r.To) || *r.From > *r.To {
		return nil, fmt.Errorf("invalid range %d..%d", *r.From, *r.To)
	}
	return radarloop.RangeRule{From: uint8(*r.From), To: uint8(*r.To), Color: col}, nil
}

func validIndex(i int) bool {
	return i >= 0 && i < radarloop.MaxPaletteSize
}
