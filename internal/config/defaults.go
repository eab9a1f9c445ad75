package config

const (
	defaultBaseURL        = "https://reg.bom.gov.au"
	defaultTimeoutSeconds = 10
	defaultCropRows       = 16
	defaultFrameDelayMS   = 500
	defaultMaxColors      = 256
	defaultPaletteMethod  = "coverage"
	defaultPlaceholder    = "#000000"
	defaultOrientation    = "horizontal"
	defaultSeparator      = 1
	defaultTargetWidth    = 800
	defaultTargetHeight   = 480
	defaultResample       = "smooth"
	defaultJoinBackground = "#000000"
	defaultOutputDir      = "."
	defaultFirstName      = "temp_radar_64km.gif"
	defaultSecondName     = "temp_radar_128km.gif"
	defaultFinalPattern   = "bom_radar_{orientation}_animated.gif"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultKeyY           = 428
)

var (
	defaultProducts = []string{
		"https://reg.bom.gov.au/products/IDR024.loop.shtml",
		"https://reg.bom.gov.au/products/IDR023.loop.shtml",
	}
	defaultKeyX = []int{104, 125, 143, 163, 184, 203, 224, 243, 264, 283, 303, 322, 343, 362, 383}
	// Heaviest rainfall (right of the legend) maps to white for e-ink contrast.
	defaultKeyColors = []string{
		"#000000", "#000000", "#000000", "#000000", "#000000",
		"#282828", "#282828", "#646464", "#646464", "#b4b4b4",
		"#b4b4b4", "#ffffff", "#ffffff", "#ffffff", "#ffffff",
	}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Source: Source{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultTimeoutSeconds,
			Products:       append([]string(nil), defaultProducts...),
		},
		Render: Render{
			CropRows:      defaultCropRows,
			FrameDelayMS:  defaultFrameDelayMS,
			MaxColors:     defaultMaxColors,
			PaletteMethod: defaultPaletteMethod,
			Placeholder:   defaultPlaceholder,
		},
		Join: Join{
			Orientation:  defaultOrientation,
			Separator:    defaultSeparator,
			TargetWidth:  defaultTargetWidth,
			TargetHeight: defaultTargetHeight,
			Resample:     defaultResample,
			Background:   defaultJoinBackground,
		},
		Output: Output{
			Dir:          defaultOutputDir,
			FirstName:    defaultFirstName,
			SecondName:   defaultSecondName,
			FinalPattern: defaultFinalPattern,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Recolor: Recolor{
			KeyY: defaultKeyY,
			KeyX: append([]int(nil), defaultKeyX...),
			Rules: []RecolorRule{
				{KeyColors: append([]string(nil), defaultKeyColors...)},
			},
		},
	}
}
