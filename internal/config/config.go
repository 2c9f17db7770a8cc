// Package config loads sketch-layout settings from a YAML file and the
// environment.
//
// Every field has a default, so running without a file works. The file is
// looked up from SKETCH_LAYOUT_CONFIG when no explicit path is given.
//
//	history_path: layout_output.json
//	section_gap: 0.08
//	detector:
//	  backend: sketch
//	  threshold: 128
//	ocr:
//	  language: eng
//	codegen:
//	  enabled: true
//	  model: kwaipilot/kat-coder-pro:free
//	palette: Bright
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized by Load.
const (
	EnvConfigPath  = "SKETCH_LAYOUT_CONFIG"
	EnvLogLevel    = "SKETCH_LAYOUT_LOG_LEVEL"
	EnvHistoryPath = "SKETCH_LAYOUT_HISTORY"
	EnvSectionGap  = "SKETCH_LAYOUT_SECTION_GAP"
)

// Config is the full runtime configuration.
type Config struct {
	LogLevel    string  `yaml:"log_level"`
	LogFormat   string  `yaml:"log_format"`
	HistoryPath string  `yaml:"history_path"`
	SectionGap  float64 `yaml:"section_gap"`
	BBoxFormat  string  `yaml:"bbox_format"`

	Detector DetectorConfig `yaml:"detector"`
	OCR      OCRConfig      `yaml:"ocr"`
	CodeGen  CodeGenConfig  `yaml:"codegen"`

	Palettes map[string][]string `yaml:"palettes"`
	Palette  string              `yaml:"palette"`
}

// DetectorConfig selects and tunes the element detector.
type DetectorConfig struct {
	// Backend is "sketch" (built-in heuristic) or "file" (results of an
	// external model stored as JSON).
	Backend string `yaml:"backend"`

	// Threshold is the gray level (0-255) below which a pixel counts as ink.
	Threshold int `yaml:"threshold"`

	// DilateRadius thickens strokes before grouping so broken lines join.
	DilateRadius float64 `yaml:"dilate_radius"`

	// MinWidth and MinHeight drop components smaller than this fraction of
	// the image.
	MinWidth  float64 `yaml:"min_width"`
	MinHeight float64 `yaml:"min_height"`

	// ResultPath, for the file backend, is a fixed detection JSON. When
	// empty the file next to the image (<name>.detections.json) is used.
	ResultPath string `yaml:"result_path"`

	// Annotate writes <name>_detected.png next to the image on each build.
	Annotate bool `yaml:"annotate"`
}

// OCRConfig tunes the Tesseract recognizer.
type OCRConfig struct {
	Language string `yaml:"language"`

	// UpscaleBelow enlarges images whose width is under this many pixels.
	UpscaleBelow int `yaml:"upscale_below"`

	// Contrast is the contrast adjustment in percent (-100 to 100).
	Contrast float64 `yaml:"contrast"`
}

// CodeGenConfig configures the LLM code generator.
type CodeGenConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`

	// OutputDir, when set, receives each generated page as
	// <output_dir>/<stem>/page.tsx.
	OutputDir string `yaml:"output_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		HistoryPath: "layout_output.json",
		SectionGap:  0.08,
		BBoxFormat:  "normalized_xyxy",
		Detector: DetectorConfig{
			Backend:      "sketch",
			Threshold:    128,
			DilateRadius: 2,
			MinWidth:     0.03,
			MinHeight:    0.02,
		},
		OCR: OCRConfig{
			Language:     "eng",
			UpscaleBelow: 1000,
			Contrast:     20,
		},
		CodeGen: CodeGenConfig{
			Model:       "kwaipilot/kat-coder-pro:free",
			BaseURL:     "https://openrouter.ai/api/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.4,
		},
		Palettes: map[string][]string{
			"Bright": {"#0f172a", "#3b82f6", "#22c55e", "#f59e0b", "#ef4444", "#10b981", "#6366f1", "#f3f4f6"},
			"Calm":   {"#0b1b28", "#1f2937", "#2563eb", "#22d3ee", "#14b8a6", "#94a3b8", "#e2e8f0", "#f8fafc"},
			"Warm":   {"#1c1917", "#be123c", "#f97316", "#f59e0b", "#fbbf24", "#92400e", "#78350f", "#f5f5f4"},
		},
		Palette: "Bright",
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path falls back to SKETCH_LAYOUT_CONFIG; when neither
// is set only defaults and environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvHistoryPath); v != "" {
		c.HistoryPath = v
	}
	if v := os.Getenv(EnvSectionGap); v != "" {
		gap, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSectionGap, err)
		}
		c.SectionGap = gap
	}
	return nil
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks the settings that would otherwise fail deep inside a build.
func (c *Config) Validate() error {
	if c.HistoryPath == "" {
		return fmt.Errorf("%w: history_path is empty", ErrInvalid)
	}
	if c.SectionGap <= 0 {
		return fmt.Errorf("%w: section_gap must be positive, got %v", ErrInvalid, c.SectionGap)
	}
	switch c.Detector.Backend {
	case "sketch", "file":
	default:
		return fmt.Errorf("%w: detector.backend must be sketch or file, got %q", ErrInvalid, c.Detector.Backend)
	}
	if c.Detector.Threshold < 0 || c.Detector.Threshold > 255 {
		return fmt.Errorf("%w: detector.threshold must be 0-255, got %d", ErrInvalid, c.Detector.Threshold)
	}
	switch c.BBoxFormat {
	case "normalized_xyxy", "pixel_xyxy":
	default:
		return fmt.Errorf("%w: bbox_format must be normalized_xyxy or pixel_xyxy, got %q", ErrInvalid, c.BBoxFormat)
	}
	// A sub-pixel gap is the normalized default left in place.
	if c.BBoxFormat == "pixel_xyxy" && c.SectionGap < 1 {
		return fmt.Errorf("%w: section_gap %v looks normalized; pixel_xyxy needs a gap in pixels", ErrInvalid, c.SectionGap)
	}
	if c.OCR.Language == "" {
		return fmt.Errorf("%w: ocr.language is empty", ErrInvalid)
	}
	if c.Palette != "" {
		if _, ok := c.Palettes[c.Palette]; !ok {
			return fmt.Errorf("%w: palette %q is not defined", ErrInvalid, c.Palette)
		}
	}
	return nil
}

// ActivePalette returns the colors of the selected palette, or nil.
func (c *Config) ActivePalette() []string {
	return c.Palettes[c.Palette]
}

// APIKey returns the code generator's API key from the configured variable.
func (c *Config) APIKey() string {
	if c.CodeGen.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.CodeGen.APIKeyEnv)
}
