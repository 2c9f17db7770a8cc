package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sketch-layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvHistoryPath, "")
	t.Setenv(EnvSectionGap, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "layout_output.json", cfg.HistoryPath)
	assert.Equal(t, 0.08, cfg.SectionGap)
	assert.Equal(t, "sketch", cfg.Detector.Backend)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Len(t, cfg.ActivePalette(), 8)
	assert.Equal(t, "#0f172a", cfg.ActivePalette()[0])
}

func TestLoad_File(t *testing.T) {
	t.Setenv(EnvHistoryPath, "")
	t.Setenv(EnvSectionGap, "")
	path := writeConfig(t, `
history_path: out/history.json
section_gap: 25
bbox_format: pixel_xyxy
detector:
  backend: file
  result_path: detections.json
palettes:
  Mono: ["#000000", "#ffffff"]
palette: Mono
codegen:
  enabled: true
  temperature: 0.2
  output_dir: web/app
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out/history.json", cfg.HistoryPath)
	assert.Equal(t, 25.0, cfg.SectionGap)
	assert.Equal(t, "pixel_xyxy", cfg.BBoxFormat)
	assert.Equal(t, "file", cfg.Detector.Backend)
	assert.Equal(t, "detections.json", cfg.Detector.ResultPath)
	assert.Equal(t, 128, cfg.Detector.Threshold, "unset fields keep defaults")
	assert.Equal(t, []string{"#000000", "#ffffff"}, cfg.ActivePalette())
	assert.True(t, cfg.CodeGen.Enabled)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.CodeGen.BaseURL)
	assert.Equal(t, "web/app", cfg.CodeGen.OutputDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "history_path: from-file.json\n")
	t.Setenv(EnvHistoryPath, "from-env.json")
	t.Setenv(EnvSectionGap, "0.05")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env.json", cfg.HistoryPath)
	assert.Equal(t, 0.05, cfg.SectionGap)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, "ocr:\n  language: deu\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "deu", cfg.OCR.Language)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "section_gap: [1, 2"},
		{"zero gap", "section_gap: 0"},
		{"unknown backend", "detector:\n  backend: yolo\n"},
		{"threshold range", "detector:\n  threshold: 300\n"},
		{"missing palette", "palette: Neon\n"},
		{"empty language", "ocr:\n  language: \"\"\n"},
		{"unknown bbox format", "bbox_format: xywh\n"},
		{"pixel format with normalized gap", "bbox_format: pixel_xyxy\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvSectionGap, "")
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_InvalidIsWrapped(t *testing.T) {
	t.Setenv(EnvSectionGap, "")
	_, err := Load(writeConfig(t, "section_gap: -1\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate_PixelFormatNeedsPixelGap(t *testing.T) {
	cfg := Default()
	cfg.BBoxFormat = "pixel_xyxy"

	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "needs a gap in pixels")

	cfg.SectionGap = 80
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadEnvGap(t *testing.T) {
	t.Setenv(EnvSectionGap, "wide")
	_, err := Load(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestAPIKey(t *testing.T) {
	cfg := Default()
	cfg.CodeGen.APIKeyEnv = "SKETCH_LAYOUT_TEST_KEY"
	t.Setenv("SKETCH_LAYOUT_TEST_KEY", "sk-test")
	assert.Equal(t, "sk-test", cfg.APIKey())

	cfg.CodeGen.APIKeyEnv = ""
	assert.Empty(t, cfg.APIKey())
}
