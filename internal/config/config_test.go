package config

import (
	"os"
	"path/filepath"
	"testing"

	"docenhance/internal/document"
	"docenhance/internal/ocr"
	"docenhance/internal/processing/filters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docenhance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "contrast_results", cfg.OutputDir)
	assert.Equal(t, 300, cfg.Raster.DPI)
	assert.Equal(t, "processed-imgs", cfg.Raster.ImagesDir)
	assert.Equal(t, ocr.PSM_AUTO, cfg.OCR.PSM)
	assert.Equal(t, []string{"eng"}, cfg.OCR.Languages)
	assert.Equal(t, filters.DefaultParams(), cfg.Enhance)
	assert.Empty(t, cfg.Sections)

	technique, err := cfg.PreprocessTechnique()
	require.NoError(t, err)
	assert.Empty(t, technique)
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
output_dir: out
naming: prefixed
enhance:
  gamma: 2.0
  clahe:
    clip_limit: 3.5
raster:
  engine: pdftoppm
ocr:
  psm: 6
  languages: [eng, fra]
  preprocess: clahe
sections:
  - name: cover_page
    pages: [1]
  - name: truth_poem
    file: poem.txt
    pages: [9, 10]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "prefixed", cfg.Naming)
	assert.Equal(t, 2.0, cfg.Enhance.Gamma)
	assert.Equal(t, 3.5, cfg.Enhance.CLAHE.ClipLimit)
	assert.Equal(t, 8, cfg.Enhance.CLAHE.TileGrid.X, "unset fields keep defaults")
	assert.Equal(t, "pdftoppm", cfg.Raster.Engine)
	assert.Equal(t, 300, cfg.Raster.DPI)
	assert.Equal(t, ocr.PSM_SINGLE_BLOCK, cfg.OCR.PSM)
	assert.Equal(t, []string{"eng", "fra"}, cfg.OCR.Languages)
	require.Len(t, cfg.Sections, 2)
	assert.Equal(t, []int{9, 10}, cfg.Sections[1].Pages)

	technique, err := cfg.PreprocessTechnique()
	require.NoError(t, err)
	assert.Equal(t, filters.CLAHE, technique)

	pc := cfg.PipelineConfig()
	assert.Equal(t, "out", pc.OutputDir)
	assert.Equal(t, 2.0, pc.Params.Gamma)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "gama: 2\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeConfig(t, "workers: [\n"))
	assert.Error(t, err)

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("DOCENHANCE_OUTPUT_DIR", "/tmp/results")
	t.Setenv("DOCENHANCE_WORKERS", "2")
	t.Setenv("DOCENHANCE_LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warning", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/results", cfg.OutputDir)
	assert.Equal(t, 2, cfg.Workers)

	t.Setenv("DEBUG", "1")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv("DOCENHANCE_WORKERS", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"output dir", func(c *Config) { c.OutputDir = "" }},
		{"naming", func(c *Config) { c.Naming = "odd" }},
		{"workers", func(c *Config) { c.Workers = 0 }},
		{"gamma", func(c *Config) { c.Enhance.Gamma = -1 }},
		{"dpi", func(c *Config) { c.Raster.DPI = 0 }},
		{"images dir", func(c *Config) { c.Raster.ImagesDir = "" }},
		{"psm", func(c *Config) { c.OCR.PSM = 20 }},
		{"preprocess", func(c *Config) { c.OCR.Preprocess = "median" }},
		{"section", func(c *Config) { c.Sections = []document.Section{{Name: "x"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
