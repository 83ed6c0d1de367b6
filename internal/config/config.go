// Package config loads docenhance settings from a YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"docenhance/internal/document"
	"docenhance/internal/logger"
	"docenhance/internal/ocr"
	"docenhance/internal/pipeline"
	"docenhance/internal/processing/filters"
	"docenhance/internal/raster"

	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RasterConfig struct {
	Engine    string `yaml:"engine"`
	DPI       int    `yaml:"dpi"`
	ImagesDir string `yaml:"images_dir"`
}

type OCRConfig struct {
	Engine      string `yaml:"engine"`
	ocr.Options `yaml:",inline"`
	Preprocess  string `yaml:"preprocess"`
	Clean       bool   `yaml:"clean"`
	OutputDir   string `yaml:"output_dir"`
	ResultsFile string `yaml:"results_file"`
}

// Config is the complete configuration of a docenhance run.
type Config struct {
	Log       LogConfig          `yaml:"log"`
	OutputDir string             `yaml:"output_dir"`
	Naming    string             `yaml:"naming"`
	Workers   int                `yaml:"workers"`
	Report    bool               `yaml:"report"`
	Enhance   filters.Params     `yaml:"enhance"`
	Raster    RasterConfig       `yaml:"raster"`
	OCR       OCRConfig          `yaml:"ocr"`
	Sections  []document.Section `yaml:"sections"`
}

func Default() Config {
	return Config{
		Log:       LogConfig{Level: "info", Format: "console"},
		OutputDir: "contrast_results",
		Naming:    string(pipeline.NamingStandard),
		Workers:   4,
		Enhance:   filters.DefaultParams(),
		Raster: RasterConfig{
			Engine:    "imagick",
			DPI:       raster.DefaultDPI,
			ImagesDir: "processed-imgs",
		},
		OCR: OCRConfig{
			Engine:      "gosseract",
			Options:     ocr.DefaultOptions(),
			Preprocess:  "none",
			Clean:       true,
			OutputDir:   "ocr-pages",
			ResultsFile: "ocr-results.txt",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if path is
// not empty) and then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(b); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) decode(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overlays LOG_LEVEL, DEBUG, DOCENHANCE_LOG_FORMAT,
// DOCENHANCE_OUTPUT_DIR and DOCENHANCE_WORKERS.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if os.Getenv("DEBUG") == "1" {
		c.Log.Level = "debug"
	}
	if v := os.Getenv("DOCENHANCE_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("DOCENHANCE_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("DOCENHANCE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DOCENHANCE_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return nil
}

// PreprocessTechnique returns the OCR preprocessing technique, or "" for
// none.
func (c Config) PreprocessTechnique() (filters.Technique, error) {
	switch strings.ToLower(c.OCR.Preprocess) {
	case "", "none", "off":
		return "", nil
	}
	return filters.ParseTechnique(c.OCR.Preprocess)
}

func (c Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if _, err := pipeline.ParseNaming(c.Naming); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if err := c.Enhance.Validate(); err != nil {
		return err
	}
	if c.Raster.DPI <= 0 {
		return fmt.Errorf("raster dpi must be positive, got %d", c.Raster.DPI)
	}
	if c.Raster.ImagesDir == "" {
		return fmt.Errorf("raster images_dir must not be empty")
	}
	if err := c.OCR.Options.Validate(); err != nil {
		return err
	}
	if _, err := c.PreprocessTechnique(); err != nil {
		return err
	}
	for _, s := range c.Sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PipelineConfig maps the enhancement settings onto a pipeline.Config.
func (c Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		OutputDir: c.OutputDir,
		Naming:    pipeline.Naming(c.Naming),
		Workers:   c.Workers,
		Report:    c.Report,
		Params:    c.Enhance,
	}
}
