package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"docenhance/internal/opencv/safe"
	"docenhance/internal/processing/filters"
	"docenhance/internal/processing/histogram"
)

var (
	// ErrInputNotFound is returned when the input path is missing or is not a
	// regular file.
	ErrInputNotFound = errors.New("input image not found")
	// ErrDecode is returned when the input exists but is not a decodable image.
	ErrDecode = errors.New("input image could not be decoded")
)

// ImageData is a decoded input image. Mat is owned by the ImageData and
// released by Close.
type ImageData struct {
	Mat      *safe.Mat
	Width    int
	Height   int
	Channels int
	Format   string
	Path     string
}

func (d *ImageData) Close() {
	if d != nil && d.Mat != nil {
		d.Mat.Close()
	}
}

// Naming selects how enhanced variants are named on disk.
type Naming string

const (
	// NamingStandard writes histogram_equalized.png, clahe.png,
	// gamma_corrected.png and unsharp_masked.png.
	NamingStandard Naming = "standard"
	// NamingPrefixed writes processed_<base>_<technique>.png so several inputs
	// can share one output directory.
	NamingPrefixed Naming = "prefixed"
)

func ParseNaming(name string) (Naming, error) {
	switch Naming(strings.ToLower(name)) {
	case "", NamingStandard:
		return NamingStandard, nil
	case NamingPrefixed:
		return NamingPrefixed, nil
	}
	return "", fmt.Errorf("unknown naming scheme %q (want standard or prefixed)", name)
}

var standardNames = map[filters.Technique]string{
	filters.HistogramEqualization: "histogram_equalized.png",
	filters.CLAHE:                 "clahe.png",
	filters.Gamma:                 "gamma_corrected.png",
	filters.Unsharp:               "unsharp_masked.png",
}

// FileName returns the output file name of technique's variant of inputPath.
func (n Naming) FileName(technique filters.Technique, inputPath string) string {
	if n == NamingPrefixed {
		base := filepath.Base(inputPath)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		return fmt.Sprintf("processed_%s_%s.png", base, technique)
	}

	if name, ok := standardNames[technique]; ok {
		return name
	}
	return string(technique) + ".png"
}

// Variant is one saved enhancement branch.
type Variant struct {
	Technique filters.Technique `yaml:"technique"`
	Path      string            `yaml:"path"`
	Duration  time.Duration     `yaml:"duration"`
	Stats     histogram.Stats   `yaml:"stats"`
}

// Result describes a completed pipeline run over one input image.
type Result struct {
	Input    string          `yaml:"input"`
	Width    int             `yaml:"width"`
	Height   int             `yaml:"height"`
	Channels int             `yaml:"channels"`
	Format   string          `yaml:"format"`
	Original histogram.Stats `yaml:"original"`
	Variants []Variant       `yaml:"variants"`
	Duration time.Duration   `yaml:"duration"`
}

// Variant returns the saved variant for technique, if any.
func (r *Result) Variant(technique filters.Technique) (Variant, bool) {
	for _, v := range r.Variants {
		if v.Technique == technique {
			return v, true
		}
	}
	return Variant{}, false
}
