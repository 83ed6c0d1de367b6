// Package ocr recognizes text in page images through Tesseract.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"docenhance/internal/logger"

	"golang.org/x/text/unicode/norm"
)

// ErrOCR wraps every failure of the recognition engine.
var ErrOCR = errors.New("ocr failed")

// PageSegMode controls how Tesseract partitions a page into text regions
// before recognition.
type PageSegMode int

const (
	PSM_OSD_ONLY               PageSegMode = 0  // Orientation and script detection only
	PSM_AUTO_OSD               PageSegMode = 1  // Automatic with OSD
	PSM_AUTO_ONLY              PageSegMode = 2  // Automatic, no OSD or OCR
	PSM_AUTO                   PageSegMode = 3  // Fully automatic (default)
	PSM_SINGLE_COLUMN          PageSegMode = 4  // Single column of variable sizes
	PSM_SINGLE_BLOCK_VERT_TEXT PageSegMode = 5  // Single uniform block of vertically aligned text
	PSM_SINGLE_BLOCK           PageSegMode = 6  // Single uniform block of text
	PSM_SINGLE_LINE            PageSegMode = 7  // Single text line
	PSM_SINGLE_WORD            PageSegMode = 8  // Single word
	PSM_CIRCLE_WORD            PageSegMode = 9  // Single word in a circle
	PSM_SINGLE_CHAR            PageSegMode = 10 // Single character
	PSM_SPARSE_TEXT            PageSegMode = 11 // Find as much text as possible
	PSM_SPARSE_TEXT_OSD        PageSegMode = 12 // Sparse text with OSD
	PSM_RAW_LINE               PageSegMode = 13 // Treat image as single text line
)

func (m PageSegMode) Valid() bool {
	return m >= PSM_OSD_ONLY && m <= PSM_RAW_LINE
}

// Options configures an Engine.
type Options struct {
	Languages []string    `yaml:"languages"`
	PSM       PageSegMode `yaml:"psm"`
	// DPI is passed to Tesseract as the source resolution. Zero lets the
	// engine guess.
	DPI int `yaml:"dpi"`
}

func DefaultOptions() Options {
	return Options{
		Languages: []string{"eng"},
		PSM:       PSM_AUTO,
	}
}

func (o Options) Validate() error {
	if !o.PSM.Valid() {
		return fmt.Errorf("page segmentation mode must be between 0 and 13, got %d", o.PSM)
	}
	if o.DPI < 0 {
		return fmt.Errorf("ocr dpi must not be negative, got %d", o.DPI)
	}
	for _, l := range o.Languages {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("empty ocr language")
		}
	}
	return nil
}

// Engine recognizes the text of a single page image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// New returns the engine registered under name: "gosseract" (the default,
// linked against libtesseract) or "tesseract" (the command-line tool).
func New(name string, opts Options, log logger.Logger) (Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	switch name {
	case "", "gosseract", "libtesseract":
		return NewTesseractEngine(opts), nil
	case "tesseract", "cli":
		return NewCommandEngine(opts, log), nil
	}
	return nil, fmt.Errorf("unknown ocr engine %q", name)
}

// CleanText normalizes OCR output: NFC composition, control characters
// other than newline and tab removed, trailing spaces trimmed from every line
// and runs of blank lines collapsed to one. The result ends with a single
// newline unless it is empty.
func CleanText(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\f' || r == '\r':
			return '\n'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, text)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}

	cleaned := strings.TrimRight(strings.Join(out, "\n"), "\n")
	if cleaned == "" {
		return ""
	}
	return cleaned + "\n"
}
