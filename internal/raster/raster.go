// Package raster turns PDF pages into PNG images through an external
// renderer.
package raster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"docenhance/internal/logger"
)

// ErrRasterize wraps every failure of the underlying renderer.
var ErrRasterize = errors.New("rasterization failed")

// DefaultDPI is the resolution scanned newspaper pages are rendered at.
const DefaultDPI = 300

// Page is one rendered page. Number is 1-based.
type Page struct {
	Number int
	Path   string
}

type Rasterizer interface {
	PageCount(ctx context.Context, pdfPath string) (int, error)
	// Rasterize renders pages (1-based, all pages when empty) of pdfPath into
	// outDir as page_<n>.png. Pages past the end of the document are skipped
	// with a warning.
	Rasterize(ctx context.Context, pdfPath, outDir string, dpi int, pages []int) ([]Page, error)
}

// PageFileName is the image name used for page n.
func PageFileName(n int) string {
	return fmt.Sprintf("page_%d.png", n)
}

// ParsePages parses a page list such as "1,9-10" into sorted, de-duplicated
// 1-based page numbers.
func ParsePages(spec string) ([]int, error) {
	seen := make(map[int]bool)
	var pages []int

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi := part, part
		if i := strings.Index(part, "-"); i >= 0 {
			lo, hi = strings.TrimSpace(part[:i]), strings.TrimSpace(part[i+1:])
		}

		first, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		last, err := strconv.Atoi(hi)
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		if first < 1 || last < first {
			return nil, fmt.Errorf("invalid page range %q", part)
		}

		for n := first; n <= last; n++ {
			if !seen[n] {
				seen[n] = true
				pages = append(pages, n)
			}
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages in %q", spec)
	}
	sort.Ints(pages)
	return pages, nil
}

// New returns the rasterizer registered under engine: "imagick" (the default)
// or "pdftoppm".
func New(engine string, log logger.Logger) (Rasterizer, error) {
	switch engine {
	case "", "imagick", "magick", "imagemagick":
		return NewMagickRasterizer(log), nil
	case "pdftoppm", "poppler":
		return NewCommandRasterizer(log), nil
	}
	return nil, fmt.Errorf("unknown rasterizer %q", engine)
}

// renderer is the per-page primitive both implementations provide.
type renderer interface {
	PageCount(ctx context.Context, pdfPath string) (int, error)
	renderPage(ctx context.Context, pdfPath string, page, dpi int, outPath string) error
}

func rasterize(ctx context.Context, r renderer, log logger.Logger, pdfPath, outDir string, dpi int, pages []int) ([]Page, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	info, err := os.Stat(pdfPath)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a readable file", ErrRasterize, pdfPath)
	}

	total, err := r.PageCount(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	selected := SelectPages(log, total, pages)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrRasterize, outDir, err)
	}

	log.Info("Rasterizer", "converting pages", map[string]interface{}{
		"pdf":   pdfPath,
		"pages": selected,
		"dpi":   dpi,
	})

	out := make([]Page, 0, len(selected))
	for _, n := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(outDir, PageFileName(n))
		if err := r.renderPage(ctx, pdfPath, n, dpi, path); err != nil {
			return nil, err
		}

		log.Info("Rasterizer", "page saved", map[string]interface{}{
			"page": n,
			"path": path,
		})
		out = append(out, Page{Number: n, Path: path})
	}

	return out, nil
}

// SelectPages returns the requested pages that exist in a document of total
// pages, or every page when requested is empty. Missing pages are logged.
func SelectPages(log logger.Logger, total int, requested []int) []int {
	if len(requested) == 0 {
		all := make([]int, total)
		for i := range all {
			all[i] = i + 1
		}
		return all
	}

	selected := make([]int, 0, len(requested))
	for _, n := range requested {
		if n < 1 || n > total {
			log.Warning("Rasterizer", "page does not exist in PDF", map[string]interface{}{
				"page":  n,
				"total": total,
			})
			continue
		}
		selected = append(selected, n)
	}
	return selected
}
