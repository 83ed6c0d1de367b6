// Package document runs OCR over rasterized PDF pages and writes the text of
// named sections or of the whole document.
package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docenhance/internal/debug/timing"
	"docenhance/internal/logger"
	"docenhance/internal/ocr"
	"docenhance/internal/opencv/memory"
	"docenhance/internal/pipeline"
	"docenhance/internal/processing/chain"
	"docenhance/internal/processing/filters"
	"docenhance/internal/raster"
)

// Options configures an Extractor.
type Options struct {
	// ImagesDir receives the rasterized pages and any preprocessed variants.
	ImagesDir string
	DPI       int
	// Preprocess, when set, runs OCR on the grayscale page enhanced with this
	// technique instead of on the rendered page.
	Preprocess filters.Technique
	Params     filters.Params
	// Clean applies ocr.CleanText to recognized text.
	Clean bool
}

type Extractor struct {
	rasterizer raster.Rasterizer
	engine     ocr.Engine
	opts       Options
	logger     logger.Logger
	memory     *memory.Manager
	timing     *timing.Tracker
}

func NewExtractor(r raster.Rasterizer, engine ocr.Engine, opts Options, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	if opts.DPI <= 0 {
		opts.DPI = raster.DefaultDPI
	}
	return &Extractor{
		rasterizer: r,
		engine:     engine,
		opts:       opts,
		logger:     log,
		memory:     memory.NewManager(log),
		timing:     timing.NewTracker(log),
	}
}

// SectionResult reports where a section was written.
type SectionResult struct {
	Section Section
	Path    string
	Pages   []int
}

// ExtractSections rasterizes every page referenced by sections once, runs
// OCR on each and writes one text file per section into outDir. A single-page
// section holds the page text as is; multi-page sections prefix each page
// with a "--- Text from page N ---" header. Pages missing from the PDF are
// skipped with a warning, and a single-page section whose page is missing is
// not written.
func (e *Extractor) ExtractSections(ctx context.Context, pdfPath, outDir string, sections []Section) ([]SectionResult, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("no sections to extract")
	}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	pages, err := e.rasterizer.Rasterize(ctx, pdfPath, e.opts.ImagesDir, e.opts.DPI, unionPages(sections))
	if err != nil {
		return nil, err
	}
	images := make(map[int]string, len(pages))
	for _, p := range pages {
		images[p.Number] = p.Path
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	texts := make(map[int]string)
	pageText := func(n int) (string, bool, error) {
		path, ok := images[n]
		if !ok {
			return "", false, nil
		}
		if text, done := texts[n]; done {
			return text, true, nil
		}
		text, err := e.recognize(ctx, path)
		if err != nil {
			return "", false, err
		}
		texts[n] = text
		return text, true, nil
	}

	var results []SectionResult
	for _, s := range sections {
		var buf bytes.Buffer
		var written []int

		for _, n := range s.Pages {
			text, ok, err := pageText(n)
			if err != nil {
				return results, err
			}
			if !ok {
				e.logger.Warning("Extractor", "page image missing, skipping", map[string]interface{}{
					"section": s.Name,
					"page":    n,
				})
				continue
			}

			if len(s.Pages) == 1 {
				buf.WriteString(text)
			} else {
				fmt.Fprintf(&buf, "--- Text from page %d ---\n", n)
				buf.WriteString(text)
				buf.WriteString("\n")
			}
			written = append(written, n)
		}

		if len(s.Pages) == 1 && len(written) == 0 {
			continue
		}

		path := filepath.Join(outDir, s.FileName())
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return results, fmt.Errorf("failed to write %s: %w", path, err)
		}

		e.logger.Info("Extractor", "section saved", map[string]interface{}{
			"section": s.Name,
			"path":    path,
			"pages":   written,
		})
		results = append(results, SectionResult{Section: s, Path: path, Pages: written})
	}

	return results, nil
}

// ExtractAll rasterizes every page and writes the text of all of them, in
// page order, into outFile under "--- Text from page_N.png ---" headers.
func (e *Extractor) ExtractAll(ctx context.Context, pdfPath, outFile string) (int, error) {
	pages, err := e.rasterizer.Rasterize(ctx, pdfPath, e.opts.ImagesDir, e.opts.DPI, nil)
	if err != nil {
		return 0, err
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })

	var buf bytes.Buffer
	for _, p := range pages {
		e.logger.Info("Extractor", "processing page", map[string]interface{}{
			"path": p.Path,
		})

		text, err := e.recognize(ctx, p.Path)
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(&buf, "--- Text from %s ---\n", filepath.Base(p.Path))
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outFile, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", outFile, err)
	}

	e.logger.Info("Extractor", "OCR results saved", map[string]interface{}{
		"path":  outFile,
		"pages": len(pages),
	})
	return len(pages), nil
}

func (e *Extractor) recognize(ctx context.Context, imagePath string) (string, error) {
	if e.opts.Preprocess != "" {
		var err error
		if imagePath, err = e.preprocess(ctx, imagePath); err != nil {
			return "", err
		}
	}

	timingCtx := e.timing.StartTiming("ocr")
	text, err := e.engine.Recognize(ctx, imagePath)
	e.timing.EndTiming(timingCtx)
	if err != nil {
		return "", err
	}

	if e.opts.Clean {
		text = ocr.CleanText(text)
	}
	return text, nil
}

// preprocess writes the enhanced variant of imagePath next to it as
// <page>_<technique>.png and returns its path.
func (e *Extractor) preprocess(ctx context.Context, imagePath string) (string, error) {
	loader := pipeline.NewLoader(e.memory, e.logger, e.timing)
	img, err := loader.LoadFile(imagePath)
	if err != nil {
		return "", err
	}
	defer img.Close()

	c, err := chain.NewPreprocessChain(e.opts.Preprocess, e.opts.Params)
	if err != nil {
		return "", err
	}

	out, err := c.Execute(ctx, img.Mat)
	if err != nil {
		return "", fmt.Errorf("preprocess %s: %w", imagePath, err)
	}
	defer out.Close()

	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	name := fmt.Sprintf("%s_%s.png", base, e.opts.Preprocess)

	return pipeline.NewSaver(e.logger, e.timing).SavePNG(filepath.Dir(imagePath), name, out)
}

// Shutdown reports Mats leaked by preprocessing.
func (e *Extractor) Shutdown() {
	e.memory.Shutdown()
}
