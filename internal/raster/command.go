package raster

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"docenhance/internal/logger"
)

// CommandRasterizer renders pages with the poppler command-line tools
// (pdfinfo and pdftoppm).
type CommandRasterizer struct {
	PdfInfo  string
	PdfToPPM string
	logger   logger.Logger
}

func NewCommandRasterizer(log logger.Logger) *CommandRasterizer {
	if log == nil {
		log = logger.Nop()
	}
	return &CommandRasterizer{
		PdfInfo:  "pdfinfo",
		PdfToPPM: "pdftoppm",
		logger:   log,
	}
}

func (c *CommandRasterizer) PageCount(ctx context.Context, pdfPath string) (int, error) {
	out, err := c.run(ctx, c.PdfInfo, pdfPath)
	if err != nil {
		return 0, err
	}
	return parsePdfInfoPages(out)
}

func (c *CommandRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string, dpi int, pages []int) ([]Page, error) {
	return rasterize(ctx, c, c.logger, pdfPath, outDir, dpi, pages)
}

func (c *CommandRasterizer) renderPage(ctx context.Context, pdfPath string, page, dpi int, outPath string) error {
	_, err := c.run(ctx, c.PdfToPPM, renderArgs(pdfPath, page, dpi, outPath)...)
	return err
}

// renderArgs builds the pdftoppm arguments writing page to outPath. With
// -singlefile pdftoppm appends the extension to the output root itself.
func renderArgs(pdfPath string, page, dpi int, outPath string) []string {
	n := strconv.Itoa(page)
	return []string{
		"-r", strconv.Itoa(dpi),
		"-f", n, "-l", n,
		"-png", "-singlefile",
		pdfPath,
		strings.TrimSuffix(outPath, ".png"),
	}
}

func (c *CommandRasterizer) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.logger.Debug("Rasterizer", "running command", map[string]interface{}{
		"command": name,
		"args":    args,
	})

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrRasterize, name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func parsePdfInfoPages(out []byte) (int, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Pages" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("%w: bad page count %q", ErrRasterize, value)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: pdfinfo reported no page count", ErrRasterize)
}
