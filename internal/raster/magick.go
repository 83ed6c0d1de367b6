package raster

import (
	"context"
	"fmt"
	"sync"

	"docenhance/internal/logger"

	"gopkg.in/gographics/imagick.v2/imagick"
)

var (
	lock     sync.Mutex
	initOnce sync.Once
)

// MagickRasterizer renders pages with ImageMagick, which delegates PDF
// decoding to Ghostscript.
type MagickRasterizer struct {
	logger logger.Logger
}

func NewMagickRasterizer(log logger.Logger) *MagickRasterizer {
	if log == nil {
		log = logger.Nop()
	}
	initOnce.Do(imagick.Initialize)
	return &MagickRasterizer{logger: log}
}

// Shutdown releases the ImageMagick environment. No MagickRasterizer may be
// used afterwards.
func (m *MagickRasterizer) Shutdown() {
	lock.Lock()
	defer lock.Unlock()
	imagick.Terminate()
}

func (m *MagickRasterizer) PageCount(ctx context.Context, pdfPath string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	lock.Lock()
	defer lock.Unlock()

	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.PingImage(pdfPath); err != nil {
		return 0, fmt.Errorf("%w: read %s: %v", ErrRasterize, pdfPath, err)
	}
	return int(mw.GetNumberImages()), nil
}

func (m *MagickRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string, dpi int, pages []int) ([]Page, error) {
	return rasterize(ctx, m, m.logger, pdfPath, outDir, dpi, pages)
}

func (m *MagickRasterizer) renderPage(ctx context.Context, pdfPath string, page, dpi int, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock.Lock()
	defer lock.Unlock()

	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	// Resolution must be set before reading or the PDF is rendered at 72 DPI.
	if err := mw.SetResolution(float64(dpi), float64(dpi)); err != nil {
		return fmt.Errorf("%w: set resolution: %v", ErrRasterize, err)
	}
	if err := mw.ReadImage(fmt.Sprintf("%s[%d]", pdfPath, page-1)); err != nil {
		return fmt.Errorf("%w: read page %d: %v", ErrRasterize, page, err)
	}

	bg := imagick.NewPixelWand()
	defer bg.Destroy()
	bg.SetColor("white")

	if err := mw.SetImageBackgroundColor(bg); err != nil {
		return fmt.Errorf("%w: page %d: %v", ErrRasterize, page, err)
	}
	if err := mw.SetImageAlphaChannel(imagick.ALPHA_CHANNEL_REMOVE); err != nil {
		return fmt.Errorf("%w: page %d: %v", ErrRasterize, page, err)
	}
	if err := mw.SetImageFormat("png"); err != nil {
		return fmt.Errorf("%w: page %d: %v", ErrRasterize, page, err)
	}
	if err := mw.WriteImage(outPath); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrRasterize, outPath, err)
	}
	return nil
}
