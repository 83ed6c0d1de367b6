package ocr

import (
	"context"
	"fmt"
	"strconv"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognizes text through libtesseract. A new client is
// created per page since gosseract clients are not safe for concurrent use.
type TesseractEngine struct {
	opts          Options
	clientFactory func() *gosseract.Client
}

func NewTesseractEngine(opts Options) *TesseractEngine {
	return &TesseractEngine{opts: opts, clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "gosseract" }

func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("%w: set image %s: %v", ErrOCR, imagePath, err)
	}
	if len(e.opts.Languages) > 0 {
		if err := c.SetLanguage(e.opts.Languages...); err != nil {
			return "", fmt.Errorf("%w: set languages: %v", ErrOCR, err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(e.opts.PSM)); err != nil {
		return "", fmt.Errorf("%w: set page segmentation mode: %v", ErrOCR, err)
	}
	if e.opts.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(e.opts.DPI)); err != nil {
			return "", fmt.Errorf("%w: set dpi: %v", ErrOCR, err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrOCR, imagePath, err)
	}
	return text, nil
}
