package filters

import (
	"context"
	"fmt"
	"image"

	"docenhance/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// CLAHEFilter applies Contrast Limited Adaptive Histogram Equalization
type CLAHEFilter struct {
	params CLAHEParams
}

func NewCLAHEFilter(params CLAHEParams) *CLAHEFilter {
	return &CLAHEFilter{params: params}
}

func (c *CLAHEFilter) Name() string {
	return string(CLAHE)
}

func (c *CLAHEFilter) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return ApplyCLAHE(input, c.params.ClipLimit, c.params.TileGrid)
}

// ApplyCLAHE equalizes each tile of the grid separately with its histogram
// clipped at clipLimit, then interpolates bilinearly between tile mappings.
// Tiles that do not divide the image evenly are handled by OpenCV.
func ApplyCLAHE(src *safe.Mat, clipLimit float64, tileGrid image.Point) (*safe.Mat, error) {
	if err := safe.ValidateGrayscale(src, "CLAHE"); err != nil {
		return nil, err
	}

	if err := (CLAHEParams{ClipLimit: clipLimit, TileGrid: tileGrid}).Validate(); err != nil {
		return nil, err
	}

	dst, err := safe.NewMatWithTracker(src.Rows(), src.Cols(), gocv.MatTypeCV8UC1, src.Tracker(), string(CLAHE))
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	clahe := gocv.NewCLAHEWithParams(clipLimit, tileGrid)
	defer clahe.Close()

	dstMat := dst.GetMat()
	clahe.Apply(src.GetMat(), &dstMat)

	return dst, nil
}
