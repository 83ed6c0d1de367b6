package filters

import (
	"context"
	"fmt"

	"docenhance/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// HistogramEqualizer spreads intensities over [0,255] by remapping every
// sample through the normalized cumulative histogram of the whole image.
type HistogramEqualizer struct{}

func NewHistogramEqualizer() *HistogramEqualizer {
	return &HistogramEqualizer{}
}

func (h *HistogramEqualizer) Name() string {
	return string(HistogramEqualization)
}

func (h *HistogramEqualizer) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return EqualizeHistogram(input)
}

func EqualizeHistogram(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateGrayscale(src, "histogram equalization"); err != nil {
		return nil, err
	}

	dst, err := safe.NewMatWithTracker(src.Rows(), src.Cols(), gocv.MatTypeCV8UC1, src.Tracker(), string(HistogramEqualization))
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	dstMat := dst.GetMat()
	gocv.EqualizeHist(src.GetMat(), &dstMat)

	return dst, nil
}
