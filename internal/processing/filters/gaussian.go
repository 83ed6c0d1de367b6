package filters

import (
	"fmt"
	"image"

	"docenhance/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// GaussianBlur returns a blurred copy of src. A zero sigma lets OpenCV derive
// it from the kernel size.
func GaussianBlur(src *safe.Mat, kernelSize image.Point, sigma float64) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "gaussian blur"); err != nil {
		return nil, err
	}

	if kernelSize.X <= 0 || kernelSize.Y <= 0 || kernelSize.X%2 == 0 || kernelSize.Y%2 == 0 {
		return nil, fmt.Errorf("gaussian kernel must be odd and positive, got %dx%d", kernelSize.X, kernelSize.Y)
	}

	dst, err := safe.NewMatWithTracker(src.Rows(), src.Cols(), src.Type(), src.Tracker(), "gaussian")
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	dstMat := dst.GetMat()
	gocv.GaussianBlur(src.GetMat(), &dstMat, kernelSize, sigma, sigma, gocv.BorderDefault)

	return dst, nil
}
