package filters

import (
	"context"
	"fmt"
	"math"

	"docenhance/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// UnsharpMaskFilter sharpens by amplifying the difference between the image
// and a Gaussian blurred copy of it.
type UnsharpMaskFilter struct {
	params UnsharpParams
}

func NewUnsharpMaskFilter(params UnsharpParams) *UnsharpMaskFilter {
	return &UnsharpMaskFilter{params: params}
}

func (u *UnsharpMaskFilter) Name() string {
	return string(Unsharp)
}

func (u *UnsharpMaskFilter) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return UnsharpMask(input, u.params)
}

// UnsharpMask computes (1+amount)*src - amount*blur, rounded and saturated to
// [0,255]. With a positive threshold, samples where |src - blur| < threshold
// keep their original value so flat, noisy regions are not sharpened.
func UnsharpMask(src *safe.Mat, params UnsharpParams) (*safe.Mat, error) {
	if err := safe.ValidateGrayscale(src, "unsharp masking"); err != nil {
		return nil, err
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	blurred, err := GaussianBlur(src, params.KernelSize, params.Sigma)
	if err != nil {
		return nil, err
	}
	defer blurred.Close()

	dst, err := safe.NewMatWithTracker(src.Rows(), src.Cols(), gocv.MatTypeCV8UC1, src.Tracker(), string(Unsharp))
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	dstMat := dst.GetMat()
	gocv.AddWeighted(src.GetMat(), 1+params.Amount, blurred.GetMat(), -params.Amount, 0, &dstMat)

	if params.Threshold <= 0 {
		return dst, nil
	}

	masked, err := restoreLowContrast(src, blurred, dst, params.Threshold)
	dst.Close()
	if err != nil {
		return nil, err
	}
	return masked, nil
}

func restoreLowContrast(original, blurred, sharpened *safe.Mat, threshold float64) (*safe.Mat, error) {
	orig, err := original.Bytes()
	if err != nil {
		return nil, err
	}
	blur, err := blurred.Bytes()
	if err != nil {
		return nil, err
	}
	sharp, err := sharpened.Bytes()
	if err != nil {
		return nil, err
	}

	for i := range sharp {
		diff := math.Abs(float64(orig[i]) - float64(blur[i]))
		if diff < threshold {
			sharp[i] = orig[i]
		}
	}

	out, err := safe.NewMatFromBytesWithTracker(original.Rows(), original.Cols(), gocv.MatTypeCV8UC1, sharp, original.Tracker(), string(Unsharp))
	if err != nil {
		return nil, fmt.Errorf("failed to build thresholded result: %w", err)
	}
	return out, nil
}
