package filters

import (
	"context"
	"fmt"
	"math"

	"docenhance/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// GammaLUT maps every 8-bit input intensity to its gamma corrected output.
type GammaLUT [256]uint8

// NewGammaLUT builds out(i) = round(255 * (i/255)^(1/gamma)). The table is
// monotonically non-decreasing for any gamma > 0.
func NewGammaLUT(gamma float64) (GammaLUT, error) {
	var lut GammaLUT
	if gamma <= 0 || math.IsNaN(gamma) || math.IsInf(gamma, 0) {
		return lut, fmt.Errorf("gamma must be a positive finite number, got %v", gamma)
	}

	invGamma := 1.0 / gamma
	for i := range lut {
		v := math.Round(255 * math.Pow(float64(i)/255.0, invGamma))
		lut[i] = uint8(math.Max(0, math.Min(255, v)))
	}
	return lut, nil
}

// GammaFilter remaps samples through a precomputed GammaLUT. With the 1/gamma
// exponent, gamma above 1 lifts dark and mid tones while gamma below 1 pushes
// them down.
type GammaFilter struct {
	gamma float64
}

func NewGammaFilter(gamma float64) *GammaFilter {
	return &GammaFilter{gamma: gamma}
}

func (g *GammaFilter) Name() string {
	return string(Gamma)
}

func (g *GammaFilter) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return ApplyGamma(input, g.gamma)
}

// ApplyGamma accepts images with any number of 8-bit channels; the same table
// is applied to each channel.
func ApplyGamma(src *safe.Mat, gamma float64) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "gamma correction"); err != nil {
		return nil, err
	}

	lut, err := NewGammaLUT(gamma)
	if err != nil {
		return nil, err
	}

	return ApplyLUT(src, lut)
}

// ApplyLUT remaps every sample of src through lut.
func ApplyLUT(src *safe.Mat, lut GammaLUT) (*safe.Mat, error) {
	table, err := safe.NewMatFromBytes(1, len(lut), gocv.MatTypeCV8UC1, lut[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup table Mat: %w", err)
	}
	defer table.Close()

	dst, err := safe.NewMatWithTracker(src.Rows(), src.Cols(), src.Type(), src.Tracker(), string(Gamma))
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}

	dstMat := dst.GetMat()
	gocv.LUT(src.GetMat(), table.GetMat(), &dstMat)

	return dst, nil
}
