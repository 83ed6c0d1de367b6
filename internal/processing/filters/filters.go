package filters

import (
	"context"
	"fmt"

	"docenhance/internal/opencv/safe"
)

// Filter is a single image transform. Apply never modifies input and returns
// a Mat the caller must Close.
type Filter interface {
	Name() string
	Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error)
}

// New returns the filter implementing technique, configured from params.
func New(technique Technique, params Params) (Filter, error) {
	switch technique {
	case HistogramEqualization:
		return NewHistogramEqualizer(), nil
	case CLAHE:
		return NewCLAHEFilter(params.CLAHE), nil
	case Gamma:
		return NewGammaFilter(params.Gamma), nil
	case Unsharp:
		return NewUnsharpMaskFilter(params.Unsharp), nil
	default:
		return nil, fmt.Errorf("unknown technique %q", technique)
	}
}

// Apply runs a single technique on a grayscale image.
func Apply(ctx context.Context, technique Technique, gray *safe.Mat, params Params) (*safe.Mat, error) {
	filter, err := New(technique, params)
	if err != nil {
		return nil, err
	}
	return filter.Apply(ctx, gray)
}
