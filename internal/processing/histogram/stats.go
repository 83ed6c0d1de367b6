package histogram

import (
	"fmt"
	"image"
	"math"

	"docenhance/internal/opencv/conversion"
	"docenhance/internal/opencv/safe"

	"github.com/anthonynsimon/bild/histogram"
)

// Stats summarises the intensity distribution of a grayscale image. It stands
// in for the histogram plots: two variants can be compared by their spread,
// clipping at the ends and entropy.
type Stats struct {
	Mean    float64 `yaml:"mean"`
	StdDev  float64 `yaml:"stddev"`
	Min     int     `yaml:"min"`
	Max     int     `yaml:"max"`
	P1      int     `yaml:"p1"`
	P99     int     `yaml:"p99"`
	Entropy float64 `yaml:"entropy"`
	Pixels  int     `yaml:"pixels"`

	Bins [256]int `yaml:"-"`
}

// Compute builds Stats from the luminance of img. For grayscale images the
// red channel of the RGBA histogram equals the gray level.
func Compute(img image.Image) Stats {
	h := histogram.NewRGBAHistogram(img)

	var bins [256]int
	copy(bins[:], h.R.Bins)
	return FromBins(bins)
}

// ComputeMat converts mat to a Go image and computes its Stats.
func ComputeMat(mat *safe.Mat) (Stats, error) {
	if err := safe.ValidateGrayscale(mat, "histogram statistics"); err != nil {
		return Stats{}, err
	}

	img, err := conversion.MatToImage(mat)
	if err != nil {
		return Stats{}, fmt.Errorf("convert for histogram: %w", err)
	}
	return Compute(img), nil
}

func FromBins(bins [256]int) Stats {
	s := Stats{Bins: bins, Min: -1}

	var sum float64
	for v, n := range bins {
		if n == 0 {
			continue
		}
		if s.Min < 0 {
			s.Min = v
		}
		s.Max = v
		s.Pixels += n
		sum += float64(v * n)
	}
	if s.Pixels == 0 {
		s.Min = 0
		return s
	}

	total := float64(s.Pixels)
	s.Mean = sum / total

	var variance float64
	for v, n := range bins {
		if n == 0 {
			continue
		}
		d := float64(v) - s.Mean
		variance += d * d * float64(n)

		p := float64(n) / total
		s.Entropy -= p * math.Log2(p)
	}
	s.StdDev = math.Sqrt(variance / total)
	s.P1 = percentile(bins, total, 0.01)
	s.P99 = percentile(bins, total, 0.99)

	return s
}

// percentile returns the smallest intensity whose cumulative share reaches q.
func percentile(bins [256]int, total, q float64) int {
	target := q * total
	var cum float64
	for v, n := range bins {
		cum += float64(n)
		if cum >= target {
			return v
		}
	}
	return 255
}
