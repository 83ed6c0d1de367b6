package filters

import (
	"fmt"
	"image"
)

// Technique names one of the enhancement branches.
type Technique string

const (
	HistogramEqualization Technique = "histogram_eq"
	CLAHE                 Technique = "clahe"
	Gamma                 Technique = "gamma"
	Unsharp               Technique = "unsharp"
)

// Techniques returns every branch in pipeline order.
func Techniques() []Technique {
	return []Technique{HistogramEqualization, CLAHE, Gamma, Unsharp}
}

// ParseTechnique accepts the canonical names plus a few spellings used on the
// command line.
func ParseTechnique(name string) (Technique, error) {
	switch name {
	case "histogram_eq", "histogram", "equalize", "hist":
		return HistogramEqualization, nil
	case "clahe", "adaptive":
		return CLAHE, nil
	case "gamma":
		return Gamma, nil
	case "unsharp", "sharpen":
		return Unsharp, nil
	}
	return "", fmt.Errorf("unknown technique %q", name)
}

type CLAHEParams struct {
	ClipLimit float64     `yaml:"clip_limit"`
	TileGrid  image.Point `yaml:"tile_grid"`
}

type UnsharpParams struct {
	KernelSize image.Point `yaml:"kernel_size"`
	Sigma      float64     `yaml:"sigma"`
	Amount     float64     `yaml:"amount"`
	Threshold  float64     `yaml:"threshold"`
}

// Params holds the per-technique settings. Values are copied into filters at
// construction and never modified afterwards.
type Params struct {
	CLAHE   CLAHEParams   `yaml:"clahe"`
	Gamma   float64       `yaml:"gamma"`
	Unsharp UnsharpParams `yaml:"unsharp"`
}

func DefaultParams() Params {
	return Params{
		CLAHE: CLAHEParams{
			ClipLimit: 2.0,
			TileGrid:  image.Point{X: 8, Y: 8},
		},
		Gamma: 1.2,
		Unsharp: UnsharpParams{
			KernelSize: image.Point{X: 5, Y: 5},
			Sigma:      1.0,
			Amount:     1.0,
			Threshold:  0,
		},
	}
}

func (p Params) Validate() error {
	if err := p.CLAHE.Validate(); err != nil {
		return err
	}
	if p.Gamma <= 0 {
		return fmt.Errorf("gamma must be positive, got %v", p.Gamma)
	}
	return p.Unsharp.Validate()
}

func (p CLAHEParams) Validate() error {
	if p.ClipLimit <= 0 {
		return fmt.Errorf("clahe clip limit must be positive, got %v", p.ClipLimit)
	}
	if p.TileGrid.X < 1 || p.TileGrid.Y < 1 {
		return fmt.Errorf("clahe tile grid must be at least 1x1, got %dx%d", p.TileGrid.X, p.TileGrid.Y)
	}
	return nil
}

func (p UnsharpParams) Validate() error {
	k := p.KernelSize
	if k.X <= 0 || k.Y <= 0 || k.X%2 == 0 || k.Y%2 == 0 {
		return fmt.Errorf("unsharp kernel size must be odd and positive, got %dx%d", k.X, k.Y)
	}
	if p.Sigma < 0 {
		return fmt.Errorf("unsharp sigma must not be negative, got %v", p.Sigma)
	}
	if p.Amount < 0 {
		return fmt.Errorf("unsharp amount must not be negative, got %v", p.Amount)
	}
	if p.Threshold < 0 {
		return fmt.Errorf("unsharp threshold must not be negative, got %v", p.Threshold)
	}
	return nil
}
