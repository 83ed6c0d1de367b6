package pipeline

import (
	"context"
	"fmt"
	"time"

	"docenhance/internal/opencv/memory"
	"docenhance/internal/opencv/safe"
	"docenhance/internal/processing/filters"
	"docenhance/internal/processing/histogram"

	"golang.org/x/sync/errgroup"
)

// Config controls a Runner. The zero value of Techniques means every
// technique in pipeline order.
type Config struct {
	OutputDir  string
	Naming     Naming
	Workers    int
	Report     bool
	Params     filters.Params
	Techniques []filters.Technique
}

func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if _, err := ParseNaming(string(c.Naming)); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	for _, t := range c.Techniques {
		if _, err := filters.ParseTechnique(string(t)); err != nil {
			return err
		}
	}
	return c.Params.Validate()
}

// Runner loads one image, converts it to grayscale, applies every configured
// technique to its own copy of the grayscale image and saves the results.
type Runner struct {
	config        Config
	loader        *Loader
	saver         *Saver
	memoryManager *memory.Manager
	logger        Logger
	timingTracker TimingTracker
}

func NewRunner(cfg Config, memoryManager *memory.Manager, log Logger, timingTracker TimingTracker) (*Runner, error) {
	if cfg.Naming == "" {
		cfg.Naming = NamingStandard
	}
	if len(cfg.Techniques) == 0 {
		cfg.Techniques = filters.Techniques()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	return &Runner{
		config:        cfg,
		loader:        NewLoader(memoryManager, log, timingTracker),
		saver:         NewSaver(log, timingTracker),
		memoryManager: memoryManager,
		logger:        log,
		timingTracker: timingTracker,
	}, nil
}

func (r *Runner) Config() Config {
	return r.config
}

// Run processes inputPath into the configured output directory.
func (r *Runner) Run(ctx context.Context, inputPath string) (*Result, error) {
	return r.RunTo(ctx, inputPath, r.config.OutputDir)
}

// RunTo processes inputPath into outputDir. The first failing branch aborts
// the run and its error is returned.
func (r *Runner) RunTo(ctx context.Context, inputPath, outputDir string) (*Result, error) {
	start := time.Now()

	imageData, err := r.loader.LoadFile(inputPath)
	if err != nil {
		return nil, err
	}
	defer imageData.Close()

	grayCtx := r.timingTracker.StartTiming("grayscale")
	gray, err := filters.ConvertToGrayscale(imageData.Mat)
	r.timingTracker.EndTiming(grayCtx)
	if err != nil {
		return nil, fmt.Errorf("grayscale conversion failed: %w", err)
	}
	defer gray.Close()

	original, err := histogram.ComputeMat(gray)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Input:    inputPath,
		Width:    imageData.Width,
		Height:   imageData.Height,
		Channels: imageData.Channels,
		Format:   imageData.Format,
		Original: original,
		Variants: make([]Variant, len(r.config.Techniques)),
	}

	if r.config.Workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.config.Workers)
		for i, technique := range r.config.Techniques {
			g.Go(func() error {
				variant, err := r.runBranch(gctx, technique, gray, inputPath, outputDir)
				if err != nil {
					return err
				}
				result.Variants[i] = variant
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, technique := range r.config.Techniques {
			variant, err := r.runBranch(ctx, technique, gray, inputPath, outputDir)
			if err != nil {
				return nil, err
			}
			result.Variants[i] = variant
		}
	}

	result.Duration = time.Since(start)

	if r.config.Report {
		if _, err := WriteReport(outputDir, r.config.Naming.ReportName(inputPath), result); err != nil {
			return nil, err
		}
	}

	stats := r.memoryManager.GetStats()
	r.logger.Info("Pipeline", "image processed", map[string]interface{}{
		"input":       inputPath,
		"output_dir":  outputDir,
		"variants":    len(result.Variants),
		"duration_ms": result.Duration.Milliseconds(),
		"peak_bytes":  stats.PeakBytes,
	})

	return result, nil
}

func (r *Runner) runBranch(ctx context.Context, technique filters.Technique, gray *safe.Mat, inputPath, outputDir string) (Variant, error) {
	timingCtx := r.timingTracker.StartTiming(string(technique))

	input, err := gray.CloneWithTag(string(technique) + "_input")
	if err != nil {
		return Variant{}, fmt.Errorf("%s: %w", technique, err)
	}
	defer input.Close()

	output, err := filters.Apply(ctx, technique, input, r.config.Params)
	if err != nil {
		return Variant{}, fmt.Errorf("%s failed: %w", technique, err)
	}
	defer output.Close()

	duration := r.timingTracker.EndTiming(timingCtx)

	path, err := r.saver.SavePNG(outputDir, r.config.Naming.FileName(technique, inputPath), output)
	if err != nil {
		return Variant{}, fmt.Errorf("%s: %w", technique, err)
	}

	stats, err := histogram.ComputeMat(output)
	if err != nil {
		return Variant{}, fmt.Errorf("%s: %w", technique, err)
	}

	return Variant{
		Technique: technique,
		Path:      path,
		Duration:  duration,
		Stats:     stats,
	}, nil
}
