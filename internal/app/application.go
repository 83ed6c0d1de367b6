package app

import (
	"context"
	"fmt"
	"path/filepath"

	"docenhance/internal/config"
	"docenhance/internal/debug/timing"
	"docenhance/internal/document"
	"docenhance/internal/logger"
	"docenhance/internal/ocr"
	"docenhance/internal/opencv/memory"
	"docenhance/internal/pipeline"
	"docenhance/internal/raster"
	"docenhance/internal/shutdown"

	"github.com/lithammer/shortuuid/v3"
)

const (
	AppName    = "docenhance"
	AppVersion = "1.0.0"
)

// Application wires configuration, logging and the collaborators used by the
// commands. One Application serves one command invocation.
type Application struct {
	config        config.Config
	logger        *logger.ZerologAdapter
	memoryManager *memory.Manager
	timing        *timing.Tracker
	lifecycle     *shutdown.Manager
	rasterizer    raster.Rasterizer
	engine        ocr.Engine
	runID         string
}

type Option func(*Application)

// WithLogger replaces the logger built from the configuration.
func WithLogger(log *logger.ZerologAdapter) Option {
	return func(a *Application) { a.logger = log }
}

// WithRasterizer replaces the configured PDF rasterizer.
func WithRasterizer(r raster.Rasterizer) Option {
	return func(a *Application) { a.rasterizer = r }
}

// WithEngine replaces the configured OCR engine.
func WithEngine(e ocr.Engine) Option {
	return func(a *Application) { a.engine = e }
}

func NewApplication(cfg config.Config, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &Application{
		config: cfg,
		runID:  shortuuid.New()[:8],
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		level, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		a.logger = logger.New(cfg.Log.Format, level)
	}
	a.logger = a.logger.With("run", a.runID)

	a.memoryManager = memory.NewManager(a.logger)
	a.timing = timing.NewTracker(a.logger)
	a.lifecycle = shutdown.NewManager(a.logger)
	a.lifecycle.Register(a.memoryManager)

	a.logger.Debug("Application", "starting", map[string]interface{}{
		"version": AppVersion,
		"workers": cfg.Workers,
	})

	return a, nil
}

func (a *Application) Config() config.Config {
	return a.config
}

func (a *Application) Logger() logger.Logger {
	return a.logger
}

func (a *Application) RunID() string {
	return a.runID
}

// Context is cancelled on SIGINT/SIGTERM once Listen has been called.
func (a *Application) Context() context.Context {
	return a.lifecycle.Context()
}

func (a *Application) Listen() {
	a.lifecycle.Listen()
}

// Shutdown releases collaborators in reverse order and reports leaked Mats.
func (a *Application) Shutdown() {
	a.lifecycle.Shutdown()
}

func (a *Application) newRunner() (*pipeline.Runner, error) {
	return pipeline.NewRunner(a.config.PipelineConfig(), a.memoryManager, a.logger, a.timing)
}

// Enhance runs the enhancement pipeline on one image.
func (a *Application) Enhance(ctx context.Context, imagePath string) (*pipeline.Result, error) {
	runner, err := a.newRunner()
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx, imagePath)
}

// EnhanceDir runs the enhancement pipeline on every image in dir.
func (a *Application) EnhanceDir(ctx context.Context, dir string) ([]*pipeline.Result, error) {
	runner, err := a.newRunner()
	if err != nil {
		return nil, err
	}
	return pipeline.NewBatch(runner, a.config.Workers, a.logger).RunDir(ctx, dir)
}

func (a *Application) extractor() (*document.Extractor, error) {
	if a.rasterizer == nil {
		r, err := raster.New(a.config.Raster.Engine, a.logger)
		if err != nil {
			return nil, err
		}
		if s, ok := r.(shutdown.Shutdownable); ok {
			a.lifecycle.Register(s)
		}
		a.rasterizer = r
	}

	if a.engine == nil {
		opts := a.config.OCR.Options
		if opts.DPI == 0 {
			opts.DPI = a.config.Raster.DPI
		}
		e, err := ocr.New(a.config.OCR.Engine, opts, a.logger)
		if err != nil {
			return nil, err
		}
		a.engine = e
	}

	technique, err := a.config.PreprocessTechnique()
	if err != nil {
		return nil, err
	}

	x := document.NewExtractor(a.rasterizer, a.engine, document.Options{
		ImagesDir:  a.config.Raster.ImagesDir,
		DPI:        a.config.Raster.DPI,
		Preprocess: technique,
		Params:     a.config.Enhance,
		Clean:      a.config.OCR.Clean,
	}, a.logger)
	a.lifecycle.Register(x)

	return x, nil
}

// OCR rasterizes every page of pdfPath and writes their text into outFile.
// An empty outFile selects the configured results file.
func (a *Application) OCR(ctx context.Context, pdfPath, outFile string) (int, error) {
	if outFile == "" {
		outFile = a.config.OCR.ResultsFile
	}

	x, err := a.extractor()
	if err != nil {
		return 0, err
	}

	a.logger.Info("Application", "running OCR on document", map[string]interface{}{
		"pdf":    pdfPath,
		"engine": a.engine.Name(),
	})
	return x.ExtractAll(ctx, pdfPath, filepath.Clean(outFile))
}

// Extract writes the text of each section into outDir, or into the
// configured OCR output directory when outDir is empty.
func (a *Application) Extract(ctx context.Context, pdfPath, outDir string, sections []document.Section) ([]document.SectionResult, error) {
	if outDir == "" {
		outDir = a.config.OCR.OutputDir
	}
	if len(sections) == 0 {
		sections = a.config.Sections
	}

	x, err := a.extractor()
	if err != nil {
		return nil, err
	}
	return x.ExtractSections(ctx, pdfPath, outDir, sections)
}
