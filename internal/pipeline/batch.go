package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gammazero/workerpool"
)

var batchExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Batch runs a Runner over every image in a directory.
type Batch struct {
	runner  *Runner
	workers int
	logger  Logger
}

func NewBatch(runner *Runner, workers int, log Logger) *Batch {
	if workers < 1 {
		workers = 1
	}
	return &Batch{
		runner:  runner,
		workers: workers,
		logger:  log,
	}
}

// ListImages returns the PNG and JPEG files directly inside dir, sorted by
// name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputNotFound, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if batchExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// RunDir processes every image in dir. All images are attempted; the error
// of the first failing image in name order is returned. With standard naming
// each image gets its own sub-directory so outputs do not overwrite each
// other.
func (b *Batch) RunDir(ctx context.Context, dir string) ([]*Result, error) {
	paths, err := ListImages(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no png or jpeg images in %s", ErrInputNotFound, dir)
	}

	cfg := b.runner.Config()
	results := make([]*Result, len(paths))
	errs := make([]error, len(paths))

	var mu sync.Mutex
	failed := 0

	wp := workerpool.New(b.workers)
	for i, path := range paths {
		wp.Submit(func() {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}

			outputDir := cfg.OutputDir
			if cfg.Naming == NamingStandard {
				base := filepath.Base(path)
				outputDir = filepath.Join(outputDir, strings.TrimSuffix(base, filepath.Ext(base)))
			}

			res, err := b.runner.RunTo(ctx, path, outputDir)
			if err != nil {
				b.logger.Error("Batch", err, map[string]interface{}{
					"input": path,
				})
				mu.Lock()
				failed++
				mu.Unlock()
				errs[i] = err
				return
			}
			results[i] = res
		})
	}
	wp.StopWait()

	b.logger.Info("Batch", "directory processed", map[string]interface{}{
		"dir":    dir,
		"images": len(paths),
		"failed": failed,
	})

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
