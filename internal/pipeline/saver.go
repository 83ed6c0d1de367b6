package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"docenhance/internal/opencv/conversion"
	"docenhance/internal/opencv/safe"
)

type Saver struct {
	logger        Logger
	timingTracker TimingTracker
}

func NewSaver(log Logger, timingTracker TimingTracker) *Saver {
	return &Saver{
		logger:        log,
		timingTracker: timingTracker,
	}
}

// SavePNG encodes mat as PNG into dir/name, creating dir if needed, and
// returns the written path.
func (s *Saver) SavePNG(dir, name string, mat *safe.Mat) (string, error) {
	ctx := s.timingTracker.StartTiming("save_png")
	defer s.timingTracker.EndTiming(ctx)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := conversion.EncodePNG(mat)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error("ImageSaver", err, map[string]interface{}{
			"path": path,
		})
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.logger.Info("ImageSaver", "image saved", map[string]interface{}{
		"path":   path,
		"width":  mat.Cols(),
		"height": mat.Rows(),
	})

	return path, nil
}
