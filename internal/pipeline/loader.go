package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"strings"

	"docenhance/internal/opencv/safe"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Loader struct {
	memoryTracker safe.MemoryTracker
	logger        Logger
	timingTracker TimingTracker
}

func NewLoader(memoryTracker safe.MemoryTracker, log Logger, timingTracker TimingTracker) *Loader {
	return &Loader{
		memoryTracker: memoryTracker,
		logger:        log,
		timingTracker: timingTracker,
	}
}

// LoadFile reads and decodes the image at path. A missing path yields
// ErrInputNotFound and undecodable content yields ErrDecode.
func (l *Loader) LoadFile(path string) (*ImageData, error) {
	ctx := l.timingTracker.StartTiming("load_file")
	defer l.timingTracker.EndTiming(ctx)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInputNotFound, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrInputNotFound, path)
	}

	l.logger.Debug("ImageLoader", "loading image", map[string]interface{}{
		"path":       path,
		"size_bytes": info.Size(),
	})

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	imageData, err := l.LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	imageData.Path = path

	return imageData, nil
}

func (l *Loader) LoadFromBytes(data []byte) (*ImageData, error) {
	ctx := l.timingTracker.StartTiming("load_from_bytes")
	defer l.timingTracker.EndTiming(ctx)

	// Read the header first so oversized images are refused before OpenCV
	// allocates the full raster.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := safe.ValidateDimensions(cfg.Width, cfg.Height, "load"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	cvCtx := l.timingTracker.StartTiming("opencv_decode")
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	l.timingTracker.EndTiming(cvCtx)

	if err != nil {
		mat.Close()
		return nil, fmt.Errorf("%w: opencv: %v", ErrDecode, err)
	}

	safeMat, err := safe.Adopt(mat, l.memoryTracker, "loaded_image")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	imageData := &ImageData{
		Mat:      safeMat,
		Width:    safeMat.Cols(),
		Height:   safeMat.Rows(),
		Channels: safeMat.Channels(),
		Format:   strings.ToLower(format),
	}

	l.logger.Info("ImageLoader", "image loaded", map[string]interface{}{
		"width":    imageData.Width,
		"height":   imageData.Height,
		"channels": imageData.Channels,
		"format":   imageData.Format,
	})

	return imageData, nil
}
