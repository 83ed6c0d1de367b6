package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"docenhance/internal/logger"
)

// CommandEngine runs the tesseract binary and reads the text from stdout.
type CommandEngine struct {
	Binary string
	opts   Options
	logger logger.Logger
}

func NewCommandEngine(opts Options, log logger.Logger) *CommandEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &CommandEngine{Binary: "tesseract", opts: opts, logger: log}
}

func (e *CommandEngine) Name() string { return "tesseract" }

func (e *CommandEngine) args(imagePath string) []string {
	args := []string{imagePath, "stdout", "--psm", strconv.Itoa(int(e.opts.PSM))}
	if len(e.opts.Languages) > 0 {
		args = append(args, "-l", strings.Join(e.opts.Languages, "+"))
	}
	if e.opts.DPI > 0 {
		args = append(args, "--dpi", strconv.Itoa(e.opts.DPI))
	}
	return args
}

func (e *CommandEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	args := e.args(imagePath)
	cmd := exec.CommandContext(ctx, e.Binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("OCR", "running tesseract", map[string]interface{}{
		"args": args,
	})

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %s: %v: %s", ErrOCR, imagePath, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
