// Package cli implements the docenhance command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"docenhance/internal/app"
	"docenhance/internal/config"
	"docenhance/internal/ocr"
	"docenhance/internal/pipeline"
	"docenhance/internal/raster"

	"github.com/spf13/cobra"
)

type cli struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	level      string
	logFormat  string
	appOpts    []app.Option
	app        *app.Application
}

// Execute runs the command line with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	return newCLI(stdout, stderr).execute(args)
}

func newCLI(stdout, stderr io.Writer, opts ...app.Option) *cli {
	return &cli{stdout: stdout, stderr: stderr, appOpts: opts}
}

func (c *cli) execute(args []string) int {
	root := c.rootCommand()
	root.SetArgs(args)

	err := root.Execute()
	if c.app != nil {
		defer c.app.Shutdown()
	}
	if err == nil {
		return 0
	}

	if c.app != nil {
		c.app.Logger().Error("CLI", err, map[string]interface{}{
			"kind": errorKind(err),
		})
	} else {
		fmt.Fprintf(c.stderr, "Error: %s\n", err)
	}
	return 1
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrInputNotFound):
		return "input_not_found"
	case errors.Is(err, pipeline.ErrDecode):
		return "decode"
	case errors.Is(err, raster.ErrRasterize):
		return "rasterize"
	case errors.Is(err, ocr.ErrOCR):
		return "ocr"
	}
	return "other"
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           app.AppName,
		Short:         "Contrast enhancement and OCR for scanned newspaper pages",
		Version:       app.AppVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Configuration file (YAML)")
	root.PersistentFlags().StringVarP(&c.level, "level", "l", "", "Log level")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "Log format (console or json)")

	root.AddCommand(
		c.enhanceCommand(),
		c.ocrCommand(),
		c.extractCommand(),
		c.techniquesCommand(),
	)
	return root
}

// setup loads the configuration, lets apply overlay command flags and builds
// the Application.
func (c *cli) setup(apply func(*config.Config) error) (*app.Application, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.level != "" {
		cfg.Log.Level = c.level
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	if apply != nil {
		if err := apply(&cfg); err != nil {
			return nil, err
		}
	}

	a, err := app.NewApplication(cfg, c.appOpts...)
	if err != nil {
		return nil, err
	}
	a.Listen()
	c.app = a
	return a, nil
}

// requireFile returns pipeline.ErrInputNotFound unless path is a regular file.
func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: the file '%s' does not exist", pipeline.ErrInputNotFound, path)
	}
	return nil
}
