package cli

import (
	"fmt"

	"docenhance/internal/config"
	"docenhance/internal/document"
	"docenhance/internal/ocr"

	"github.com/spf13/cobra"
)

type ocrFlags struct {
	images     string
	dpi        int
	rasterizer string
	engine     string
	psm        int
	languages  []string
	preprocess string
	raw        bool
}

func (f *ocrFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.images, "images", "", "Directory for rasterized pages (default processed-imgs)")
	fl.IntVar(&f.dpi, "dpi", 0, "Rasterization resolution (default 300)")
	fl.StringVar(&f.rasterizer, "rasterizer", "", "PDF rasterizer: imagick or pdftoppm")
	fl.StringVar(&f.engine, "engine", "", "OCR engine: gosseract or tesseract")
	fl.IntVar(&f.psm, "psm", 0, "Tesseract page segmentation mode (default 3)")
	fl.StringSliceVar(&f.languages, "lang", nil, "OCR languages (default eng)")
	fl.StringVar(&f.preprocess, "preprocess", "", "Enhance pages before OCR: none, histogram_eq, clahe, gamma, unsharp")
	fl.BoolVar(&f.raw, "raw", false, "Write OCR text exactly as recognized")
}

func (f *ocrFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("images") {
		cfg.Raster.ImagesDir = f.images
	}
	if changed("dpi") {
		cfg.Raster.DPI = f.dpi
	}
	if changed("rasterizer") {
		cfg.Raster.Engine = f.rasterizer
	}
	if changed("engine") {
		cfg.OCR.Engine = f.engine
	}
	if changed("psm") {
		cfg.OCR.PSM = ocr.PageSegMode(f.psm)
	}
	if changed("lang") {
		cfg.OCR.Languages = f.languages
	}
	if changed("preprocess") {
		cfg.OCR.Preprocess = f.preprocess
	}
	if changed("raw") {
		cfg.OCR.Clean = !f.raw
	}
}

func (c *cli) ocrCommand() *cobra.Command {
	var (
		f      ocrFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "ocr PDF",
		Short: "Convert every page of a PDF to images and OCR them into one text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFile(args[0]); err != nil {
				return err
			}

			a, err := c.setup(func(cfg *config.Config) error {
				f.apply(cmd, cfg)
				if cmd.Flags().Changed("output") {
					cfg.OCR.ResultsFile = output
				}
				return nil
			})
			if err != nil {
				return err
			}

			n, err := a.OCR(a.Context(), args[0], "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OCR results for %d page(s) saved to %s\n", n, a.Config().OCR.ResultsFile)
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output text file (default ocr-results.txt)")
	return cmd
}

func (c *cli) extractCommand() *cobra.Command {
	var (
		f         ocrFlags
		specs     []string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "extract PDF --section name=pages[:file] ...",
		Short: "OCR selected pages of a PDF into one text file per section",
		Example: `  docenhance extract TheColoredAmerican.pdf \
    --section cover_page=1 --section truth_poem=9-10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFile(args[0]); err != nil {
				return err
			}

			sections := make([]document.Section, 0, len(specs))
			for _, spec := range specs {
				s, err := document.ParseSection(spec)
				if err != nil {
					return err
				}
				sections = append(sections, s)
			}

			a, err := c.setup(func(cfg *config.Config) error {
				f.apply(cmd, cfg)
				if cmd.Flags().Changed("output_dir") {
					cfg.OCR.OutputDir = outputDir
				}
				if len(sections) > 0 {
					cfg.Sections = sections
				}
				if len(cfg.Sections) == 0 {
					return fmt.Errorf("no sections given: use --section or the sections list of the configuration file")
				}
				return nil
			})
			if err != nil {
				return err
			}

			results, err := a.Extract(a.Context(), args[0], "", nil)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: pages %v saved to %s\n", r.Section.Name, r.Pages, r.Path)
			}
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringArrayVarP(&specs, "section", "s", nil, "Section to extract as name=pages[:file], e.g. truth_poem=9-10")
	cmd.Flags().StringVar(&outputDir, "output_dir", "", "Directory for section text files (default ocr-pages)")
	return cmd
}
