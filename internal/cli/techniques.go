package cli

import (
	"fmt"
	"io"

	"docenhance/internal/pipeline"

	"github.com/spf13/cobra"
)

const techniquesText = `1. GLOBAL HISTOGRAM EQUALIZATION
   - Spreads pixel intensities across the full range
   - Can over-enhance some areas and lose local detail
   - Best for: images with poor global contrast

2. CLAHE (Contrast Limited Adaptive Histogram Equalization)
   - Equalizes small tiles and interpolates between them
   - The clip limit stops noise from being over-amplified
   - Best for: uneven lighting across the page

3. GAMMA CORRECTION
   - Remaps intensities with out = 255 * (in/255)^(1/gamma)
   - gamma > 1: brightens, spreads contrast in dark areas
   - gamma < 1: darkens, spreads contrast in bright areas
   - Best for: fine control over brightness

4. UNSHARP MASKING
   - Adds back the difference between the image and a blurred copy
   - Makes faded or soft text edges crisper
   - Best for: blurry text
`

func (c *cli) techniquesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "techniques",
		Short: "Explain the contrast enhancement techniques",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), techniquesText)
			return err
		},
	}
}

func printResult(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%dx%d, %d channels)\n", res.Input, res.Width, res.Height, res.Channels)
	for _, v := range res.Variants {
		fmt.Fprintf(out, "  %-13s %s (mean %.1f, stddev %.1f)\n", v.Technique, v.Path, v.Stats.Mean, v.Stats.StdDev)
	}
}
