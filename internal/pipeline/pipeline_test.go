package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"docenhance/internal/debug/timing"
	"docenhance/internal/logger"
	"docenhance/internal/opencv/memory"
	"docenhance/internal/processing/filters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeTestImage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(60 + (x*80)/w)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func newTestRunner(t *testing.T, cfg Config) (*Runner, *memory.Manager) {
	t.Helper()

	mem := memory.NewManager(nil)
	runner, err := NewRunner(cfg, mem, logger.Nop(), timing.NewTracker(nil))
	require.NoError(t, err)
	return runner, mem
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestRunnerWritesFourVariants(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run("workers", func(t *testing.T) {
			in := t.TempDir()
			out := filepath.Join(t.TempDir(), "contrast_results")
			input := writeTestImage(t, in, "page_1.png", 40, 30)

			runner, mem := newTestRunner(t, Config{
				OutputDir: out,
				Workers:   workers,
				Params:    filters.DefaultParams(),
			})

			result, err := runner.Run(context.Background(), input)
			require.NoError(t, err)
			require.Len(t, result.Variants, 4)
			assert.Equal(t, 40, result.Width)
			assert.Equal(t, 30, result.Height)
			assert.Equal(t, "png", result.Format)

			for _, name := range []string{"histogram_equalized.png", "clahe.png", "gamma_corrected.png", "unsharp_masked.png"} {
				img := decodePNG(t, filepath.Join(out, name))
				assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds(), name)
			}

			for i, technique := range filters.Techniques() {
				assert.Equal(t, technique, result.Variants[i].Technique)
				assert.FileExists(t, result.Variants[i].Path)
			}

			assert.Empty(t, mem.Leaks())
			assert.Zero(t, mem.GetStats().ActiveMats)
		})
	}
}

func TestRunnerPrefixedNamingAndReport(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	input := writeTestImage(t, in, "cover.png", 16, 16)

	runner, _ := newTestRunner(t, Config{
		OutputDir: out,
		Naming:    NamingPrefixed,
		Report:    true,
		Params:    filters.DefaultParams(),
	})

	_, err := runner.Run(context.Background(), input)
	require.NoError(t, err)

	for _, name := range []string{
		"processed_cover_histogram_eq.png",
		"processed_cover_clahe.png",
		"processed_cover_gamma.png",
		"processed_cover_unsharp.png",
	} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	data, err := os.ReadFile(filepath.Join(out, "processed_cover_report.yaml"))
	require.NoError(t, err)

	var report struct {
		Input    string `yaml:"input"`
		Variants []struct {
			Technique string `yaml:"technique"`
		} `yaml:"variants"`
	}
	require.NoError(t, yaml.Unmarshal(data, &report))
	assert.Equal(t, input, report.Input)
	assert.Len(t, report.Variants, 4)
}

func TestRunnerSelectedTechniques(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	input := writeTestImage(t, in, "page.png", 8, 8)

	runner, _ := newTestRunner(t, Config{
		OutputDir:  out,
		Params:     filters.DefaultParams(),
		Techniques: []filters.Technique{filters.Gamma},
	})

	result, err := runner.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, result.Variants, 1)

	_, ok := result.Variant(filters.Gamma)
	assert.True(t, ok)
	assert.NoFileExists(t, filepath.Join(out, "clahe.png"))
}

func TestRunnerInputErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))

	runner, _ := newTestRunner(t, Config{OutputDir: t.TempDir(), Params: filters.DefaultParams()})

	_, err := runner.Run(context.Background(), filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, ErrInputNotFound)

	_, err = runner.Run(context.Background(), dir)
	assert.ErrorIs(t, err, ErrInputNotFound)

	_, err = runner.Run(context.Background(), garbage)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestRunnerCancelled(t *testing.T) {
	input := writeTestImage(t, t.TempDir(), "page.png", 8, 8)
	runner, mem := newTestRunner(t, Config{OutputDir: t.TempDir(), Params: filters.DefaultParams()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, input)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mem.Leaks())
}

func TestNewRunnerRejectsBadConfig(t *testing.T) {
	params := filters.DefaultParams()
	params.Gamma = 0

	tests := []struct {
		name string
		cfg  Config
	}{
		{"no output", Config{Params: filters.DefaultParams()}},
		{"bad naming", Config{OutputDir: "x", Naming: "fancy", Params: filters.DefaultParams()}},
		{"bad params", Config{OutputDir: "x", Params: params}},
		{"bad technique", Config{OutputDir: "x", Params: filters.DefaultParams(), Techniques: []filters.Technique{"blur"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(tt.cfg, memory.NewManager(nil), logger.Nop(), timing.NewTracker(nil))
			assert.Error(t, err)
		})
	}
}

func TestNamingFileName(t *testing.T) {
	assert.Equal(t, "histogram_equalized.png", NamingStandard.FileName(filters.HistogramEqualization, "a/b.png"))
	assert.Equal(t, "gamma_corrected.png", NamingStandard.FileName(filters.Gamma, "a/b.png"))
	assert.Equal(t, "processed_page_9_unsharp.png", NamingPrefixed.FileName(filters.Unsharp, "imgs/page_9.jpeg"))
	assert.Equal(t, "report.yaml", NamingStandard.ReportName("x.png"))

	n, err := ParseNaming("")
	require.NoError(t, err)
	assert.Equal(t, NamingStandard, n)
	_, err = ParseNaming("other")
	assert.Error(t, err)
}

func TestBatchRunDir(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTestImage(t, in, "page_1.png", 12, 10)
	writeTestImage(t, in, "page_2.png", 10, 12)
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("skip"), 0o644))

	runner, mem := newTestRunner(t, Config{OutputDir: out, Params: filters.DefaultParams()})
	batch := NewBatch(runner, 2, logger.Nop())

	results, err := batch.RunDir(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.FileExists(t, filepath.Join(out, "page_1", "clahe.png"))
	assert.FileExists(t, filepath.Join(out, "page_2", "unsharp_masked.png"))
	assert.Empty(t, mem.Leaks())
}

func TestBatchRunDirAttemptsEveryImage(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "a_broken.png"), []byte("nope"), 0o644))
	writeTestImage(t, in, "b_good.png", 8, 8)

	runner, _ := newTestRunner(t, Config{OutputDir: out, Naming: NamingPrefixed, Params: filters.DefaultParams()})
	results, err := NewBatch(runner, 1, logger.Nop()).RunDir(context.Background(), in)

	assert.ErrorIs(t, err, ErrDecode)
	require.Len(t, results, 2)
	assert.Nil(t, results[0])
	assert.NotNil(t, results[1])
	assert.FileExists(t, filepath.Join(out, "processed_b_good_clahe.png"))
}

func TestBatchRunDirEmpty(t *testing.T) {
	runner, _ := newTestRunner(t, Config{OutputDir: t.TempDir(), Params: filters.DefaultParams()})
	_, err := NewBatch(runner, 1, logger.Nop()).RunDir(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrInputNotFound)
}
