package raster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docenhance/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePages(t *testing.T) {
	tests := []struct {
		pages   string
		want    []int
		wantErr bool
	}{
		{pages: "1", want: []int{1}},
		{pages: "1,9-10", want: []int{1, 9, 10}},
		{pages: " 10 , 9, 1 ", want: []int{1, 9, 10}},
		{pages: "3-5,4", want: []int{3, 4, 5}},
		{pages: "", wantErr: true},
		{pages: "0", wantErr: true},
		{pages: "5-2", wantErr: true},
		{pages: "a-b", wantErr: true},
		{pages: "1,,x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.pages, func(t *testing.T) {
			got, err := ParsePages(tt.pages)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectPages(t *testing.T) {
	log := logger.Nop()

	assert.Equal(t, []int{1, 2, 3}, SelectPages(log, 3, nil))
	assert.Equal(t, []int{1, 3}, SelectPages(log, 3, []int{1, 3, 9}))
	assert.Empty(t, SelectPages(log, 2, []int{9, 10}))
	assert.Empty(t, SelectPages(log, 0, nil))
}

type fakeRenderer struct {
	pages    int
	rendered []int
	failOn   int
}

func (f *fakeRenderer) PageCount(ctx context.Context, pdfPath string) (int, error) {
	return f.pages, nil
}

func (f *fakeRenderer) renderPage(ctx context.Context, pdfPath string, page, dpi int, outPath string) error {
	if page == f.failOn {
		return errors.Join(ErrRasterize, errors.New("boom"))
	}
	f.rendered = append(f.rendered, page)
	return os.WriteFile(outPath, []byte{}, 0o644)
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func TestRasterizeSkipsMissingPages(t *testing.T) {
	pdf := writePDF(t)
	out := filepath.Join(t.TempDir(), "processed-imgs")
	r := &fakeRenderer{pages: 4}

	pages, err := rasterize(context.Background(), r, logger.Nop(), pdf, out, 0, []int{1, 9, 10})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, Page{Number: 1, Path: filepath.Join(out, "page_1.png")}, pages[0])
	assert.FileExists(t, pages[0].Path)
	assert.Equal(t, []int{1}, r.rendered)
}

func TestRasterizeAllPages(t *testing.T) {
	pdf := writePDF(t)
	r := &fakeRenderer{pages: 3}

	pages, err := rasterize(context.Background(), r, logger.Nop(), pdf, t.TempDir(), 300, nil)
	require.NoError(t, err)
	assert.Len(t, pages, 3)
	assert.Equal(t, []int{1, 2, 3}, r.rendered)
}

func TestRasterizeErrors(t *testing.T) {
	_, err := rasterize(context.Background(), &fakeRenderer{pages: 1}, logger.Nop(), "/does/not/exist.pdf", t.TempDir(), 300, nil)
	assert.ErrorIs(t, err, ErrRasterize)

	_, err = rasterize(context.Background(), &fakeRenderer{pages: 3, failOn: 2}, logger.Nop(), writePDF(t), t.TempDir(), 300, nil)
	assert.ErrorIs(t, err, ErrRasterize)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rasterize(ctx, &fakeRenderer{pages: 3}, logger.Nop(), writePDF(t), t.TempDir(), 300, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParsePdfInfoPages(t *testing.T) {
	out := []byte("Title:          The Colored American\nProducer:       scan\nPages:          12\nEncrypted:      no\n")
	n, err := parsePdfInfoPages(out)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = parsePdfInfoPages([]byte("Title: x\n"))
	assert.ErrorIs(t, err, ErrRasterize)
}

func TestRenderArgs(t *testing.T) {
	args := renderArgs("paper.pdf", 9, 300, "imgs/page_9.png")
	assert.Equal(t, []string{"-r", "300", "-f", "9", "-l", "9", "-png", "-singlefile", "paper.pdf", "imgs/page_9"}, args)
}

func TestNewRasterizer(t *testing.T) {
	r, err := New("pdftoppm", logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &CommandRasterizer{}, r)

	_, err = New("ghostly", logger.Nop())
	assert.Error(t, err)
}
