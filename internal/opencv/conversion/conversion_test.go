package conversion

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrayRoundTrip(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 7, 3))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 11)
	}

	mat, err := ImageToMat(src)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 1, mat.Channels())
	assert.Equal(t, 3, mat.Rows())
	assert.Equal(t, 7, mat.Cols())

	out, err := MatToImage(mat)
	require.NoError(t, err)
	gray, ok := out.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, src.Pix, gray.Pix)
}

func TestColorImageBecomesBGR(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 200, G: 100, B: 10, A: 255})
	src.SetRGBA(1, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	mat, err := ImageToMat(src)
	require.NoError(t, err)
	defer mat.Close()

	require.Equal(t, 3, mat.Channels())
	b, err := mat.GetUCharAt3(0, 0, 0)
	require.NoError(t, err)
	r, err := mat.GetUCharAt3(0, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 10, b)
	assert.EqualValues(t, 200, r)

	out, err := MatToImage(mat)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, out.At(1, 0))
}

func TestEncodePNG(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	mat, err := ImageToMat(src)
	require.NoError(t, err)
	defer mat.Close()

	data, err := EncodePNG(mat)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 4, cfg.Height)
}

func TestImageToMatRejectsNil(t *testing.T) {
	_, err := ImageToMat(nil)
	assert.Error(t, err)
}
