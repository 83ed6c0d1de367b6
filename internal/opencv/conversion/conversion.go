package conversion

import (
	"fmt"
	"image"

	"docenhance/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// MatToImage converts a GoCV Mat to a standard Go image. Single-channel Mats
// become *image.Gray; BGR and BGRA become *image.RGBA.
func MatToImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows := src.Rows()
	cols := src.Cols()
	channels := src.Channels()

	data, err := src.Bytes()
	if err != nil {
		return nil, fmt.Errorf("read Mat data: %w", err)
	}

	switch channels {
	case 1:
		img := image.NewGray(image.Rect(0, 0, cols, rows))
		copy(img.Pix, data)
		return img, nil
	case 3, 4:
		img := image.NewRGBA(image.Rect(0, 0, cols, rows))
		for i, j := 0, 0; i < len(data); i, j = i+channels, j+4 {
			img.Pix[j] = data[i+2]
			img.Pix[j+1] = data[i+1]
			img.Pix[j+2] = data[i]
			img.Pix[j+3] = 255
			if channels == 4 {
				img.Pix[j+3] = data[i+3]
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
}

// ImageToMat converts a standard Go image to a GoCV Mat. *image.Gray yields a
// single-channel Mat, everything else a 3-channel BGR Mat.
func ImageToMat(img image.Image) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if err := safe.ValidateDimensions(width, height, "ImageToMat"); err != nil {
		return nil, err
	}

	if gray, ok := img.(*image.Gray); ok {
		data := make([]byte, 0, width*height)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			offset := gray.PixOffset(bounds.Min.X, y)
			data = append(data, gray.Pix[offset:offset+width]...)
		}
		return safe.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, data)
	}

	data := make([]byte, 0, width*height*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			data = append(data, uint8(b>>8), uint8(g>>8), uint8(r>>8))
		}
	}
	return safe.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, data)
}

// EncodePNG encodes src as PNG bytes.
func EncodePNG(src *safe.Mat) ([]byte, error) {
	if err := safe.ValidateMatForOperation(src, "PNG encoding"); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, src.GetMat())
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
