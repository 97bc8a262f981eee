// Package image provides image decoding and the pixel buffer consumed by the
// diagnostic pipeline.
package image

import (
	"fmt"
	"image"

	"leaf-doctor/internal/types"

	"golang.org/x/image/draw"
)

// PixelBuffer is a decoded image as tightly packed 8-bit NRGBA, row-major.
// Alpha is not premultiplied into the color channels.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer wraps an RGBA byte slice of width*height*4 bytes.
func NewPixelBuffer(width, height int, rgba []uint8) (*PixelBuffer, error) {
	if width < 0 || height < 0 {
		return nil, types.NewError(types.KindInvalidInput,
			fmt.Sprintf("negative dimensions %dx%d", width, height), nil)
	}
	if len(rgba) != width*height*4 {
		return nil, types.NewError(types.KindInvalidInput,
			fmt.Sprintf("buffer length %d does not match %dx%d RGBA", len(rgba), width, height), nil)
	}
	return &PixelBuffer{Width: width, Height: height, Pix: rgba}, nil
}

// FromRGB builds a buffer from 3-channel input, treating every pixel as opaque.
func FromRGB(width, height int, rgb []uint8) (*PixelBuffer, error) {
	if width < 0 || height < 0 || len(rgb) != width*height*3 {
		return nil, types.NewError(types.KindInvalidInput,
			fmt.Sprintf("buffer length %d does not match %dx%d RGB", len(rgb), width, height), nil)
	}
	pix := make([]uint8, width*height*4)
	for i, j := 0, 0; i < len(rgb); i, j = i+3, j+4 {
		pix[j] = rgb[i]
		pix[j+1] = rgb[i+1]
		pix[j+2] = rgb[i+2]
		pix[j+3] = 255
	}
	return &PixelBuffer{Width: width, Height: height, Pix: pix}, nil
}

// FromImage converts any decoded image into a PixelBuffer.
func FromImage(img image.Image) *PixelBuffer {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	rowLen := w * 4
	pix := make([]uint8, rowLen*h)
	for y := 0; y < h; y++ {
		copy(pix[y*rowLen:(y+1)*rowLen], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+rowLen])
	}
	return &PixelBuffer{Width: w, Height: h, Pix: pix}
}

// At returns the color channels at (x, y). Coordinates must be in range.
func (b *PixelBuffer) At(x, y int) (r, g, bl, a uint8) {
	i := (y*b.Width + x) * 4
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// Image exposes the buffer as an *image.NRGBA sharing the same pixels.
func (b *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Downscale returns a copy whose longer side is at most maxDim pixels.
// The original is returned when it already fits or maxDim <= 0.
func (b *PixelBuffer) Downscale(maxDim int) *PixelBuffer {
	if maxDim <= 0 || (b.Width <= maxDim && b.Height <= maxDim) {
		return b
	}

	w, h := b.Width, b.Height
	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), b.Image(), image.Rect(0, 0, b.Width, b.Height), draw.Src, nil)
	return &PixelBuffer{Width: w, Height: h, Pix: dst.Pix}
}
