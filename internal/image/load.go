package image

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"leaf-doctor/internal/types"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode reads a single image and returns its pixel buffer and format name.
// Any decoder failure is reported as KindImageDecodeFailed.
func Decode(r io.Reader) (*PixelBuffer, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", types.NewError(types.KindImageDecodeFailed, "failed to decode image", err)
	}
	return FromImage(img), format, nil
}

type decodeResult struct {
	buf    *PixelBuffer
	format string
	err    error
}

// DecodeContext is Decode with cancellation. A cancelled call returns the
// context error at once; the decoder finishes in the background and its
// output is dropped.
func DecodeContext(ctx context.Context, r io.Reader) (*PixelBuffer, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	done := make(chan decodeResult, 1)
	go func() {
		buf, format, err := Decode(r)
		done <- decodeResult{buf: buf, format: format, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case res := <-done:
		return res.buf, res.format, res.err
	}
}

// Load opens and decodes the image at path.
func Load(path string) (*PixelBuffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	buf, _, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return buf, nil
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".tiff", ".tif", ".webp", ".bmp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
