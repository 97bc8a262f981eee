// Package sampler walks a pixel buffer on a fixed stride and produces the
// per-pixel records the rest of the pipeline consumes.
package sampler

import (
	"leaf-doctor/internal/image"
	"leaf-doctor/pkg/colorutil"
	"leaf-doctor/pkg/geometry"
)

// DefaultStride samples every 4th pixel on both axes.
const DefaultStride = 4

// Center weighting falls off linearly to 1-CenterFalloff at the corners.
const CenterFalloff = 0.3

// PixelSample is one sampled pixel.
type PixelSample struct {
	Pos     geometry.PointInt
	R, G, B uint8
	H, S, L float64 // hue 0-360, saturation and lightness 0-1
	Weight  float64
	Visible bool
}

// Brightness returns the channel mean of the sample (0-255).
func (s PixelSample) Brightness() float64 {
	return colorutil.Brightness(s.R, s.G, s.B)
}

// IsBackground reports whether a pixel with the given saturation and
// lightness is blown out or colorless enough to be treated as background.
func IsBackground(s, l float64) bool {
	return l > 0.92 || (s < 0.08 && l > 0.65) || s < 0.04
}

// CenterWeight returns the weight for a pixel at p in a frame whose center
// is at center and whose corners are maxDist away.
func CenterWeight(p, center geometry.Point2D, maxDist float64) float64 {
	if maxDist <= 0 {
		return 1
	}
	return 1 - CenterFalloff*(p.Distance(center)/maxDist)
}

// Count returns the number of samples Sample produces for the given size.
func Count(width, height, stride int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return ((width + stride - 1) / stride) * ((height + stride - 1) / stride)
}

// Sample walks buf in row-major order every stride pixels. Samples are
// returned in scan order; invisible samples are kept so callers that need
// the full grid can use them. A stride below 1 uses DefaultStride.
func Sample(buf *image.PixelBuffer, stride int) []PixelSample {
	if stride < 1 {
		stride = DefaultStride
	}

	frame := geometry.FrameRect(buf.Width, buf.Height)
	center := frame.Center()
	maxDist := frame.CornerDistance()

	samples := make([]PixelSample, 0, Count(buf.Width, buf.Height, stride))
	for y := 0; y < buf.Height; y += stride {
		for x := 0; x < buf.Width; x += stride {
			r, g, b, _ := buf.At(x, y)
			h, s, l := colorutil.RGBToHSL(r, g, b)
			pos := geometry.PointInt{X: x, Y: y}

			samples = append(samples, PixelSample{
				Pos:     pos,
				R:       r,
				G:       g,
				B:       b,
				H:       h,
				S:       s,
				L:       l,
				Weight:  CenterWeight(pos.ToFloat(), center, maxDist),
				Visible: !IsBackground(s, l),
			})
		}
	}
	return samples
}

// Visible returns the visible samples in scan order.
func Visible(samples []PixelSample) []PixelSample {
	out := make([]PixelSample, 0, len(samples))
	for _, s := range samples {
		if s.Visible {
			out = append(out, s)
		}
	}
	return out
}
