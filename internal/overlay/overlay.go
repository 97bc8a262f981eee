// Package overlay paints the per-sample color classification over the
// source image for visual debugging.
package overlay

import (
	"fmt"
	stdimage "image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"leaf-doctor/internal/features"
	"leaf-doctor/internal/image"
	"leaf-doctor/internal/sampler"
	"leaf-doctor/pkg/colorutil"
)

// Opacity is the alpha of the classification layer.
const Opacity = 128

// Palette maps each bucket to its overlay color.
var Palette = map[features.Bucket]color.NRGBA{
	features.BucketNone:        colorutil.Magenta,
	features.BucketShadowGreen: colorutil.DarkGreen,
	features.BucketBlack:       colorutil.Black,
	features.BucketDarkGreen:   colorutil.DarkGreen,
	features.BucketGreen:       colorutil.Green,
	features.BucketLightGreen:  colorutil.LightGreen,
	features.BucketLime:        colorutil.LightGreen,
	features.BucketYellow:      colorutil.Yellow,
	features.BucketBrown:       colorutil.Brown,
	features.BucketCrispy:      colorutil.Orange,
	features.BucketWhite:       colorutil.White,
}

// Render returns a copy of buf with every visible sample's stride x stride
// cell tinted by its bucket color. Background samples are left untouched.
func Render(buf *image.PixelBuffer, samples []sampler.PixelSample, stride int) *stdimage.NRGBA {
	if stride < 1 {
		stride = sampler.DefaultStride
	}
	bounds := stdimage.Rect(0, 0, buf.Width, buf.Height)

	dst := stdimage.NewNRGBA(bounds)
	draw.Draw(dst, bounds, buf.Image(), stdimage.Point{}, draw.Src)

	layer := stdimage.NewNRGBA(bounds)
	for _, s := range samples {
		if !s.Visible {
			continue
		}
		c := Palette[features.Classify(s.H, s.S, s.L)]
		cell := stdimage.Rect(s.Pos.X, s.Pos.Y, s.Pos.X+stride, s.Pos.Y+stride).Intersect(bounds)
		draw.Draw(layer, cell, stdimage.NewUniform(c), stdimage.Point{}, draw.Src)
	}

	mask := stdimage.NewUniform(color.Alpha{A: Opacity})
	draw.DrawMask(dst, bounds, layer, stdimage.Point{}, mask, stdimage.Point{}, draw.Over)
	return dst
}

// Save writes img to path as PNG.
func Save(img stdimage.Image, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create overlay: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	return file.Close()
}
