// Package colorutil provides shared color utilities for the leaf doctor.
package colorutil

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Overlay colors used to paint classified samples.
var (
	Black      = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	White      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	Green      = color.NRGBA{R: 0, G: 200, B: 0, A: 255}
	DarkGreen  = color.NRGBA{R: 0, G: 100, B: 0, A: 255}
	LightGreen = color.NRGBA{R: 150, G: 255, B: 80, A: 255}
	Yellow     = color.NRGBA{R: 255, G: 230, B: 0, A: 255}
	Brown      = color.NRGBA{R: 140, G: 80, B: 20, A: 255}
	Orange     = color.NRGBA{R: 255, G: 140, B: 0, A: 255}
	Magenta    = color.NRGBA{R: 255, G: 0, B: 255, A: 255}
	Gray       = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
)

// RGBToHSL converts 8-bit RGB to HSL (H 0-360, S 0-1, L 0-1).
// Achromatic input yields hue 0 and saturation 0.
func RGBToHSL(r, g, b uint8) (h, s, l float64) {
	c := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
	return c.Hsl()
}

// Brightness returns the plain channel mean (0-255).
func Brightness(r, g, b uint8) float64 {
	return (float64(r) + float64(g) + float64(b)) / 3
}
