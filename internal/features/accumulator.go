package features

import "leaf-doctor/internal/sampler"

// Accumulator holds the weighted running sums for one set of samples.
// Sums over disjoint sample sets combine with Merge.
type Accumulator struct {
	midY float64

	Samples int
	Visible int

	Weight        float64
	Brightness    float64
	Saturation    float64
	Green         float64
	DarkGreen     float64
	LightGreen    float64
	Brown         float64
	Crispy        float64
	Yellow        float64
	Black         float64
	White         float64
	Bleached      float64
	BrightPatches float64
	LowSatPatches float64
	VeinContrast  float64
	ShadowDepth   float64
	UpperGreen    float64
	LowerGreen    float64
}

// NewAccumulator returns an empty accumulator for an image of the given
// height. Green in rows above height/2 counts as upper-half green.
func NewAccumulator(height int) *Accumulator {
	return &Accumulator{midY: float64(height) / 2}
}

// Add folds one sample into the sums. Invisible samples only bump the
// sample count.
func (a *Accumulator) Add(p sampler.PixelSample) {
	a.Samples++
	if !p.Visible {
		return
	}
	a.Visible++

	w, s, l := p.Weight, p.S, p.L
	a.Weight += w
	a.Brightness += l * w
	a.Saturation += s * w

	if l > 0.80 {
		a.BrightPatches += w
	}
	if s < 0.15 {
		a.LowSatPatches += w
	}
	if l > 0.85 && s < 0.20 {
		a.Bleached += w
	}

	switch b := Classify(p.H, s, l); b {
	case BucketShadowGreen:
		a.Green += w
		a.DarkGreen += w
		a.ShadowDepth += (0.15 - l) * w
	case BucketBlack:
		a.Black += w
	case BucketDarkGreen, BucketGreen, BucketLightGreen:
		a.Green += w
		if b == BucketDarkGreen {
			a.DarkGreen += w
		} else if b == BucketLightGreen {
			a.LightGreen += w
		}
		if float64(p.Pos.Y) < a.midY {
			a.UpperGreen += w
		} else {
			a.LowerGreen += w
		}
	case BucketLime:
		a.LightGreen += w
		a.Green += w
	case BucketYellow:
		a.Yellow += w
		if s < 0.35 && l > 0.45 {
			a.VeinContrast += w
		}
	case BucketCrispy:
		a.Brown += w
		a.Crispy += w
	case BucketBrown:
		a.Brown += w
	case BucketWhite:
		a.White += w
	}
}

// Merge adds the sums of o into a.
func (a *Accumulator) Merge(o *Accumulator) {
	a.Samples += o.Samples
	a.Visible += o.Visible
	a.Weight += o.Weight
	a.Brightness += o.Brightness
	a.Saturation += o.Saturation
	a.Green += o.Green
	a.DarkGreen += o.DarkGreen
	a.LightGreen += o.LightGreen
	a.Brown += o.Brown
	a.Crispy += o.Crispy
	a.Yellow += o.Yellow
	a.Black += o.Black
	a.White += o.White
	a.Bleached += o.Bleached
	a.BrightPatches += o.BrightPatches
	a.LowSatPatches += o.LowSatPatches
	a.VeinContrast += o.VeinContrast
	a.ShadowDepth += o.ShadowDepth
	a.UpperGreen += o.UpperGreen
	a.LowerGreen += o.LowerGreen
}
