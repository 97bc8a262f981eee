package features

import "math"

// FeatureVector holds the weight-normalized signals extracted from one image.
// Color ratios are shares of TotalWeight; edge and texture figures are per
// visible sample.
type FeatureVector struct {
	GreenRatio      float64 `json:"greenRatio"`
	DarkGreenRatio  float64 `json:"darkGreenRatio"`
	LightGreenRatio float64 `json:"lightGreenRatio"`
	BrownRatio      float64 `json:"brownRatio"`
	YellowRatio     float64 `json:"yellowRatio"`
	BlackRatio      float64 `json:"blackRatio"`
	WhiteRatio      float64 `json:"whiteRatio"`
	CrispyRatio     float64 `json:"crispyRatio"`
	BleachedRatio   float64 `json:"bleachedRatio"`

	AvgBrightness    float64 `json:"avgBrightness"`
	AvgSaturation    float64 `json:"avgSaturation"`
	BrightPatchRatio float64 `json:"brightPatchRatio"`
	LowSatPatchRatio float64 `json:"lowSatPatchRatio"`

	EdgeRatio     float64 `json:"edgeRatio"`
	HoleEdgeRatio float64 `json:"holeEdgeRatio"`
	EdgeIntensity float64 `json:"edgeIntensity"`
	TextureScore  float64 `json:"textureScore"`

	ShadowScore                float64 `json:"shadowScore"`
	GreenDistributionAsymmetry float64 `json:"greenDistributionAsymmetry"`
	VeinContrast               float64 `json:"veinContrast"`

	IsVariegated bool    `json:"isVariegated"`
	TotalWeight  float64 `json:"totalWeight"`
	SampleCount  int     `json:"sampleCount"`
	VisibleCount int     `json:"visibleCount"`
}

// Vector normalizes the sums into a FeatureVector. With no visible weight
// every ratio stays zero.
func (a *Accumulator) Vector(edges EdgeStats) FeatureVector {
	fv := FeatureVector{
		TotalWeight:  a.Weight,
		SampleCount:  a.Samples,
		VisibleCount: a.Visible,
	}
	if a.Weight <= 0 {
		fv.TotalWeight = 0
		return fv
	}

	t := a.Weight
	fv.GreenRatio = a.Green / t
	fv.DarkGreenRatio = a.DarkGreen / t
	fv.LightGreenRatio = a.LightGreen / t
	fv.BrownRatio = a.Brown / t
	fv.YellowRatio = a.Yellow / t
	fv.BlackRatio = a.Black / t
	fv.WhiteRatio = a.White / t
	fv.CrispyRatio = a.Crispy / t
	fv.BleachedRatio = a.Bleached / t
	fv.AvgBrightness = a.Brightness / t
	fv.AvgSaturation = a.Saturation / t
	fv.BrightPatchRatio = a.BrightPatches / t
	fv.LowSatPatchRatio = a.LowSatPatches / t
	fv.ShadowScore = a.ShadowDepth / t
	fv.VeinContrast = a.VeinContrast / t

	if halves := a.UpperGreen + a.LowerGreen; halves > 0 {
		fv.GreenDistributionAsymmetry = math.Abs(a.UpperGreen-a.LowerGreen) / halves
	}

	fv.EdgeRatio = edges.EdgeRatio()
	fv.HoleEdgeRatio = edges.HoleEdgeRatio()
	fv.EdgeIntensity = edges.MeanIntensity()
	fv.TextureScore = edges.TextureScore()

	fv.IsVariegated = fv.DarkGreenRatio > 0.08 && (fv.LightGreenRatio > 0.08 || fv.WhiteRatio > 0.04)
	return fv
}
