// Package presence decides whether an image plausibly shows a plant before
// any condition scoring runs.
//
// The gate uses its own unweighted RGB measurements over every sample,
// background included, so it does not depend on the foreground mask.
package presence

import (
	"fmt"
	"math"

	"leaf-doctor/internal/sampler"

	"gonum.org/v1/gonum/stat"
)

const (
	// MinConfidence is the lowest gate confidence that can pass.
	MinConfidence = 40
	// MinCriteria is the number of independent criteria that must hold.
	MinCriteria = 2

	edgeDiffThreshold = 30
	textureWindow     = 5
)

// Metrics are the raw measurements the gate scores.
type Metrics struct {
	GreenRatio          float64 `json:"greenRatio"`
	BrownRatio          float64 `json:"brownRatio"`
	ColorVariance       float64 `json:"colorVariance"`
	EdgeRatio           float64 `json:"edgeRatio"`
	EdgeIntensity       float64 `json:"edgeIntensity"`
	TextureComplexity   float64 `json:"textureComplexity"`
	ColorUniformity     float64 `json:"colorUniformity"`
	GreenShadeDiversity int     `json:"greenShadeDiversity"`
	SampleCount         int     `json:"sampleCount"`
}

// Criterion is one independent plant-likeness check.
type Criterion struct {
	Name string `json:"name"`
	Met  bool   `json:"met"`
}

// Result is the gate decision.
type Result struct {
	Detected    bool        `json:"detected"`
	Confidence  int         `json:"confidence"`
	Score       int         `json:"score"`
	CriteriaMet int         `json:"criteriaMet"`
	Criteria    []Criterion `json:"criteria"`
	Metrics     Metrics     `json:"metrics"`
}

// Detect measures samples and evaluates the gate.
func Detect(samples []sampler.PixelSample) Result {
	return Evaluate(Measure(samples))
}

// Measure computes the gate metrics over all samples in scan order.
func Measure(samples []sampler.PixelSample) Metrics {
	n := len(samples)
	m := Metrics{SampleCount: n}
	if n == 0 {
		return m
	}

	var green, brown, edges int
	var variance, intensity float64
	shades := make(map[int]struct{})
	brightness := make([]float64, n)

	for i, p := range samples {
		r, g, b := int(p.R), int(p.G), int(p.B)
		if g > r+20 && g > b+20 && g > 60 && g < 240 {
			green++
			shades[(r+g+b)/3] = struct{}{}
		}
		if r > 80 && g > 60 && b < 100 && absInt(r-g) < 40 {
			brown++
		}

		avg := float64(r+g+b) / 3
		variance += math.Abs(float64(r)-avg) + math.Abs(float64(g)-avg) + math.Abs(float64(b)-avg)
		brightness[i] = avg

		if i > 0 {
			q := samples[i-1]
			diff := absInt(int(q.R)-r) + absInt(int(q.G)-g) + absInt(int(q.B)-b)
			if diff > edgeDiffThreshold {
				edges++
				intensity += float64(diff)
			}
		}
	}

	total := float64(n)
	m.GreenRatio = float64(green) / total
	m.BrownRatio = float64(brown) / total
	m.ColorVariance = variance / total
	m.EdgeRatio = float64(edges) / total
	if edges > 0 {
		m.EdgeIntensity = intensity / float64(edges)
	}
	m.TextureComplexity = textureComplexity(brightness)
	m.GreenShadeDiversity = len(shades)

	_, std := stat.PopMeanStdDev(brightness, nil)
	m.ColorUniformity = 100 - math.Min(100, std)
	return m
}

// textureComplexity is the mean absolute deviation of brightness inside a
// sliding window, averaged over all window positions.
func textureComplexity(brightness []float64) float64 {
	windows := len(brightness) - textureWindow
	if windows <= 0 {
		return 0
	}

	var sum float64
	for i := 0; i < windows; i++ {
		w := brightness[i : i+textureWindow]
		mean := stat.Mean(w, nil)
		var dev float64
		for _, v := range w {
			dev += math.Abs(v - mean)
		}
		sum += dev / textureWindow
	}
	return sum / float64(windows)
}

// Evaluate scores metrics. Penalties and bonuses are independent; the
// confidence is the score shifted by 40 and clamped to [0,100].
func Evaluate(m Metrics) Result {
	score := 0
	if m.ColorUniformity > 85 {
		score -= 50
	}
	if m.EdgeRatio < 0.01 {
		score -= 40
	}
	if m.TextureComplexity < 5 {
		score -= 30
	}

	if m.GreenRatio > 0.2 {
		switch {
		case m.GreenShadeDiversity >= 5:
			score += 25
		case m.GreenShadeDiversity >= 3:
			score += 15
		default:
			score += 5
		}
	}

	if m.EdgeRatio > 0.05 {
		score += 25
	} else if m.EdgeRatio > 0.02 {
		score += 10
	}

	if m.TextureComplexity > 20 {
		score += 20
	} else if m.TextureComplexity > 10 {
		score += 10
	}

	criteria := []Criterion{
		{Name: "green-coverage", Met: m.GreenRatio > 0.1},
		{Name: "edge-density", Met: m.EdgeRatio > 0.01},
		{Name: "texture", Met: m.TextureComplexity > 5},
		{Name: "color-variation", Met: m.ColorUniformity < 85},
		{Name: "green-shades", Met: m.GreenShadeDiversity >= 3},
	}
	met := 0
	for _, c := range criteria {
		if c.Met {
			met++
		}
	}

	confidence := min(100, max(0, score+40))
	return Result{
		Detected:    confidence >= MinConfidence && met >= MinCriteria,
		Confidence:  confidence,
		Score:       score,
		CriteriaMet: met,
		Criteria:    criteria,
		Metrics:     m,
	}
}

// Reasons describes the measurements behind a rejected image.
func (r Result) Reasons() []string {
	m := r.Metrics
	reasons := []string{
		fmt.Sprintf("Plant detection confidence: %d%%", r.Confidence),
		fmt.Sprintf("%d of %d plant criteria met", r.CriteriaMet, len(r.Criteria)),
	}
	for _, c := range r.Criteria {
		if c.Met {
			continue
		}
		switch c.Name {
		case "green-coverage":
			reasons = append(reasons, fmt.Sprintf("Too little green foliage (%.0f%%)", m.GreenRatio*100))
		case "edge-density":
			reasons = append(reasons, "Almost no edges or leaf outlines")
		case "texture":
			reasons = append(reasons, "Surface texture is too smooth for leaf tissue")
		case "color-variation":
			reasons = append(reasons, "Colors are nearly uniform")
		case "green-shades":
			reasons = append(reasons, fmt.Sprintf("Only %d shades of green", m.GreenShadeDiversity))
		}
	}
	return reasons
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
