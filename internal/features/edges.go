package features

import (
	"math"

	"leaf-doctor/internal/sampler"
)

// EdgeThreshold is the summed per-channel difference above which two
// neighbouring samples form an edge.
const EdgeThreshold = 80

// EdgeStats summarizes transitions between consecutive samples.
type EdgeStats struct {
	Samples         int
	Edges           int
	HoleEdges       int
	Intensity       float64
	TextureVariance float64
}

// AnalyzeEdges walks consecutive samples in scan order. Pairs further
// apart horizontally than twice the stride straddle a row break and are
// skipped.
func AnalyzeEdges(samples []sampler.PixelSample, stride int) EdgeStats {
	st := EdgeStats{Samples: len(samples)}
	maxGap := 2 * stride

	for i := 0; i+1 < len(samples); i++ {
		p1, p2 := samples[i], samples[i+1]
		if absInt(p1.Pos.X-p2.Pos.X) > maxGap {
			continue
		}

		diff := absDiff(p1.R, p2.R) + absDiff(p1.G, p2.G) + absDiff(p1.B, p2.B)
		if diff > EdgeThreshold {
			st.Edges++
			st.Intensity += float64(diff)

			if (isHoleGreen(p1.H, p1.L) && isHoleDark(p2.L)) ||
				(isHoleGreen(p2.H, p2.L) && isHoleDark(p1.L)) {
				st.HoleEdges++
			}
		}

		dl := p1.L - p2.L
		st.TextureVariance += dl * dl
	}
	return st
}

// EdgeRatio is edges per walked sample.
func (s EdgeStats) EdgeRatio() float64 {
	if s.Samples == 0 {
		return 0
	}
	return float64(s.Edges) / float64(s.Samples)
}

// HoleEdgeRatio is the share of edges that are green/near-black transitions.
func (s EdgeStats) HoleEdgeRatio() float64 {
	if s.Edges == 0 {
		return 0
	}
	return float64(s.HoleEdges) / float64(s.Edges)
}

// MeanIntensity is the average channel difference across detected edges.
func (s EdgeStats) MeanIntensity() float64 {
	if s.Edges == 0 {
		return 0
	}
	return s.Intensity / float64(s.Edges)
}

// TextureScore is the root mean squared lightness step.
func (s EdgeStats) TextureScore() float64 {
	if s.Samples < 2 {
		return 0
	}
	return math.Sqrt(s.TextureVariance / float64(s.Samples-1))
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
