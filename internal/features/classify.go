// Package features turns sampled pixels into the weighted feature vector
// the condition scorer evaluates.
package features

// Bucket is the semantic color class of one visible sample.
type Bucket int

const (
	BucketNone        Bucket = iota // visible but outside every band
	BucketShadowGreen               // very dark but still green-hued
	BucketBlack
	BucketDarkGreen
	BucketGreen
	BucketLightGreen
	BucketLime // bright saturated yellow-green, counted as green
	BucketYellow
	BucketBrown
	BucketCrispy // pale brown
	BucketWhite
)

var bucketNames = [...]string{
	BucketNone:        "none",
	BucketShadowGreen: "shadow-green",
	BucketBlack:       "black",
	BucketDarkGreen:   "dark-green",
	BucketGreen:       "green",
	BucketLightGreen:  "light-green",
	BucketLime:        "lime",
	BucketYellow:      "yellow",
	BucketBrown:       "brown",
	BucketCrispy:      "crispy-brown",
	BucketWhite:       "white",
}

func (b Bucket) String() string {
	if b < 0 || int(b) >= len(bucketNames) {
		return "unknown"
	}
	return bucketNames[b]
}

// IsGreen reports whether the bucket counts toward green coverage.
func (b Bucket) IsGreen() bool {
	switch b {
	case BucketShadowGreen, BucketDarkGreen, BucketGreen, BucketLightGreen, BucketLime:
		return true
	}
	return false
}

// Classify buckets a pixel by hue (0-360), saturation and lightness (0-1).
// The bands are checked in order and the first match wins.
func Classify(h, s, l float64) Bucket {
	switch {
	case l < 0.15:
		if h > 60 && h < 185 && s > 0.08 {
			return BucketShadowGreen
		}
		return BucketBlack

	case h >= 60 && h <= 185:
		switch {
		case l < 0.40:
			return BucketDarkGreen
		case l > 0.55:
			return BucketLightGreen
		}
		return BucketGreen

	case h >= 35 && h < 60:
		if l > 0.50 && s > 0.40 {
			return BucketLime
		}
		return BucketYellow

	case h < 35 || h > 340:
		if l > 0.12 && l < 0.70 {
			if l > 0.45 && s < 0.50 {
				return BucketCrispy
			}
			return BucketBrown
		}
		return BucketNone

	case l > 0.80 && s < 0.20:
		return BucketWhite
	}
	return BucketNone
}

// isHoleGreen and isHoleDark define the two sides of a hole edge.
func isHoleGreen(h, l float64) bool { return h > 60 && h < 185 && l > 0.25 }
func isHoleDark(l float64) bool     { return l < 0.15 }
