package colorutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRGBToHSL(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		h, s, l float64
	}{
		{"red", 255, 0, 0, 0, 1, 0.5},
		{"green", 0, 255, 0, 120, 1, 0.5},
		{"blue", 0, 0, 255, 240, 1, 0.5},
		{"white", 255, 255, 255, 0, 0, 1},
		{"black", 0, 0, 0, 0, 0, 0},
		{"gray", 128, 128, 128, 0, 0, 128.0 / 255.0},
		{"magenta wraps", 255, 0, 128, 329.88, 1, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, l := RGBToHSL(tt.r, tt.g, tt.b)
			assert.InDelta(t, tt.h, h, 0.01)
			assert.InDelta(t, tt.s, s, 0.001)
			assert.InDelta(t, tt.l, l, 0.001)
		})
	}
}

func TestRGBToHSLHueRange(t *testing.T) {
	for r := 0; r < 256; r += 17 {
		for g := 0; g < 256; g += 17 {
			for b := 0; b < 256; b += 17 {
				h, s, l := RGBToHSL(uint8(r), uint8(g), uint8(b))
				assert.GreaterOrEqual(t, h, 0.0)
				assert.Less(t, h, 360.0)
				assert.GreaterOrEqual(t, s, 0.0)
				assert.LessOrEqual(t, s, 1.0)
				assert.GreaterOrEqual(t, l, 0.0)
				assert.LessOrEqual(t, l, 1.0)
			}
		}
	}
}

func TestBrightness(t *testing.T) {
	assert.Equal(t, 0.0, Brightness(0, 0, 0))
	assert.Equal(t, 255.0, Brightness(255, 255, 255))
	assert.Equal(t, 20.0, Brightness(10, 20, 30))
}
