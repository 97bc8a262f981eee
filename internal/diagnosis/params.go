package diagnosis

import "leaf-doctor/internal/sampler"

// Params tunes the engine. The zero value is not useful; start from
// DefaultParams.
type Params struct {
	// Stride is the sampling step in pixels along both axes.
	Stride int
	// Workers bounds the goroutines used for color accumulation.
	Workers int
	// MaxDimension downscales the longer image side before sampling.
	// Zero keeps the original resolution.
	MaxDimension int
}

// DefaultParams returns sequential, full-resolution parameters.
func DefaultParams() Params {
	return Params{
		Stride:       sampler.DefaultStride,
		Workers:      1,
		MaxDimension: 0,
	}
}

// WithStride returns a copy of params with the given sampling stride.
func (p Params) WithStride(stride int) Params {
	if stride < 1 {
		stride = sampler.DefaultStride
	}
	p.Stride = stride
	return p
}

// WithWorkers returns a copy of params with the given worker bound.
func (p Params) WithWorkers(workers int) Params {
	p.Workers = max(1, workers)
	return p
}

// WithMaxDimension returns a copy of params that downscales images whose
// longer side exceeds maxDim.
func (p Params) WithMaxDimension(maxDim int) Params {
	p.MaxDimension = max(0, maxDim)
	return p
}

func (p Params) normalized() Params {
	return p.WithStride(p.Stride).WithWorkers(p.Workers).WithMaxDimension(p.MaxDimension)
}
