package features

import (
	"context"

	"leaf-doctor/internal/sampler"

	"golang.org/x/sync/errgroup"
)

// ChunkSize is the number of samples reduced per partial accumulator.
// Chunk boundaries are fixed so sequential and concurrent extraction sum
// in the same order and return identical vectors.
const ChunkSize = 4096

// Extract builds the feature vector for samples taken from an image of the
// given height with the given stride.
func Extract(samples []sampler.PixelSample, height, stride int) FeatureVector {
	total := NewAccumulator(height)
	for start := 0; start < len(samples); start += ChunkSize {
		total.Merge(reduce(samples[start:min(start+ChunkSize, len(samples))], height))
	}
	return total.Vector(AnalyzeEdges(sampler.Visible(samples), stride))
}

// ExtractConcurrent is Extract with the color reduction spread over at most
// workers goroutines. The edge pass stays sequential.
func ExtractConcurrent(ctx context.Context, samples []sampler.PixelSample, height, stride, workers int) (FeatureVector, error) {
	if workers <= 1 || len(samples) <= ChunkSize {
		if err := ctx.Err(); err != nil {
			return FeatureVector{}, err
		}
		return Extract(samples, height, stride), nil
	}

	chunks := (len(samples) + ChunkSize - 1) / ChunkSize
	partials := make([]*Accumulator, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < chunks; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := i * ChunkSize
			partials[i] = reduce(samples[start:min(start+ChunkSize, len(samples))], height)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FeatureVector{}, err
	}

	total := NewAccumulator(height)
	for _, p := range partials {
		total.Merge(p)
	}
	return total.Vector(AnalyzeEdges(sampler.Visible(samples), stride)), nil
}

func reduce(samples []sampler.PixelSample, height int) *Accumulator {
	acc := NewAccumulator(height)
	for _, s := range samples {
		acc.Add(s)
	}
	return acc
}
