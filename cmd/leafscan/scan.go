package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"leaf-doctor/internal/diagnosis"
	"leaf-doctor/internal/image"
	"leaf-doctor/internal/types"
)

// row is one line of scan output.
type row struct {
	File       string        `json:"file"`
	Outcome    types.Outcome `json:"outcome,omitempty"`
	Condition  string        `json:"condition,omitempty"`
	Confidence int           `json:"confidence"`
	Error      string        `json:"error,omitempty"`
}

// listImages returns the supported image files in dir, sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !image.IsSupportedFormat(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// scan diagnoses paths with at most workers in flight. Rows come back in
// path order. A file that fails to decode gets an error row; only context
// cancellation aborts the scan.
func scan(ctx context.Context, engine *diagnosis.Engine, paths []string, workers int) ([]row, error) {
	rows := make([]row, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, path := range paths {
		g.Go(func() error {
			rows[i].File = filepath.Base(path)
			res, err := engine.DiagnoseFile(gctx, path)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				rows[i].Error = err.Error()
				return nil
			}
			rows[i].Outcome = res.Outcome
			rows[i].Condition = res.ConditionID
			rows[i].Confidence = res.ConfidencePercent
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
