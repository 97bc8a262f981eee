// Command leafscan diagnoses every image in a directory and prints a table.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"leaf-doctor/internal/diagnosis"
)

func main() {
	dir := flag.String("dir", "", "Directory of leaf images")
	workers := flag.Int("workers", 4, "Images diagnosed concurrently")
	stride := flag.Int("stride", 4, "Sampling stride in pixels")
	asJSON := flag.Bool("json", false, "Print results as JSON")
	flag.Parse()

	if *dir == "" {
		fmt.Println("Usage: leafscan -dir <path> [-workers 4] [-stride 4] [-json]")
		os.Exit(1)
	}

	paths, err := listImages(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list images: %v\n", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	engine := diagnosis.New(diagnosis.WithParams(diagnosis.DefaultParams().WithStride(*stride)))
	rows, err := scan(context.Background(), engine, paths, *workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"run": runID, "results": rows}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode results: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Run %s: %d images in %s (stride %d, %d workers)\n\n", runID, len(paths), *dir, *stride, *workers)
	fmt.Printf("%-32s %-13s %-12s %10s\n", "File", "Outcome", "Condition", "Confidence")
	fmt.Println(strings.Repeat("-", 70))

	failed := 0
	for _, r := range rows {
		if r.Error != "" {
			failed++
			fmt.Printf("%-32s %-13s %s\n", r.File, "error", r.Error)
			continue
		}
		fmt.Printf("%-32s %-13s %-12s %9d%%\n", r.File, r.Outcome, r.Condition, r.Confidence)
	}

	fmt.Printf("\nTotal: %d images, %d failed\n", len(rows), failed)
}
