//go:build ignore

// generate_testdata.go creates standard quote datasets for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//   tests/testdata/benchmark/small.jsonl   (100 quotes)
//   tests/testdata/benchmark/medium.jsonl  (1000 quotes)
//   tests/testdata/benchmark/large.jsonl   (5000 quotes)
//   tests/testdata/benchmark/huge.jsonl    (20000 quotes)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/colorgrid/pkg/testutil"
)

type datasetSpec struct {
	name string
	size int
}

var datasets = []datasetSpec{
	{"small", 100},
	{"medium", 1000},
	{"large", 5000},
	{"huge", 20000},
}

func main() {
	outputDir := "tests/testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d quotes)...\n", ds.name, ds.size)

		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.size) // reproducible per-size
		cfg.IDPrefix = "BENCH"
		cfg.MissingBids = true

		rows := testutil.New(cfg).Quotes(ds.size)

		outputPath := filepath.Join(outputDir, ds.name+".jsonl")
		if err := testutil.WriteJSONL(outputPath, rows); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}

		info, _ := os.Stat(outputPath)
		fmt.Printf("  Written %s (%d bytes)\n", outputPath, info.Size())
	}

	fmt.Println("\nDone! Test datasets created in", outputDir)
}
