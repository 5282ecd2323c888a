//go:build ignore

// Package main generates a synthetic directory tree for timing index runs.
// Usage: go run scripts/generate-tree.go -files 100000 -output /tmp/catalog-bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	numFiles  = flag.Int("files", 10000, "Number of files to generate")
	fanout    = flag.Int("fanout", 8, "Subdirectories per directory")
	perDir    = flag.Int("per-dir", 50, "Files per leaf directory")
	maxSize   = flag.Int("max-size", 64*1024, "Largest file in bytes (sparse, no data is written)")
	ageDays   = flag.Int("age-days", 90, "Spread of modification times")
	outputDir = flag.String("output", "testdata/tree", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var (
	words = []string{"report", "invoice", "photo", "backup", "src", "notes", "draft", "music", "video", "archive"}
	exts  = []string{"pdf", "jpg", "go", "md", "txt", "mp4", "zip", "json", ""}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))
	now := time.Now()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}

	var (
		written int
		total   int64
		dirs    int
	)
	// Breadth-first so every level fills before going deeper.
	queue := []string{*outputDir}
	for written < *numFiles && len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		for i := 0; i < *perDir && written < *numFiles; i++ {
			name := fmt.Sprintf("%s_%d", words[rng.Intn(len(words))], written)
			if ext := exts[rng.Intn(len(exts))]; ext != "" {
				name += "." + ext
			}
			size := rng.Int63n(int64(*maxSize) + 1)
			path := filepath.Join(dir, name)
			if err := writeSparse(path, size); err != nil {
				fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
				os.Exit(1)
			}
			mtime := now.Add(-time.Duration(rng.Int63n(int64(*ageDays)*24)) * time.Hour)
			_ = os.Chtimes(path, mtime, mtime)
			written++
			total += size
		}

		for i := 0; i < *fanout; i++ {
			sub := filepath.Join(dir, fmt.Sprintf("%s-%d", words[rng.Intn(len(words))], dirs))
			if err := os.Mkdir(sub, 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", sub, err)
				os.Exit(1)
			}
			dirs++
			queue = append(queue, sub)
		}
	}

	fmt.Printf("Generated %d files in %d directories under %s (%s apparent size)\n",
		written, dirs, *outputDir, humanize.IBytes(uint64(total)))
}

// writeSparse creates a file of the given size without writing data.
func writeSparse(path string, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Truncate(size); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
