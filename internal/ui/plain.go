package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// PlainRenderer writes one line per event. Used for CI and pipes.
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	stage  Stage
	errors []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer. Per-entry updates within a stage are
// not printed; only messages and stage changes are.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := event.Stage != r.stage
	r.stage = event.Stage

	switch {
	case event.Message != "":
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), event.Message)
	case changed && event.Total > 0:
		_, _ = fmt.Fprintf(r.out, "[%s] %s entries\n", event.Stage.Icon(), humanize.Comma(int64(event.Total)))
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}
	if event.Path != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.Path, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: run %d, %d roots, %s entries seen in %s\n",
		stats.RunID, stats.Roots, humanize.Comma(int64(stats.Seen)), stats.Duration.Round(100*time.Millisecond))
	_, _ = fmt.Fprintf(r.out, "  created %d, updated %d, unchanged %d, deleted %d\n",
		stats.Created, stats.Updated, stats.Unchanged, stats.Deleted)
	if stats.Missing > 0 {
		_, _ = fmt.Fprintf(r.out, "  %d roots missing\n", stats.Missing)
	}
	if stats.Errors > 0 || stats.Warnings > 0 {
		_, _ = fmt.Fprintf(r.out, "  %d errors, %d warnings\n", stats.Errors, stats.Warnings)
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}
