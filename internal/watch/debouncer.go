package watch

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Debouncer collects changed paths and emits them as one batch after the
// window passes without further changes.
type Debouncer struct {
	window  time.Duration
	pending map[string]Op
	mu      sync.Mutex
	output  chan []Change
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]Op),
		// One queued batch is enough to trigger the next run.
		output: make(chan []Change, 1),
	}
}

// Add records a change and restarts the quiet window. A later change to the
// same path replaces the earlier one.
func (d *Debouncer) Add(c Change) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[c.Path] = c.Op

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	batch := make([]Change, 0, len(d.pending))
	for p, op := range d.pending {
		batch = append(batch, Change{Path: p, Op: op})
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	d.pending = make(map[string]Op)

	select {
	case d.output <- batch:
	default:
		slog.Debug("run already pending, dropping change batch", slog.Int("batch_size", len(batch)))
	}
}

// Output returns the channel of debounced batches.
func (d *Debouncer) Output() <-chan []Change {
	return d.output
}

// Stop stops the debouncer and closes the output channel.
// Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
