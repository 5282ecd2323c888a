// Package profiling writes pprof profiles for a single command run.
package profiling

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/dustin/go-humanize"
)

// Options names the profile files to write. Empty paths are skipped.
type Options struct {
	CPU string
	Mem string
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool {
	return o.CPU != "" || o.Mem != ""
}

// Profiler manages the profiles of one run.
type Profiler struct {
	opts    Options
	cpuFile *os.File
}

// Start begins CPU profiling if requested. Stop must be called to flush
// it and to write the heap profile.
func Start(opts Options) (*Profiler, error) {
	p := &Profiler{opts: opts}
	if opts.CPU == "" {
		return p, nil
	}

	f, err := os.Create(opts.CPU)
	if err != nil {
		return nil, fmt.Errorf("failed to create CPU profile file: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to start CPU profile: %w", err)
	}
	p.cpuFile = f
	return p, nil
}

// Stop ends CPU profiling and writes the heap profile. Safe to call more
// than once.
func (p *Profiler) Stop() error {
	var errs []error
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			errs = append(errs, err)
		}
		p.cpuFile = nil
	}
	if p.opts.Mem != "" {
		if err := WriteHeap(p.opts.Mem); err != nil {
			errs = append(errs, err)
		}
		p.opts.Mem = ""
	}
	return errors.Join(errs...)
}

// WriteHeap writes a heap profile to path after forcing a collection, so
// the profile shows live objects only.
func WriteHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	slog.Debug("heap profile written",
		slog.String("path", path),
		slog.String("heap_alloc", humanize.IBytes(m.HeapAlloc)))
	return nil
}
