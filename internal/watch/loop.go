package watch

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Trigger says why a run started.
type Trigger int

const (
	TriggerStart Trigger = iota
	TriggerInterval
	TriggerChange
)

func (t Trigger) String() string {
	switch t {
	case TriggerStart:
		return "start"
	case TriggerInterval:
		return "interval"
	case TriggerChange:
		return "change"
	default:
		return "unknown"
	}
}

// RunFunc performs one full index pass.
type RunFunc func(ctx context.Context, trigger Trigger) error

// Options configures a Loop.
type Options struct {
	// Interval between runs. Required.
	Interval time.Duration
	// Debounce is the quiet window before a change triggers a run.
	// Default: 5s
	Debounce time.Duration
	// Notify enables fsnotify on Roots.
	Notify bool
	Roots  []string
}

const defaultDebounce = 5 * time.Second

// Loop re-runs the indexer until its context is cancelled.
type Loop struct {
	run  RunFunc
	opts Options
}

// New creates a Loop.
func New(run RunFunc, opts Options) *Loop {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	return &Loop{run: run, opts: opts}
}

// Run blocks until ctx is cancelled. A failed run is logged and retried at
// the next trigger; only cancellation ends the loop, and it returns nil
// then.
func (l *Loop) Run(ctx context.Context) error {
	if l.opts.Interval <= 0 {
		return errors.New("watch interval must be positive")
	}

	var changes <-chan []Change
	if l.opts.Notify && len(l.opts.Roots) > 0 {
		deb := NewDebouncer(l.opts.Debounce)
		defer deb.Stop()

		n, err := NewNotifier(l.opts.Roots, deb)
		if err != nil {
			slog.Warn("change notification unavailable, using interval only", slog.String("error", err.Error()))
		} else {
			defer func() { _ = n.Close() }()
			go n.Run(ctx)
			changes = deb.Output()
			slog.Info("watching roots", slog.Int("count", len(n.Watched())))
		}
	}

	if !l.once(ctx, TriggerStart) {
		return nil
	}

	timer := time.NewTimer(l.opts.Interval)
	defer timer.Stop()

	for {
		var trigger Trigger
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			trigger = TriggerInterval
		case batch, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			slog.Debug("changes observed", slog.Int("count", len(batch)), slog.String("first", batch[0].Path))
			trigger = TriggerChange
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		if !l.once(ctx, trigger) {
			return nil
		}
		timer.Reset(l.opts.Interval)
	}
}

// once performs a run and reports whether the loop should continue.
func (l *Loop) once(ctx context.Context, trigger Trigger) bool {
	start := time.Now()
	err := l.run(ctx, trigger)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		slog.Error("watch run failed",
			slog.String("trigger", trigger.String()),
			slog.String("error", err.Error()))
		return true
	}
	slog.Info("watch run complete",
		slog.String("trigger", trigger.String()),
		slog.Duration("duration", time.Since(start)))
	return true
}
