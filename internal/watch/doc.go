// Package watch keeps the catalog current by re-running the indexer.
//
// A Loop runs once at start, then again on every interval tick. When change
// notification is enabled, fsnotify events on the root directories are
// debounced and trigger an early run; the interval timer restarts after
// every run. Each run is a full index pass, so events only decide when to
// run, never what to record.
//
// Usage:
//
//	loop := watch.New(run, watch.Options{Interval: 15 * time.Minute, Roots: paths})
//	if err := loop.Run(ctx); err != nil {
//	    return err
//	}
package watch
