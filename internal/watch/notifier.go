package watch

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Op is the kind of change reported by the notifier.
type Op int

const (
	OpCreate Op = iota
	OpWrite
	OpRemove
	OpRename
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Change is one observed filesystem change.
type Change struct {
	Path string
	Op   Op
}

// Notifier watches the top level of each root directory. fsnotify is not
// recursive, so deeper changes are only picked up by interval runs.
type Notifier struct {
	fsw     *fsnotify.Watcher
	deb     *Debouncer
	watched []string
}

// NewNotifier starts watching roots. Roots that cannot be watched are
// logged and skipped. The returned error is non-nil only when fsnotify
// itself is unavailable.
func NewNotifier(roots []string, deb *Debouncer) (*Notifier, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	n := &Notifier{fsw: fsw, deb: deb}
	for _, r := range roots {
		if err := fsw.Add(r); err != nil {
			slog.Warn("cannot watch root", slog.String("root", r), slog.String("error", err.Error()))
			continue
		}
		n.watched = append(n.watched, r)
	}
	return n, nil
}

// Watched returns the roots that are being watched.
func (n *Notifier) Watched() []string {
	return n.watched
}

// Run forwards events to the debouncer until ctx is done or the watcher is
// closed.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-n.fsw.Events:
			if !ok {
				return
			}
			if op, keep := translate(ev.Op); keep {
				n.deb.Add(Change{Path: ev.Name, Op: op})
			}
		case err, ok := <-n.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// Close stops the underlying watcher.
func (n *Notifier) Close() error {
	return n.fsw.Close()
}

// translate maps fsnotify ops to ours. Chmod-only events are dropped: they
// change nothing the catalog records.
func translate(op fsnotify.Op) (Op, bool) {
	switch {
	case op&fsnotify.Create != 0:
		return OpCreate, true
	case op&fsnotify.Write != 0:
		return OpWrite, true
	case op&fsnotify.Remove != 0:
		return OpRemove, true
	case op&fsnotify.Rename != 0:
		return OpRename, true
	}
	return 0, false
}
