package mcp

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Aman-CERP/catalog/internal/store"
)

// Snapshot gives read-only access to the snapshot file and reloads it when
// an index run replaces it. A failed reload keeps serving the previous
// copy.
type Snapshot struct {
	path string

	mu      sync.Mutex
	st      *store.Store
	modTime time.Time
	size    int64
}

// NewSnapshot creates a reloader for path. Nothing is read until Current.
func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

// Path returns the snapshot path.
func (s *Snapshot) Path() string { return s.path }

// Current returns the store for the file as it is now. The returned store
// must not be mutated in ways that matter to other callers.
func (s *Snapshot) Current() (*store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fi, err := os.Stat(s.path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, s.path)
		}
		if s.st != nil {
			return s.st, nil
		}
		return nil, err
	}

	if s.st != nil && fi.ModTime().Equal(s.modTime) && fi.Size() == s.size {
		return s.st, nil
	}

	st, err := store.Load(s.path)
	if err != nil {
		if s.st != nil {
			slog.Warn("snapshot reload failed, serving previous copy",
				slog.String("path", s.path), slog.String("error", err.Error()))
			return s.st, nil
		}
		return nil, err
	}
	if s.st != nil {
		slog.Info("snapshot reloaded", slog.String("path", s.path), slog.Uint64("run_id", st.LastRunID()))
	}
	s.st, s.modTime, s.size = st, fi.ModTime(), fi.Size()
	return st, nil
}
