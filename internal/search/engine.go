// Package search answers filtered substring queries over the Active entries
// of a store. There is no secondary index: every query is one linear scan
// with the cheap filters evaluated before the substring test.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Aman-CERP/catalog/internal/store"
)

// cancelCheckEvery is how many entries are scanned between context checks.
const cancelCheckEvery = 8192

// Query is a search request.
type Query struct {
	// Text is matched case-insensitively against the entry path. Empty
	// matches everything.
	Text    string
	Filters Filters
	// Limit caps the result count (0 = unlimited).
	Limit int
}

// RecentQuery lists recently modified entries.
type RecentQuery struct {
	Days    int
	Limit   int
	Now     time.Time
	Filters Filters
}

// Result is one matching entry.
type Result struct {
	ID        uint64       `json:"id"`
	Path      string       `json:"path"`
	MTime     int64        `json:"mtime"`
	Size      uint64       `json:"size"`
	IsDir     bool         `json:"is_dir"`
	IsSymlink bool         `json:"is_symlink"`
	Ext       string       `json:"ext,omitempty"`
	Root      string       `json:"root"`
	Status    store.Status `json:"status"`
}

// Engine runs queries. It caches the lowercased path of every entry and
// rebuilds the cache when the store changes. Safe for concurrent use.
type Engine struct {
	mu    sync.Mutex
	st    *store.Store
	gen   uint64
	lower []string
}

// New creates an Engine.
func New() *Engine {
	return &Engine{}
}

// lowered returns the lowercased paths of st in insertion order.
func (e *Engine) lowered(st *store.Store) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	gen := st.Generation()
	if e.st == st && e.gen == gen && e.lower != nil {
		return e.lower
	}

	start := time.Now()
	lower := make([]string, 0, st.FileCount())
	st.ForEachFile(func(f *store.FileEntry) bool {
		lower = append(lower, strings.ToLower(f.AbsPath))
		return true
	})
	e.st, e.gen, e.lower = st, gen, lower
	slog.Debug("search_cache_built", slog.Int("entries", len(lower)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return lower
}

// Search returns Active entries whose path contains q.Text, case-folded,
// and that satisfy every filter, in insertion order.
//
// The file name is a suffix of the path, so a path match covers a name
// match.
func (e *Engine) Search(ctx context.Context, st *store.Store, q Query) ([]Result, error) {
	needle := strings.ToLower(q.Text)
	lower := e.lowered(st)
	roots := rootPaths(st)

	out := []Result{}
	var err error
	i := -1
	st.ForEachFile(func(f *store.FileEntry) bool {
		i++
		if i%cancelCheckEvery == 0 {
			if err = ctx.Err(); err != nil {
				return false
			}
		}
		if f.Status != store.StatusActive || !q.Filters.match(f) {
			return true
		}
		// The cache may lag an append made after it was built.
		var path string
		if i < len(lower) {
			path = lower[i]
		} else {
			path = strings.ToLower(f.AbsPath)
		}
		if needle != "" && !strings.Contains(path, needle) {
			return true
		}
		out = append(out, toResult(f, roots))
		return q.Limit <= 0 || len(out) < q.Limit
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Recent returns Active entries modified within the last q.Days days,
// newest first, ties broken by path.
func (e *Engine) Recent(ctx context.Context, st *store.Store, q RecentQuery) ([]Result, error) {
	if q.Now.IsZero() {
		q.Now = time.Now()
	}
	threshold := q.Now.Add(-time.Duration(q.Days) * 24 * time.Hour).Unix()
	roots := rootPaths(st)

	out := []Result{}
	var err error
	i := 0
	st.ForEachFile(func(f *store.FileEntry) bool {
		i++
		if i%cancelCheckEvery == 0 {
			if err = ctx.Err(); err != nil {
				return false
			}
		}
		if f.Status != store.StatusActive || f.MTime < threshold || !q.Filters.match(f) {
			return true
		}
		out = append(out, toResult(f, roots))
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].MTime != out[b].MTime {
			return out[a].MTime > out[b].MTime
		}
		return out[a].Path < out[b].Path
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func rootPaths(st *store.Store) map[uint64]string {
	roots := st.Roots()
	m := make(map[uint64]string, len(roots))
	for _, r := range roots {
		m[r.ID] = r.Path
	}
	return m
}

func toResult(f *store.FileEntry, roots map[uint64]string) Result {
	root, ok := roots[f.RootID]
	if !ok {
		root = "-"
	}
	return Result{
		ID:        f.ID,
		Path:      f.AbsPath,
		MTime:     f.MTime,
		Size:      f.Size,
		IsDir:     f.IsDir,
		IsSymlink: f.IsSymlink,
		Ext:       f.Ext,
		Root:      root,
		Status:    f.Status,
	}
}
