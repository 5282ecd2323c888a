package analyze

import (
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/catalog/internal/store"
)

// countable reports whether f contributes to usage totals: Active, not a
// directory, non-empty, and under a known root.
func countable(f *store.FileEntry, roots map[uint64]string) (string, bool) {
	if f.Status != store.StatusActive || f.IsDir || f.Size == 0 {
		return "", false
	}
	root, ok := roots[f.RootID]
	return root, ok
}

// buildRollup adds every countable file's size to each ancestor directory
// from its parent up to and including its root.
func buildRollup(st *store.Store, roots map[uint64]string) []store.DirSizeEntry {
	totals := make(map[string]uint64)
	st.ForEachFile(func(f *store.FileEntry) bool {
		root, ok := countable(f, roots)
		if !ok {
			return true
		}
		for dir := filepath.Dir(f.AbsPath); ; {
			totals[dir] += f.Size
			parent := filepath.Dir(dir)
			if dir == root || parent == dir || len(dir) <= len(root) {
				break
			}
			dir = parent
		}
		return true
	})

	out := make([]store.DirSizeEntry, 0, len(totals))
	for p, s := range totals {
		out = append(out, store.DirSizeEntry{Path: p, Size: s})
	}
	return out
}

// rollup returns the store's cached directory totals, rebuilding and
// caching them when they do not belong to the last run. cached reports
// whether the stored rollup was reused.
func rollup(st *store.Store, roots map[uint64]string) (entries []store.DirSizeEntry, cached bool) {
	if st.DirSizesFresh() {
		entries, _ = st.DirSizes()
		return entries, true
	}
	entries = buildRollup(st, roots)
	if run := st.LastRunID(); run != 0 {
		st.SetDirSizes(entries, run)
	}
	return entries, false
}

// within reports whether p is scope or lies under it. An empty scope
// contains everything.
func within(p, scope string) bool {
	if scope == "" || p == scope {
		return true
	}
	return strings.HasPrefix(p, strings.TrimSuffix(scope, string(filepath.Separator))+string(filepath.Separator))
}
