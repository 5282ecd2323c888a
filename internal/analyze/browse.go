package analyze

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/Aman-CERP/catalog/internal/store"
)

// Child is a direct child of a browsed directory.
type Child struct {
	Path  string `json:"path"`
	Size  uint64 `json:"size"`
	IsDir bool   `json:"is_dir"`
}

// BrowseIndex answers "totals of the immediate children of P" from the
// rollup without touching the filesystem.
type BrowseIndex struct {
	totals   map[string]uint64
	children map[string][]Child
	roots    []Child
}

// Browse builds a BrowseIndex over every root, reusing the store's rollup
// cache.
func (a *Analyzer) Browse(ctx context.Context, st *store.Store) (*BrowseIndex, error) {
	roots := rootPaths(st)
	dirs, _ := rollup(st, roots)

	idx := &BrowseIndex{
		totals:   make(map[string]uint64, len(dirs)+len(roots)),
		children: make(map[string][]Child),
	}
	for _, d := range dirs {
		idx.totals[d.Path] = d.Size
	}
	for _, p := range roots {
		if _, ok := idx.totals[p]; !ok {
			idx.totals[p] = 0
		}
		idx.roots = append(idx.roots, Child{Path: p, Size: idx.totals[p], IsDir: true})
	}

	rootSet := make(map[string]bool, len(roots))
	for _, p := range roots {
		rootSet[p] = true
	}
	for _, d := range dirs {
		if rootSet[d.Path] {
			continue
		}
		parent := filepath.Dir(d.Path)
		if _, ok := idx.totals[parent]; ok {
			idx.children[parent] = append(idx.children[parent], Child{Path: d.Path, Size: d.Size, IsDir: true})
		}
	}

	var err error
	n := 0
	st.ForEachFile(func(f *store.FileEntry) bool {
		n++
		if n%65536 == 0 {
			if err = ctx.Err(); err != nil {
				return false
			}
		}
		if _, ok := countable(f, roots); !ok {
			return true
		}
		parent := filepath.Dir(f.AbsPath)
		idx.children[parent] = append(idx.children[parent], Child{Path: f.AbsPath, Size: f.Size})
		return true
	})
	if err != nil {
		return nil, err
	}

	for _, c := range idx.children {
		sortChildren(c)
	}
	sortChildren(idx.roots)
	return idx, nil
}

// Children returns the direct children of path, largest first. An empty
// path lists the roots.
func (b *BrowseIndex) Children(path string) []Child {
	if path == "" {
		return b.roots
	}
	return b.children[filepath.Clean(path)]
}

// Total returns the aggregated size of a directory and whether it is known.
func (b *BrowseIndex) Total(path string) (uint64, bool) {
	s, ok := b.totals[filepath.Clean(path)]
	return s, ok
}

// Roots returns the browseable roots, largest first.
func (b *BrowseIndex) Roots() []Child { return b.roots }

func sortChildren(c []Child) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Size != c[j].Size {
			return c[i].Size > c[j].Size
		}
		return c[i].Path < c[j].Path
	})
}
