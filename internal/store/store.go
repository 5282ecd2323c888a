package store

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
)

// data is the persisted state. Only slices are used so that encoding the
// same state always yields the same bytes.
type data struct {
	LastRunID     uint64
	NextRootID    uint64
	NextFileID    uint64
	Roots         []Root
	Files         []FileEntry
	DirSizes      []DirSizeEntry
	DirSizesRunID uint64
}

type fileKey struct {
	root uint64
	rel  string
}

// Store is the in-memory catalog. A single writer mutates it; readers may
// run concurrently with each other.
type Store struct {
	mu   sync.RWMutex
	path string
	d    data

	byKey  map[fileKey]int
	byRoot map[uint64][]int
	roots  map[uint64]int

	generation uint64
}

// New returns an empty store that saves to path.
func New(path string) *Store {
	s := &Store{
		path: path,
		d: data{
			NextRootID: 1,
			NextFileID: 1,
		},
	}
	s.reindex()
	return s
}

// newFromData adopts d, repairs counters and rebuilds the lookup maps.
func newFromData(path string, d data) (*Store, error) {
	s := &Store{path: path, d: d}
	s.ensureCounters()
	if err := s.validate(); err != nil {
		return nil, err
	}
	s.reindex()
	return s, nil
}

// Path returns the snapshot path the store saves to.
func (s *Store) Path() string { return s.path }

// Generation changes whenever entries are added, modified or removed.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *Store) ensureCounters() {
	var maxRoot, maxFile uint64
	for _, r := range s.d.Roots {
		maxRoot = max(maxRoot, r.ID)
	}
	for _, f := range s.d.Files {
		maxFile = max(maxFile, f.ID)
	}
	if s.d.NextRootID <= maxRoot {
		s.d.NextRootID = maxRoot + 1
	}
	if s.d.NextFileID <= maxFile {
		s.d.NextFileID = maxFile + 1
	}
}

func (s *Store) validate() error {
	roots := make(map[uint64]bool, len(s.d.Roots))
	paths := make(map[string]bool, len(s.d.Roots))
	for _, r := range s.d.Roots {
		if r.ID == 0 || roots[r.ID] || paths[r.Path] {
			return cerrors.StoreCorruptError(fmt.Sprintf("duplicate or invalid root %d %q", r.ID, r.Path), nil)
		}
		roots[r.ID] = true
		paths[r.Path] = true
	}

	ids := make(map[uint64]bool, len(s.d.Files))
	keys := make(map[fileKey]bool, len(s.d.Files))
	for _, f := range s.d.Files {
		k := fileKey{f.RootID, f.RelPath}
		switch {
		case f.ID == 0 || ids[f.ID]:
			return cerrors.StoreCorruptError(fmt.Sprintf("duplicate or invalid file id %d", f.ID), nil)
		case keys[k]:
			return cerrors.StoreCorruptError(fmt.Sprintf("duplicate entry %q in root %d", f.RelPath, f.RootID), nil)
		case !roots[f.RootID]:
			return cerrors.StoreCorruptError(fmt.Sprintf("entry %d references unknown root %d", f.ID, f.RootID), nil)
		case f.Status != StatusActive && f.Status != StatusDeleted:
			return cerrors.StoreCorruptError(fmt.Sprintf("entry %d has invalid status %d", f.ID, f.Status), nil)
		}
		ids[f.ID] = true
		keys[k] = true
	}
	return nil
}

// reindex rebuilds the lookup maps. Callers hold the write lock or own s.
func (s *Store) reindex() {
	s.byKey = make(map[fileKey]int, len(s.d.Files))
	s.byRoot = make(map[uint64][]int, len(s.d.Roots))
	s.roots = make(map[uint64]int, len(s.d.Roots))
	for i, r := range s.d.Roots {
		s.roots[r.ID] = i
	}
	for i, f := range s.d.Files {
		s.byKey[fileKey{f.RootID, f.RelPath}] = i
		s.byRoot[f.RootID] = append(s.byRoot[f.RootID], i)
	}
	s.generation++
}

// AllocateRootID returns the next unused root id.
func (s *Store) AllocateRootID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocRootID()
}

func (s *Store) allocRootID() uint64 {
	id := s.d.NextRootID
	s.d.NextRootID++
	return id
}

// AllocateFileID returns the next unused file id.
func (s *Store) AllocateFileID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocFileID()
}

func (s *Store) allocFileID() uint64 {
	id := s.d.NextFileID
	s.d.NextFileID++
	return id
}

// AddRoot records a new root. r.ID is assigned; r.Path must be unique.
func (s *Store) AddRoot(r Root) (Root, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.Path = filepath.Clean(r.Path)
	for _, existing := range s.d.Roots {
		if existing.Path == r.Path {
			return Root{}, cerrors.UserInputError(fmt.Sprintf("root %s already exists", r.Path), nil)
		}
	}
	r.ID = s.allocRootID()
	if r.AddedAt.IsZero() {
		r.AddedAt = time.Now().UTC()
	}
	s.d.Roots = append(s.d.Roots, r)
	s.roots[r.ID] = len(s.d.Roots) - 1
	return r, nil
}

// Roots returns a copy of all roots in insertion order.
func (s *Store) Roots() []Root {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Root, len(s.d.Roots))
	copy(out, s.d.Roots)
	return out
}

// Root returns the root with id.
func (s *Store) Root(id uint64) (Root, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.roots[id]
	if !ok {
		return Root{}, false
	}
	return s.d.Roots[i], true
}

// RootByPath returns the root whose path equals p after cleaning.
func (s *Store) RootByPath(p string) (Root, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p = filepath.Clean(p)
	for _, r := range s.d.Roots {
		if r.Path == p {
			return r, true
		}
	}
	return Root{}, false
}

// SetRootOneFilesystem updates the root's one_filesystem flag.
func (s *Store) SetRootOneFilesystem(id uint64, v bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.roots[id]
	if ok {
		s.d.Roots[i].OneFilesystem = v
	}
	return ok
}

// MarkRootIndexed sets the root's last_indexed_at.
func (s *Store) MarkRootIndexed(id uint64, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.roots[id]
	if ok {
		at = at.UTC()
		s.d.Roots[i].LastIndexedAt = &at
	}
	return ok
}

// PurgeRoot physically drops the root and every entry under it. It returns
// the number of entries removed. Use it only for explicit root removal.
func (s *Store) PurgeRoot(id uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.roots[id]
	if !ok {
		return 0
	}
	s.d.Roots = append(s.d.Roots[:i], s.d.Roots[i+1:]...)

	kept := s.d.Files[:0]
	removed := 0
	for _, f := range s.d.Files {
		if f.RootID == id {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	// Release the tail so dropped paths can be collected.
	clear(s.d.Files[len(kept):])
	s.d.Files = kept

	s.invalidateDirSizes()
	s.reindex()
	return removed
}

// UpsertFile inserts or refreshes the entry for (rootID, relPath). Metadata
// is overwritten unconditionally; the entry becomes Active and is stamped
// with runID. Nothing is persisted.
func (s *Store) UpsertFile(rootID uint64, relPath string, meta FileMeta, runID uint64) (UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roots[rootID]; !ok {
		return 0, cerrors.InternalError(fmt.Sprintf("upsert into unknown root %d", rootID), nil)
	}

	k := fileKey{rootID, relPath}
	if i, ok := s.byKey[k]; ok {
		f := &s.d.Files[i]
		outcome := Unchanged
		if f.Status != StatusActive || f.Size != meta.Size || f.MTime != meta.MTime ||
			f.IsDir != meta.IsDir || f.IsSymlink != meta.IsSymlink {
			outcome = Updated
			s.generation++
		}
		f.AbsPath = meta.AbsPath
		f.IsDir = meta.IsDir
		f.IsSymlink = meta.IsSymlink
		f.Size = meta.Size
		f.MTime = meta.MTime
		f.Ext = meta.Ext
		f.Status = StatusActive
		f.LastSeenRun = runID
		return outcome, nil
	}

	s.d.Files = append(s.d.Files, FileEntry{
		ID:          s.allocFileID(),
		RootID:      rootID,
		RelPath:     relPath,
		AbsPath:     meta.AbsPath,
		IsDir:       meta.IsDir,
		IsSymlink:   meta.IsSymlink,
		Size:        meta.Size,
		MTime:       meta.MTime,
		Ext:         meta.Ext,
		Status:      StatusActive,
		LastSeenRun: runID,
	})
	i := len(s.d.Files) - 1
	s.byKey[k] = i
	s.byRoot[rootID] = append(s.byRoot[rootID], i)
	s.generation++
	return Created, nil
}

// MarkDeletedUnseen flips every Active entry of rootID whose last_seen_run
// differs from runID to Deleted, leaving size and mtime as last observed.
// It returns the number of entries flipped.
func (s *Store) MarkDeletedUnseen(rootID, runID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, i := range s.byRoot[rootID] {
		f := &s.d.Files[i]
		if f.Status == StatusActive && f.LastSeenRun != runID {
			f.Status = StatusDeleted
			n++
		}
	}
	if n > 0 {
		s.generation++
	}
	return n
}

// LastRunID returns the id of the last committed run.
func (s *Store) LastRunID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.LastRunID
}

// ReserveRunID returns the id the next run will commit. It does not change
// the store.
func (s *Store) ReserveRunID() uint64 {
	return s.LastRunID() + 1
}

// CommitRun records runID as the last completed run.
func (s *Store) CommitRun(runID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if runID <= s.d.LastRunID {
		return cerrors.InternalError(fmt.Sprintf("run %d is not newer than last run %d", runID, s.d.LastRunID), nil)
	}
	s.d.LastRunID = runID
	return nil
}

// Lookup returns the entry for (rootID, relPath).
func (s *Store) Lookup(rootID uint64, relPath string) (FileEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byKey[fileKey{rootID, relPath}]
	if !ok {
		return FileEntry{}, false
	}
	return s.d.Files[i], true
}

// ForEachFile calls fn for every entry in insertion order until fn returns
// false. The read lock is held throughout; fn must not retain or modify the
// pointer, nor call mutating methods.
func (s *Store) ForEachFile(fn func(*FileEntry) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.d.Files {
		if !fn(&s.d.Files[i]) {
			return
		}
	}
}

// FileCount returns the number of entries, Deleted included.
func (s *Store) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.d.Files)
}

// Stats counts roots and entries by status.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Roots: len(s.d.Roots), LastRunID: s.d.LastRunID}
	for i := range s.d.Files {
		if s.d.Files[i].Status == StatusActive {
			st.Active++
		} else {
			st.Deleted++
		}
	}
	return st
}

// DirSizes returns a copy of the cached rollup and the run that produced
// it. The cache is usable only while that run is LastRunID.
func (s *Store) DirSizes() ([]DirSizeEntry, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DirSizeEntry, len(s.d.DirSizes))
	copy(out, s.d.DirSizes)
	return out, s.d.DirSizesRunID
}

// DirSizesFresh reports whether the cached rollup belongs to the last run.
func (s *Store) DirSizesFresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.DirSizesRunID != 0 && s.d.DirSizesRunID == s.d.LastRunID
}

// SetDirSizes replaces the cached rollup. Entries are stored sorted by path.
func (s *Store) SetDirSizes(entries []DirSizeEntry, runID uint64) {
	sorted := make([]DirSizeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.DirSizes = sorted
	s.d.DirSizesRunID = runID
}

// InvalidateDirSizes drops the cached rollup.
func (s *Store) InvalidateDirSizes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateDirSizes()
}

func (s *Store) invalidateDirSizes() {
	s.d.DirSizes = nil
	s.d.DirSizesRunID = 0
}
