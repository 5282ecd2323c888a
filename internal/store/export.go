package store

import (
	"encoding/json"
	"fmt"
	"io"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
)

// exportDoc is the JSON form of the full store content.
type exportDoc struct {
	Version       uint32         `json:"version"`
	LastRunID     uint64         `json:"last_run_id"`
	NextRootID    uint64         `json:"next_root_id"`
	NextFileID    uint64         `json:"next_file_id"`
	Roots         []Root         `json:"roots"`
	Files         []FileEntry    `json:"files"`
	DirSizes      []DirSizeEntry `json:"dir_sizes"`
	DirSizesRunID uint64         `json:"dir_sizes_run_id"`
}

// WriteJSON writes every field of the store as indented JSON.
func (s *Store) WriteJSON(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := exportDoc{
		Version:       SnapshotVersion,
		LastRunID:     s.d.LastRunID,
		NextRootID:    s.d.NextRootID,
		NextFileID:    s.d.NextFileID,
		Roots:         nonNil(s.d.Roots),
		Files:         nonNil(s.d.Files),
		DirSizes:      nonNil(s.d.DirSizes),
		DirSizesRunID: s.d.DirSizesRunID,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return cerrors.New(cerrors.ErrCodeExport, "failed to write JSON export", err)
	}
	return nil
}

// ReadJSON rebuilds a store from WriteJSON output. The result saves to path.
func ReadJSON(r io.Reader, path string) (*Store, error) {
	var doc exportDoc
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, cerrors.UserInputError("failed to parse JSON export", err)
	}
	if doc.Version != SnapshotVersion {
		return nil, cerrors.StoreVersionError(doc.Version, SnapshotVersion)
	}
	s, err := newFromData(path, data{
		LastRunID:     doc.LastRunID,
		NextRootID:    doc.NextRootID,
		NextFileID:    doc.NextFileID,
		Roots:         doc.Roots,
		Files:         doc.Files,
		DirSizes:      doc.DirSizes,
		DirSizesRunID: doc.DirSizesRunID,
	})
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	return s, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
