// Package store owns the catalog snapshot: roots, file entries, the cached
// directory rollup and the id/run counters. Mutation happens in memory; Save
// persists the whole state atomically.
package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a FileEntry.
type Status uint8

const (
	StatusActive Status = iota
	StatusDeleted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	if s != StatusActive && s != StatusDeleted {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus parses "active" or "deleted".
func ParseStatus(name string) (Status, error) {
	switch name {
	case "active":
		return StatusActive, nil
	case "deleted":
		return StatusDeleted, nil
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

// Root is a configured top-level directory.
type Root struct {
	ID            uint64     `json:"id"`
	Path          string     `json:"path"`
	AddedAt       time.Time  `json:"added_at"`
	PresetName    string     `json:"preset_name,omitempty"`
	LastIndexedAt *time.Time `json:"last_indexed_at,omitempty"`
	OneFilesystem bool       `json:"one_filesystem"`
}

// FileEntry is the metadata of one path under a root. Entries are unique by
// (RootID, RelPath) and are never removed except by PurgeRoot.
type FileEntry struct {
	ID          uint64 `json:"id"`
	RootID      uint64 `json:"root_id"`
	RelPath     string `json:"rel_path"`
	AbsPath     string `json:"abs_path"`
	IsDir       bool   `json:"is_dir"`
	IsSymlink   bool   `json:"is_symlink"`
	Size        uint64 `json:"size"`
	MTime       int64  `json:"mtime"`
	Ext         string `json:"ext,omitempty"`
	Status      Status `json:"status"`
	LastSeenRun uint64 `json:"last_seen_run"`
}

// Name returns the last path component.
func (f *FileEntry) Name() string {
	for i := len(f.AbsPath) - 1; i >= 0; i-- {
		if f.AbsPath[i] == '/' {
			return f.AbsPath[i+1:]
		}
	}
	return f.AbsPath
}

// Active reports whether the entry is Active.
func (f *FileEntry) Active() bool { return f.Status == StatusActive }

// FileMeta is what a walk observes for one path.
type FileMeta struct {
	AbsPath   string
	IsDir     bool
	IsSymlink bool
	Size      uint64
	MTime     int64
	Ext       string
}

// DirSizeEntry is one directory total of the cached rollup.
type DirSizeEntry struct {
	Path string `json:"abs_path"`
	Size uint64 `json:"aggregated_size"`
}

// UpsertOutcome classifies what UpsertFile did.
type UpsertOutcome uint8

const (
	// Created means a new entry was allocated.
	Created UpsertOutcome = iota
	// Updated means an existing entry changed metadata or was revived.
	Updated
	// Unchanged means an existing Active entry was refreshed with identical
	// metadata.
	Unchanged
)

// Stats summarizes the store contents.
type Stats struct {
	Roots     int    `json:"roots"`
	Active    int    `json:"active"`
	Deleted   int    `json:"deleted"`
	LastRunID uint64 `json:"last_run_id"`
}
