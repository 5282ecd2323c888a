package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
)

const sqliteSchema = `
CREATE TABLE meta (
  key TEXT PRIMARY KEY,
  value INTEGER NOT NULL
);
CREATE TABLE roots (
  id INTEGER PRIMARY KEY,
  path TEXT NOT NULL UNIQUE,
  added_at TEXT NOT NULL,
  preset_name TEXT,
  last_indexed_at TEXT,
  one_filesystem INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE files (
  id INTEGER PRIMARY KEY,
  root_id INTEGER NOT NULL,
  rel_path TEXT NOT NULL,
  abs_path TEXT NOT NULL,
  is_dir INTEGER NOT NULL,
  is_symlink INTEGER NOT NULL,
  size INTEGER NOT NULL,
  mtime INTEGER NOT NULL,
  ext TEXT,
  status TEXT NOT NULL,
  last_seen_run INTEGER NOT NULL,
  FOREIGN KEY(root_id) REFERENCES roots(id)
);
CREATE TABLE dir_sizes (
  abs_path TEXT PRIMARY KEY,
  aggregated_size INTEGER NOT NULL
);
CREATE UNIQUE INDEX idx_files_root_rel ON files(root_id, rel_path);
CREATE INDEX idx_files_status ON files(status);
CREATE INDEX idx_files_mtime ON files(mtime);
CREATE INDEX idx_files_ext ON files(ext);
CREATE INDEX idx_files_path_nocase ON files(abs_path COLLATE NOCASE);
`

// ExportSQLite writes the store into a fresh SQLite database at path. The
// database is built next to path and renamed into place when complete.
func (s *Store) ExportSQLite(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cerrors.New(cerrors.ErrCodeExport, "failed to create export directory", err)
	}
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := s.writeSQLite(ctx, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return cerrors.New(cerrors.ErrCodeExport, "failed to move SQLite export into place", err)
	}
	return nil
}

func (s *Store) writeSQLite(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return cerrors.New(cerrors.ErrCodeExport, "failed to open SQLite database", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return cerrors.New(cerrors.ErrCodeExport, "failed to create SQLite schema", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return cerrors.New(cerrors.ErrCodeExport, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	s.mu.RLock()
	err = s.insertAll(ctx, tx)
	s.mu.RUnlock()
	if err != nil {
		return cerrors.New(cerrors.ErrCodeExport, "failed to write SQLite export", err)
	}

	if err := tx.Commit(); err != nil {
		return cerrors.New(cerrors.ErrCodeExport, "failed to commit SQLite export", err)
	}
	slog.Debug("sqlite export written", slog.String("path", path), slog.Int("files", s.FileCount()))
	return nil
}

// insertAll copies every table. The caller holds the read lock.
func (s *Store) insertAll(ctx context.Context, tx *sql.Tx) error {
	meta := map[string]uint64{
		"version":          uint64(SnapshotVersion),
		"last_run_id":      s.d.LastRunID,
		"next_root_id":     s.d.NextRootID,
		"next_file_id":     s.d.NextFileID,
		"dir_sizes_run_id": s.d.DirSizesRunID,
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES (?, ?)`, k, int64(v)); err != nil {
			return fmt.Errorf("meta %s: %w", k, err)
		}
	}

	rootStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO roots(id, path, added_at, preset_name, last_indexed_at, one_filesystem) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = rootStmt.Close() }()
	for _, r := range s.d.Roots {
		var lastIndexed any
		if r.LastIndexedAt != nil {
			lastIndexed = r.LastIndexedAt.Format(time.RFC3339Nano)
		}
		if _, err := rootStmt.ExecContext(ctx, int64(r.ID), r.Path, r.AddedAt.Format(time.RFC3339Nano),
			nullString(r.PresetName), lastIndexed, r.OneFilesystem); err != nil {
			return fmt.Errorf("root %d: %w", r.ID, err)
		}
	}

	fileStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO files(id, root_id, rel_path, abs_path, is_dir, is_symlink, size, mtime, ext, status, last_seen_run)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = fileStmt.Close() }()
	for i := range s.d.Files {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		f := &s.d.Files[i]
		if _, err := fileStmt.ExecContext(ctx, int64(f.ID), int64(f.RootID), f.RelPath, f.AbsPath,
			f.IsDir, f.IsSymlink, int64(f.Size), f.MTime, nullString(f.Ext), f.Status.String(),
			int64(f.LastSeenRun)); err != nil {
			return fmt.Errorf("file %d: %w", f.ID, err)
		}
	}

	dirStmt, err := tx.PrepareContext(ctx, `INSERT INTO dir_sizes(abs_path, aggregated_size) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = dirStmt.Close() }()
	for _, e := range s.d.DirSizes {
		if _, err := dirStmt.ExecContext(ctx, e.Path, int64(e.Size)); err != nil {
			return fmt.Errorf("dir size %s: %w", e.Path, err)
		}
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
