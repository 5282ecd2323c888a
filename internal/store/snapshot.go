package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/google/renameio"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
)

// SnapshotVersion is the only snapshot version this build reads or writes.
const SnapshotVersion uint32 = 1

// Snapshot file layout, little endian:
//
//	magic    [8]byte  "CATALOG\x00"
//	version  uint32
//	reserved uint32
//	length   uint64   payload bytes
//	checksum uint64   xxhash64 of payload
//	payload  gob(data)
var snapshotMagic = [8]byte{'C', 'A', 'T', 'A', 'L', 'O', 'G', 0}

const headerSize = 8 + 4 + 4 + 8 + 8

type header struct {
	Magic    [8]byte
	Version  uint32
	Reserved uint32
	Length   uint64
	Checksum uint64
}

// Load reads the snapshot at path. A missing file returns an error matching
// errors.ErrStoreMissing; a foreign version or a damaged file is fatal and
// nothing is partially loaded.
func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, cerrors.New(cerrors.ErrCodeStoreNotFound, "no snapshot at "+path, err)
		}
		return nil, cerrors.StoreIOError("failed to read snapshot "+path, err)
	}

	d, err := decode(raw)
	if err != nil {
		if ce, ok := cerrors.As(err); ok {
			ce.WithDetail("path", path)
		}
		return nil, err
	}
	return newFromData(path, d)
}

// Open loads the snapshot at path, or returns an empty store when there is
// none yet.
func Open(path string) (*Store, error) {
	s, err := Load(path)
	if stderrors.Is(err, cerrors.ErrStoreMissing) {
		slog.Debug("no snapshot yet, starting empty", slog.String("path", path))
		return New(path), nil
	}
	return s, err
}

// Save persists the store to its own path.
func (s *Store) Save() error {
	if s.path == "" {
		return cerrors.StoreIOError("store has no snapshot path", nil)
	}
	return s.SaveTo(s.path)
}

// SaveTo writes the full state to a temp file next to path, syncs it and
// renames it over path. path holds either the previous snapshot or the new
// one, never a mix.
func (s *Store) SaveTo(path string) error {
	s.mu.RLock()
	raw, err := encode(&s.d)
	files := len(s.d.Files)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cerrors.StoreIOError("failed to create snapshot directory "+dir, err)
	}

	t, err := renameio.TempFile(dir, path)
	if err != nil {
		return cerrors.StoreIOError("failed to create temp snapshot in "+dir, err)
	}
	defer func() { _ = t.Cleanup() }()

	if _, err := t.Write(raw); err != nil {
		return cerrors.StoreIOError("failed to write snapshot", err)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return cerrors.StoreIOError("failed to replace snapshot "+path, err)
	}
	syncDir(dir)

	slog.Debug("snapshot saved",
		slog.String("path", path),
		slog.Int("bytes", len(raw)),
		slog.Int("files", files))
	return nil
}

// syncDir flushes the directory entry of the rename. Failure only weakens
// durability on power loss, never consistency.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	if err := d.Sync(); err != nil {
		slog.Debug("directory sync failed", slog.String("dir", dir), slog.String("error", err.Error()))
	}
	_ = d.Close()
}

// EncodeSnapshot returns the exact bytes Save would write.
func (s *Store) EncodeSnapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return encode(&s.d)
}

// DecodeSnapshot builds a store from bytes produced by EncodeSnapshot.
func DecodeSnapshot(path string, raw []byte) (*Store, error) {
	d, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return newFromData(path, d)
}

func encode(d *data) ([]byte, error) {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(d); err != nil {
		return nil, cerrors.InternalError("failed to encode snapshot", err)
	}

	h := header{
		Magic:    snapshotMagic,
		Version:  SnapshotVersion,
		Length:   uint64(payload.Len()),
		Checksum: xxhash.Sum64(payload.Bytes()),
	}

	var out bytes.Buffer
	out.Grow(headerSize + payload.Len())
	if err := binary.Write(&out, binary.LittleEndian, &h); err != nil {
		return nil, cerrors.InternalError("failed to encode snapshot header", err)
	}
	out.Write(payload.Bytes())
	return out.Bytes(), nil
}

func decode(raw []byte) (data, error) {
	var h header
	if len(raw) < headerSize {
		return data{}, cerrors.StoreCorruptError(fmt.Sprintf("snapshot is truncated (%d bytes)", len(raw)), nil)
	}
	if err := binary.Read(bytes.NewReader(raw[:headerSize]), binary.LittleEndian, &h); err != nil {
		return data{}, cerrors.StoreCorruptError("failed to read snapshot header", err)
	}
	if h.Magic != snapshotMagic {
		return data{}, cerrors.StoreCorruptError("not a catalog snapshot", nil)
	}
	if h.Version != SnapshotVersion {
		return data{}, cerrors.StoreVersionError(h.Version, SnapshotVersion)
	}

	payload := raw[headerSize:]
	if uint64(len(payload)) != h.Length {
		return data{}, cerrors.StoreCorruptError(
			fmt.Sprintf("snapshot payload is %d bytes, header says %d", len(payload), h.Length), nil)
	}
	if sum := xxhash.Sum64(payload); sum != h.Checksum {
		return data{}, cerrors.StoreCorruptError(
			fmt.Sprintf("snapshot checksum mismatch (%016x != %016x)", sum, h.Checksum), nil)
	}

	var d data
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&d); err != nil {
		return data{}, cerrors.StoreCorruptError("failed to decode snapshot", err)
	}
	return d, nil
}

// Remove deletes the snapshot at path and any temp files an interrupted
// save left next to it. It returns the paths it removed; a missing
// snapshot is not an error.
func Remove(path string) ([]string, error) {
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"*"))
	if err != nil {
		return nil, cerrors.StoreIOError("failed to list temp snapshots", err)
	}

	var removed []string
	for _, p := range append([]string{path}, leftovers...) {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed = append(removed, p)
		case stderrors.Is(err, fs.ErrNotExist):
		default:
			return removed, cerrors.StoreIOError("failed to remove "+p, err)
		}
	}
	return removed, nil
}
