// Package scanner walks a root directory and streams the metadata of every
// path the exclude predicate keeps. It never follows symlinks and never
// reads file contents.
package scanner

import (
	stderrors "errors"
	"fmt"
	"io/fs"

	"github.com/Aman-CERP/catalog/internal/exclude"
)

// Entry is the observed metadata of one path.
type Entry struct {
	RelPath   string // slash separated, relative to the root
	AbsPath   string
	IsDir     bool
	IsSymlink bool
	Size      uint64 // 0 for directories
	MTime     int64  // seconds since the epoch
	Ext       string // lowercased, without the dot; "" when none
}

// ErrorClass groups walk errors for summaries.
type ErrorClass string

const (
	// ClassPermission is a stat or read denial.
	ClassPermission ErrorClass = "permission"
	// ClassVanished is a path removed between listing and stat.
	ClassVanished ErrorClass = "vanished"
	// ClassIO is any other metadata access failure.
	ClassIO ErrorClass = "io"
)

// WalkError is a metadata access failure for one path. The walk continues
// past it.
type WalkError struct {
	Path  string
	Class ErrorClass
	Err   error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Class, e.Path, e.Err)
}

func (e *WalkError) Unwrap() error { return e.Err }

// Classify maps an error from os.ReadDir or Lstat to its class.
func Classify(err error) ErrorClass {
	switch {
	case stderrors.Is(err, fs.ErrPermission):
		return ClassPermission
	case stderrors.Is(err, fs.ErrNotExist):
		return ClassVanished
	default:
		return ClassIO
	}
}

// ScanOptions configures one walk.
type ScanOptions struct {
	// Root is the absolute directory to walk. It is not itself reported.
	Root string

	// Matcher decides what to skip. Nil keeps everything except hidden
	// entries.
	Matcher *exclude.Matcher

	// OneFilesystem skips directories on a different device than Root.
	OneFilesystem bool

	// Workers bounds concurrent directory reads (0 = NumCPU).
	Workers int
}

// ScanResult is returned from the scanner channel. Exactly one field is set.
type ScanResult struct {
	Entry *Entry
	Error *WalkError
}
