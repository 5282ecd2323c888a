package scanner

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/exclude"
)

// Scanner walks roots. It holds no state between walks and may be shared.
type Scanner struct{}

// New creates a new Scanner instance.
func New() *Scanner {
	return &Scanner{}
}

// Scan walks opts.Root and streams entries and per-path errors as they are
// discovered. Independent subtrees are read concurrently, so arrival order
// is not deterministic. The channel is closed when the walk finishes or ctx
// is cancelled.
//
// A root that is missing or unreadable is returned as an error before any
// walking starts.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil || opts.Root == "" {
		return nil, cerrors.UserInputError("scan root is required", nil)
	}
	root := filepath.Clean(opts.Root)

	info, err := os.Stat(root)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, cerrors.New(cerrors.ErrCodeRootMissing, "root does not exist: "+root, err).
				WithDetail("root", root)
		}
		return nil, cerrors.New(cerrors.ErrCodeFilesystemAccess, "cannot stat root: "+root, err).
			WithDetail("root", root)
	}
	if !info.IsDir() {
		return nil, cerrors.UserInputError("root is not a directory: "+root, nil)
	}
	// An unreadable root would otherwise look like an empty one.
	f, err := os.Open(root)
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodeFilesystemAccess, "cannot read root: "+root, err).
			WithDetail("root", root)
	}
	_ = f.Close()

	matcher := opts.Matcher
	if matcher == nil {
		if matcher, err = exclude.Compile(root, nil, exclude.Options{}); err != nil {
			return nil, err
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	w := &walker{
		matcher: matcher,
		oneFS:   opts.OneFilesystem,
		results: make(chan ScanResult, workers*64),
	}
	if opts.OneFilesystem {
		w.rootDev, w.haveDev = DeviceID(info)
	}

	go func() {
		defer close(w.results)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		w.g = g
		w.ctx = gctx

		if err := w.walkDir(root, ""); err != nil {
			slog.Debug("walk stopped", slog.String("root", root), slog.String("error", err.Error()))
		}
		if err := g.Wait(); err != nil {
			slog.Debug("walk stopped", slog.String("root", root), slog.String("error", err.Error()))
		}
	}()

	return w.results, nil
}

type walker struct {
	matcher *exclude.Matcher
	oneFS   bool
	rootDev uint64
	haveDev bool

	g       *errgroup.Group
	ctx     context.Context
	results chan ScanResult
}

// walkDir lists dir and recurses into kept subdirectories, handing them to
// another worker when one is free. It only returns an error on
// cancellation.
func (w *walker) walkDir(dir, rel string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	// ReadDir may return the entries it read before failing.
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !w.report(dir, err) {
			return w.ctx.Err()
		}
	}

	for _, d := range entries {
		name := d.Name()
		childRel := name
		if rel != "" {
			childRel = rel + "/" + name
		}
		childAbs := filepath.Join(dir, name)
		isDir := d.IsDir()

		if w.matcher.Skip(childRel, isDir) {
			continue
		}

		info, err := d.Info()
		if err != nil {
			if !w.report(childAbs, err) {
				return w.ctx.Err()
			}
			continue
		}

		if isDir && w.oneFS && w.haveDev {
			if dev, ok := DeviceID(info); ok && dev != w.rootDev {
				slog.Debug("skipping other filesystem", slog.String("path", childAbs))
				continue
			}
		}

		e := &Entry{
			RelPath:   childRel,
			AbsPath:   childAbs,
			IsDir:     isDir,
			IsSymlink: info.Mode()&fs.ModeSymlink != 0,
			MTime:     info.ModTime().Unix(),
			Ext:       Ext(name),
		}
		if !isDir {
			e.Size = uint64(max(info.Size(), 0))
		}
		if !w.send(ScanResult{Entry: e}) {
			return w.ctx.Err()
		}

		if isDir {
			subAbs, subRel := childAbs, childRel
			if !w.g.TryGo(func() error { return w.walkDir(subAbs, subRel) }) {
				if err := w.walkDir(subAbs, subRel); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (w *walker) report(path string, err error) bool {
	class := Classify(err)
	if class == ClassPermission {
		err = cerrors.PermissionError(path, err)
	}
	return w.send(ScanResult{Error: &WalkError{Path: path, Class: class, Err: err}})
}

func (w *walker) send(r ScanResult) bool {
	select {
	case w.results <- r:
		return true
	case <-w.ctx.Done():
		return false
	}
}

// Ext returns the lowercased extension of name without the dot. Dotfiles
// without a further dot (".bashrc") and names ending in a dot have none.
func Ext(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	if strings.Trim(name[:i], ".") == "" {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// Collect drains a Scan channel into slices. Useful for callers that need
// the whole walk before acting on it.
func Collect(results <-chan ScanResult) ([]*Entry, []*WalkError) {
	var entries []*Entry
	var errs []*WalkError
	for r := range results {
		switch {
		case r.Entry != nil:
			entries = append(entries, r.Entry)
		case r.Error != nil:
			errs = append(errs, r.Error)
		}
	}
	return entries, errs
}

// String describes the options for logs.
func (o *ScanOptions) String() string {
	return fmt.Sprintf("root=%s one_filesystem=%t workers=%d", o.Root, o.OneFilesystem, o.Workers)
}
