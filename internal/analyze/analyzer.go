// Package analyze turns the catalog into ranked disk-usage reports. Reports
// are computed from the snapshot; roots whose last index is older than the
// staleness threshold are re-indexed first when a Refresher is available.
package analyze

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/index"
	"github.com/Aman-CERP/catalog/internal/store"
)

const (
	// DefaultTopN is the default size of both top lists.
	DefaultTopN = 20
	// DefaultStaleAfter is how old a root's last index may be before a
	// report re-indexes it.
	DefaultStaleAfter = 24 * time.Hour

	reportCacheSize = 16
)

// Refresher re-indexes roots before a report. index.Indexer satisfies it
// through RefreshFunc.
type Refresher interface {
	Refresh(ctx context.Context, st *store.Store, rootIDs []uint64) (*index.Summary, error)
}

// RefreshFunc adapts a function to Refresher.
type RefreshFunc func(ctx context.Context, st *store.Store, rootIDs []uint64) (*index.Summary, error)

// Refresh implements Refresher.
func (f RefreshFunc) Refresh(ctx context.Context, st *store.Store, rootIDs []uint64) (*index.Summary, error) {
	return f(ctx, st, rootIDs)
}

// Options configures one report.
type Options struct {
	// Scope restricts the report to an absolute path. Empty means all
	// roots.
	Scope string

	TopDirs  int
	TopFiles int

	// StaleAfter is the freshness threshold (0 = DefaultStaleAfter).
	StaleAfter time.Duration

	// NoRefresh reports on the snapshot as is, even when stale.
	NoRefresh bool

	// HiddenSpace adds the best-effort hidden-space estimate.
	HiddenSpace bool
}

// Report is the result of Analyzer.Run.
type Report struct {
	Scope        string               `json:"scope,omitempty"`
	TotalScanned uint64               `json:"total_scanned"`
	Roots        []UsageEntry         `json:"roots"`
	TopDirs      []UsageEntry         `json:"top_dirs"`
	TopFiles     []UsageEntry         `json:"top_files"`
	HiddenSpace  *HiddenSpaceEstimate `json:"hidden_space_estimate,omitempty"`
	Errors       []index.ErrorGroup   `json:"errors"`
	RunID        uint64               `json:"run_id"`
	Refreshed    bool                 `json:"refreshed"`
	RollupCached bool                 `json:"rollup_cached"`
	Stale        []string             `json:"stale_roots,omitempty"`
}

type reportKey struct {
	epoch    uint64
	gen      uint64
	run      uint64
	scope    string
	topDirs  int
	topFiles int
}

// Analyzer produces reports. Safe for concurrent use as long as the store
// is not being mutated.
type Analyzer struct {
	refresher Refresher
	probe     UsageProbe
	now       func() time.Time
	reports   *lru.Cache[reportKey, *Report]

	mu    sync.Mutex
	owner *store.Store
	epoch uint64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithUsageProbe replaces the gopsutil probe.
func WithUsageProbe(p UsageProbe) Option {
	return func(a *Analyzer) { a.probe = p }
}

// WithClock replaces time.Now for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// New creates an Analyzer. A nil refresher never re-indexes.
func New(refresher Refresher, opts ...Option) *Analyzer {
	cache, _ := lru.New[reportKey, *Report](reportCacheSize)
	a := &Analyzer{
		refresher: refresher,
		probe:     DiskProbe{},
		now:       time.Now,
		reports:   cache,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// adopt binds the report cache to st. Reports computed from any earlier
// store are dropped, so a reloaded snapshot does not keep its predecessor
// reachable.
func (a *Analyzer) adopt(st *store.Store) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.owner != st {
		a.reports.Purge()
		a.owner = st
		a.epoch++
	}
	return a.epoch
}

// Run produces a usage report for opts.Scope.
//
// Directory totals come from the store's rollup cache when it belongs to
// the last run, and are rebuilt and re-tagged otherwise. Identical calls
// against an unchanged store return the same report.
func (a *Analyzer) Run(ctx context.Context, st *store.Store, opts Options) (*Report, error) {
	if opts.TopDirs == 0 {
		opts.TopDirs = DefaultTopN
	}
	if opts.TopFiles == 0 {
		opts.TopFiles = DefaultTopN
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.Scope != "" {
		opts.Scope = filepath.Clean(opts.Scope)
	}

	relevant, err := relevantRoots(st, opts.Scope)
	if err != nil {
		return nil, err
	}

	var refreshed bool
	var errs []index.ErrorGroup
	stale := a.staleRoots(relevant, opts.StaleAfter)
	if len(stale) > 0 && !opts.NoRefresh && a.refresher != nil {
		ids := make([]uint64, len(stale))
		for i, r := range stale {
			ids[i] = r.ID
		}
		slog.Info("analyze_refresh", slog.Int("stale_roots", len(ids)))
		sum, err := a.refresher.Refresh(ctx, st, ids)
		if err != nil {
			return nil, err
		}
		refreshed = true
		errs = sum.Errors
		stale = a.staleRoots(relevant, opts.StaleAfter)
	}

	key := reportKey{epoch: a.adopt(st), gen: st.Generation(), run: st.LastRunID(),
		scope: opts.Scope, topDirs: opts.TopDirs, topFiles: opts.TopFiles}
	base, ok := a.reports.Get(key)
	if !ok {
		if base, err = a.compute(ctx, st, opts); err != nil {
			return nil, err
		}
		a.reports.Add(key, base)
	}

	report := *base
	report.Refreshed = refreshed
	report.Errors = nonNilErrors(errs)
	report.Stale = nil
	for _, r := range stale {
		report.Stale = append(report.Stale, r.Path)
	}
	if opts.HiddenSpace {
		report.HiddenSpace = estimateHidden(ctx, a.probe, hiddenPaths(&report, relevant))
	}
	return &report, nil
}

func (a *Analyzer) compute(ctx context.Context, st *store.Store, opts Options) (*Report, error) {
	start := time.Now()
	roots := rootPaths(st)

	dirs, cached := rollup(st, roots)

	topDirs := newTopN(opts.TopDirs)
	for _, d := range dirs {
		if within(d.Path, opts.Scope) {
			topDirs.push(UsageEntry{Path: d.Path, Size: d.Size})
		}
	}

	var total uint64
	rootTotals := make(map[uint64]uint64, len(roots))
	topFiles := newTopN(opts.TopFiles)
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
		rootTotals[f.RootID] += f.Size
		if within(f.AbsPath, opts.Scope) {
			total += f.Size
			topFiles.push(UsageEntry{Path: f.AbsPath, Size: f.Size})
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	perRoot := make([]UsageEntry, 0, len(roots))
	for id, p := range roots {
		perRoot = append(perRoot, UsageEntry{Path: p, Size: rootTotals[id]})
	}
	sortUsage(perRoot)

	slog.Debug("analyze_computed",
		slog.String("scope", opts.Scope),
		slog.Bool("rollup_cached", cached),
		slog.Int("dirs", len(dirs)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &Report{
		Scope:        opts.Scope,
		TotalScanned: total,
		Roots:        perRoot,
		TopDirs:      topDirs.sorted(),
		TopFiles:     topFiles.sorted(),
		RunID:        st.LastRunID(),
		RollupCached: cached,
	}, nil
}

// relevantRoots returns the roots a scope touches: those containing it and
// those inside it.
func relevantRoots(st *store.Store, scope string) ([]store.Root, error) {
	all := st.Roots()
	if scope == "" {
		return all, nil
	}
	var out []store.Root
	for _, r := range all {
		if within(scope, r.Path) || within(r.Path, scope) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, cerrors.New(cerrors.ErrCodeInvalidPath, "path is not under any configured root: "+scope, nil).
			WithSuggestion("Add it with `catalog add " + scope + "`")
	}
	return out, nil
}

func (a *Analyzer) staleRoots(roots []store.Root, after time.Duration) []store.Root {
	now := a.now()
	var out []store.Root
	for _, r := range roots {
		if r.LastIndexedAt == nil || now.Sub(*r.LastIndexedAt) > after {
			out = append(out, r)
		}
	}
	return out
}

// hiddenPaths picks the paths whose devices are probed. A scoped report
// probes the scope; otherwise each relevant root with its own total.
func hiddenPaths(r *Report, roots []store.Root) []scannedPath {
	if r.Scope != "" {
		return []scannedPath{{path: r.Scope, scanned: r.TotalScanned}}
	}
	totals := make(map[string]uint64, len(r.Roots))
	for _, e := range r.Roots {
		totals[e.Path] = e.Size
	}
	out := make([]scannedPath, 0, len(roots))
	for _, root := range roots {
		out = append(out, scannedPath{path: root.Path, scanned: totals[root.Path]})
	}
	return out
}

func rootPaths(st *store.Store) map[uint64]string {
	roots := st.Roots()
	m := make(map[uint64]string, len(roots))
	for _, r := range roots {
		m[r.ID] = filepath.Clean(r.Path)
	}
	return m
}

func nonNilErrors(e []index.ErrorGroup) []index.ErrorGroup {
	if e == nil {
		return []index.ErrorGroup{}
	}
	return e
}

// Summary is a one-line description of a report for logs and MCP output.
func (r *Report) Summary() string {
	var b strings.Builder
	b.WriteString("scanned ")
	b.WriteString(humanize.IBytes(r.TotalScanned))
	if r.Scope != "" {
		b.WriteString(" under ")
		b.WriteString(r.Scope)
	}
	if len(r.TopDirs) > 0 {
		b.WriteString("; largest dir ")
		b.WriteString(r.TopDirs[0].Path)
	}
	return b.String()
}
