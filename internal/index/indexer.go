// Package index runs metadata walks over the configured roots and records
// what they observe in the store. Each run stamps every entry it sees with
// a fresh run id; entries of a fully walked root that were not stamped are
// marked deleted.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/exclude"
	"github.com/Aman-CERP/catalog/internal/scanner"
	"github.com/Aman-CERP/catalog/internal/store"
	"github.com/Aman-CERP/catalog/internal/ui"
)

// DefaultErrorExamples is how many example paths each error group keeps.
const DefaultErrorExamples = 5

// progressEvery throttles per-entry progress events.
const progressEvery = 1024

// Options configures a run.
type Options struct {
	// Excludes are the exclude patterns applied to every root.
	Excludes []string

	// IncludeHidden keeps dotfiles and dot-directories.
	IncludeHidden bool

	// OneFilesystem overrides each root's own setting when non-nil.
	OneFilesystem *bool

	// RootIDs limits the run to these roots. Empty means all roots.
	RootIDs []uint64

	// Workers bounds concurrent directory reads per root (0 = NumCPU).
	Workers int

	// ErrorExamples is the number of example paths kept per error class.
	ErrorExamples int

	// Home expands "~/" in exclude patterns.
	Home string

	// Now stamps last_indexed_at. Defaults to time.Now.
	Now func() time.Time
}

// Indexer executes runs. It is not safe to run two at once against the
// same store.
type Indexer struct {
	scanner  *scanner.Scanner
	renderer ui.Renderer
}

// New creates an Indexer reporting to renderer. A nil renderer discards
// progress.
func New(renderer ui.Renderer) *Indexer {
	if renderer == nil {
		renderer = ui.NopRenderer{}
	}
	return &Indexer{scanner: scanner.New(), renderer: renderer}
}

// Run walks the selected roots, upserts every observed entry with a new run
// id, marks unseen entries of each completed root deleted, commits the run,
// and saves the snapshot when the store has a path.
//
// Permission and I/O errors on individual paths are collected into the
// summary and do not stop the walk. A missing or unreadable root is
// recorded, warned about, and left unswept so its entries keep their
// previous state. Cancellation aborts the run without committing it.
func (ix *Indexer) Run(ctx context.Context, st *store.Store, opts Options) (*Summary, error) {
	start := time.Now()
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ErrorExamples <= 0 {
		opts.ErrorExamples = DefaultErrorExamples
	}

	roots, err := selectRoots(st, opts.RootIDs)
	if err != nil {
		return nil, err
	}

	runID := st.ReserveRunID()
	summary := &Summary{RunID: runID, Roots: []RootSummary{}, Errors: []ErrorGroup{}}
	var timings ui.StageTimings

	slog.Info("index_started", slog.Uint64("run_id", runID), slog.Int("roots", len(roots)))

	for _, root := range roots {
		rs, err := ix.indexRoot(ctx, st, root, runID, opts, &timings)
		if err != nil {
			return nil, err
		}
		summary.add(rs)
	}

	if err := st.CommitRun(runID); err != nil {
		return nil, err
	}

	if st.Path() != "" {
		saveStart := time.Now()
		ix.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageSaving, Message: "Saving " + st.Path()})
		if err := st.Save(); err != nil {
			return nil, err
		}
		timings.Save = time.Since(saveStart)
		summary.Saved = true
	}

	summary.Duration = time.Since(start)

	ix.renderer.Complete(ui.CompletionStats{
		RunID:     runID,
		Roots:     len(summary.Roots),
		Seen:      summary.Seen,
		Created:   summary.Created,
		Updated:   summary.Updated,
		Unchanged: summary.Unchanged,
		Deleted:   summary.Deleted,
		Missing:   summary.Missing,
		Warnings:  summary.ErrorCount(),
		Duration:  summary.Duration,
		Stages:    timings,
	})

	slog.Info("index_complete",
		slog.Uint64("run_id", runID),
		slog.Int("roots", len(summary.Roots)),
		slog.Int("seen", summary.Seen),
		slog.Int("created", summary.Created),
		slog.Int("updated", summary.Updated),
		slog.Int("deleted", summary.Deleted),
		slog.Int("missing_roots", summary.Missing),
		slog.Int("errors", summary.ErrorCount()),
		slog.Int64("duration_scan_ms", timings.Scan.Milliseconds()),
		slog.Int64("duration_record_ms", timings.Record.Milliseconds()),
		slog.Int64("duration_save_ms", timings.Save.Milliseconds()),
		slog.Int64("duration_total_ms", summary.Duration.Milliseconds()))

	return summary, nil
}

func selectRoots(st *store.Store, ids []uint64) ([]store.Root, error) {
	all := st.Roots()
	if len(all) == 0 {
		return nil, cerrors.UserInputError("no roots configured", nil).
			WithSuggestion("Add one with `catalog add <path>` or run `catalog init`")
	}
	if len(ids) == 0 {
		return all, nil
	}

	out := make([]store.Root, 0, len(ids))
	for _, id := range ids {
		r, ok := st.Root(id)
		if !ok {
			return nil, cerrors.New(cerrors.ErrCodeUnknownRoot, fmt.Sprintf("unknown root id %d", id), nil)
		}
		out = append(out, r)
	}
	return out, nil
}

func (ix *Indexer) indexRoot(ctx context.Context, st *store.Store, root store.Root, runID uint64,
	opts Options, timings *ui.StageTimings) (RootSummary, error) {

	started := time.Now()
	rs := RootSummary{RootID: root.ID, Path: root.Path, Errors: []ErrorGroup{}}
	errs := newErrorAggregator(root, opts.ErrorExamples)

	oneFS := root.OneFilesystem
	if opts.OneFilesystem != nil {
		oneFS = *opts.OneFilesystem
	}

	matcher, err := exclude.Compile(root.Path, opts.Excludes, exclude.Options{
		IncludeHidden: opts.IncludeHidden,
		Home:          opts.Home,
	})
	if err != nil {
		return rs, err
	}

	ix.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageScanning, Root: root.Path, Message: "Scanning " + root.Path})
	results, err := ix.scanner.Scan(ctx, &scanner.ScanOptions{
		Root:          root.Path,
		Matcher:       matcher,
		OneFilesystem: oneFS,
		Workers:       opts.Workers,
	})
	if err != nil {
		if cerrors.GetCode(err) == cerrors.ErrCodeRootMissing {
			rs.Missing = true
		}
		rs.Error = err.Error()
		rs.Duration = time.Since(started)
		ix.renderer.AddError(ui.ErrorEvent{Path: root.Path, Err: err, IsWarn: true})
		slog.Warn("root_skipped", slog.String("root", root.Path), slog.String("error", err.Error()))
		return rs, nil
	}

	var entries []*scanner.Entry
	for r := range results {
		if r.Error != nil {
			errs.add(r.Error)
			slog.Debug("walk_error", slog.String("path", r.Error.Path), slog.String("class", string(r.Error.Class)))
			continue
		}
		entries = append(entries, r.Entry)
		if len(entries)%progressEvery == 0 {
			ix.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageScanning, Root: root.Path,
				Current: len(entries), Path: r.Entry.AbsPath})
		}
	}
	if err := ctx.Err(); err != nil {
		return rs, err
	}
	timings.Scan += time.Since(started)

	// Sorting makes id assignment independent of walk concurrency.
	recordStart := time.Now()
	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })

	for i, e := range entries {
		outcome, err := st.UpsertFile(root.ID, e.RelPath, store.FileMeta{
			AbsPath:   e.AbsPath,
			IsDir:     e.IsDir,
			IsSymlink: e.IsSymlink,
			Size:      e.Size,
			MTime:     e.MTime,
			Ext:       e.Ext,
		}, runID)
		if err != nil {
			return rs, err
		}
		switch outcome {
		case store.Created:
			rs.Created++
		case store.Updated:
			rs.Updated++
		case store.Unchanged:
			rs.Unchanged++
		}
		if (i+1)%progressEvery == 0 {
			ix.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageRecording, Root: root.Path,
				Current: i + 1, Total: len(entries), Path: e.AbsPath})
		}
	}
	rs.Seen = len(entries)
	rs.Errors = errs.result()
	timings.Record += time.Since(recordStart)

	sweepStart := time.Now()
	ix.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageSweeping, Root: root.Path})
	rs.Deleted = st.MarkDeletedUnseen(root.ID, runID)
	st.MarkRootIndexed(root.ID, opts.Now())
	timings.Sweep += time.Since(sweepStart)

	rs.Duration = time.Since(started)
	slog.Info("root_indexed",
		slog.String("root", root.Path),
		slog.Int("seen", rs.Seen),
		slog.Int("created", rs.Created),
		slog.Int("updated", rs.Updated),
		slog.Int("deleted", rs.Deleted),
		slog.Int64("duration_ms", rs.Duration.Milliseconds()))
	return rs, nil
}
