package analyze

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/index"
	"github.com/Aman-CERP/catalog/internal/store"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func indexer() RefreshFunc {
	return func(ctx context.Context, st *store.Store, ids []uint64) (*index.Summary, error) {
		return index.New(nil).Run(ctx, st, index.Options{RootIDs: ids})
	}
}

// indexedTree indexes a root holding a (10), sub/b (20) and sub/deep/c (30).
func indexedTree(t *testing.T) (*store.Store, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a"), 10)
	writeFile(t, filepath.Join(root, "sub", "b"), 20)
	writeFile(t, filepath.Join(root, "sub", "deep", "c"), 30)

	st := store.New("")
	_, err := st.AddRoot(store.Root{Path: root})
	require.NoError(t, err)
	_, err = index.New(nil).Run(context.Background(), st, index.Options{})
	require.NoError(t, err)
	return st, root
}

func sizes(es []UsageEntry) []uint64 {
	out := make([]uint64, len(es))
	for i, e := range es {
		out[i] = e.Size
	}
	return out
}

func TestRun_TotalsAndTopFilesScenario(t *testing.T) {
	// Given: an indexed tree of 10, 20 and 30 byte files
	st, root := indexedTree(t)

	// When: analyzing the root
	rep, err := New(nil).Run(context.Background(), st, Options{Scope: root})
	require.NoError(t, err)

	// Then: totals and ranking match
	assert.Equal(t, uint64(60), rep.TotalScanned)
	assert.Equal(t, []uint64{30, 20, 10}, sizes(rep.TopFiles))
	assert.Equal(t, filepath.Join(root, "sub", "deep", "c"), rep.TopFiles[0].Path)

	assert.Equal(t, []UsageEntry{
		{Path: root, Size: 60},
		{Path: filepath.Join(root, "sub"), Size: 50},
		{Path: filepath.Join(root, "sub", "deep"), Size: 30},
	}, rep.TopDirs)
	assert.Equal(t, []UsageEntry{{Path: root, Size: 60}}, rep.Roots)
	assert.Empty(t, rep.Errors)
}

func TestRun_DeletedFileDropsFromFreshReport(t *testing.T) {
	st, root := indexedTree(t)
	first, err := New(nil).Run(context.Background(), st, Options{})
	require.NoError(t, err)
	require.Equal(t, uint64(60), first.TotalScanned)

	// When: one file is removed and the root re-indexed
	require.NoError(t, os.Remove(filepath.Join(root, "a")))
	_, err = index.New(nil).Run(context.Background(), st, index.Options{})
	require.NoError(t, err)

	// Then: a fresh analyzer sees 50 and rebuilds the rollup
	rep, err := New(nil).Run(context.Background(), st, Options{})
	require.NoError(t, err)
	assert.Equal(t, uint64(50), rep.TotalScanned)
	assert.False(t, rep.RollupCached)
	assert.Equal(t, []uint64{30, 20}, sizes(rep.TopFiles))
}

func TestRun_RollupCacheIsReused(t *testing.T) {
	st, _ := indexedTree(t)
	first, err := New(nil).Run(context.Background(), st, Options{})
	require.NoError(t, err)
	assert.False(t, first.RollupCached)
	assert.True(t, st.DirSizesFresh())

	// A different analyzer has no report cache but reuses the store rollup.
	second, err := New(nil).Run(context.Background(), st, Options{})
	require.NoError(t, err)
	assert.True(t, second.RollupCached)
	assert.Equal(t, first.TopDirs, second.TopDirs)
	assert.Equal(t, first.TopFiles, second.TopFiles)

	_, run := st.DirSizes()
	assert.Equal(t, st.LastRunID(), run)
}

func TestRun_ReportCacheFollowsReloadedSnapshot(t *testing.T) {
	// Given: an indexed tree saved as a snapshot and one analyzer
	st, root := indexedTree(t)
	path := filepath.Join(t.TempDir(), "catalog.bin")
	require.NoError(t, st.SaveTo(path))
	old, err := store.Load(path)
	require.NoError(t, err)
	a := New(nil)

	first, err := a.Run(context.Background(), old, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, a.reports.Len())

	// When: the snapshot changes on disk and is loaded again
	writeFile(t, filepath.Join(root, "e"), 40)
	_, err = index.New(nil).Run(context.Background(), old, index.Options{})
	require.NoError(t, err)
	require.NoError(t, old.SaveTo(path))
	reloaded, err := store.Load(path)
	require.NoError(t, err)

	second, err := a.Run(context.Background(), reloaded, Options{})
	require.NoError(t, err)

	// Then: only the reloaded store's report stays cached
	assert.Equal(t, uint64(60), first.TotalScanned)
	assert.Equal(t, uint64(100), second.TotalScanned)
	assert.Equal(t, 1, a.reports.Len())
	assert.Same(t, reloaded, a.owner)
	assert.Equal(t, uint64(2), a.epoch)

	// And: repeating the call hits the cache
	third, err := a.Run(context.Background(), reloaded, Options{})
	require.NoError(t, err)
	assert.Equal(t, second.TopDirs, third.TopDirs)
	assert.Equal(t, 1, a.reports.Len())
}

func TestRun_ScopeFiltersButRootTotalsDoNot(t *testing.T) {
	st, root := indexedTree(t)

	rep, err := New(nil).Run(context.Background(), st, Options{Scope: filepath.Join(root, "sub")})
	require.NoError(t, err)

	assert.Equal(t, uint64(50), rep.TotalScanned)
	assert.Equal(t, []uint64{50, 30}, sizes(rep.TopDirs))
	assert.Equal(t, []uint64{30, 20}, sizes(rep.TopFiles))
	assert.Equal(t, uint64(60), rep.Roots[0].Size)
}

func TestRun_TopNLimitsAndTies(t *testing.T) {
	st := store.New("")
	r, err := st.AddRoot(store.Root{Path: "/r"})
	require.NoError(t, err)
	for _, name := range []string{"d", "b", "c", "a"} {
		_, err := st.UpsertFile(r.ID, name, store.FileMeta{AbsPath: "/r/" + name, Size: 5}, 1)
		require.NoError(t, err)
	}
	_, err = st.UpsertFile(r.ID, "zero", store.FileMeta{AbsPath: "/r/zero"}, 1)
	require.NoError(t, err)
	require.NoError(t, st.CommitRun(1))
	st.MarkRootIndexed(r.ID, time.Now())

	rep, err := New(nil).Run(context.Background(), st, Options{TopFiles: 2})
	require.NoError(t, err)

	assert.Equal(t, []UsageEntry{{Path: "/r/a", Size: 5}, {Path: "/r/b", Size: 5}}, rep.TopFiles)
	assert.Equal(t, uint64(20), rep.TotalScanned)
}

func TestRun_StaleRootsAreRefreshed(t *testing.T) {
	st, root := indexedTree(t)
	writeFile(t, filepath.Join(root, "new"), 40)

	tests := []struct {
		name      string
		clock     time.Time
		noRefresh bool
		refreshed bool
		total     uint64
	}{
		{"fresh snapshot is used as is", time.Now(), false, false, 60},
		{"stale snapshot is refreshed", time.Now().Add(48 * time.Hour), false, true, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(indexer(), WithClock(func() time.Time { return tt.clock }))
			rep, err := a.Run(context.Background(), st, Options{NoRefresh: tt.noRefresh})
			require.NoError(t, err)
			assert.Equal(t, tt.refreshed, rep.Refreshed)
			assert.Equal(t, tt.total, rep.TotalScanned)
		})
	}
}

func TestRun_NoRefreshReportsStaleRoots(t *testing.T) {
	st, root := indexedTree(t)
	called := false
	refresher := RefreshFunc(func(context.Context, *store.Store, []uint64) (*index.Summary, error) {
		called = true
		return &index.Summary{}, nil
	})
	a := New(refresher, WithClock(func() time.Time { return time.Now().Add(72 * time.Hour) }))

	rep, err := a.Run(context.Background(), st, Options{NoRefresh: true})
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, []string{root}, rep.Stale)
}

func TestRun_RefreshErrorPropagates(t *testing.T) {
	st := store.New("")
	_, err := st.AddRoot(store.Root{Path: t.TempDir()})
	require.NoError(t, err)
	boom := errors.New("boom")

	_, err = New(RefreshFunc(func(context.Context, *store.Store, []uint64) (*index.Summary, error) {
		return nil, boom
	})).Run(context.Background(), st, Options{})

	assert.ErrorIs(t, err, boom)
}

func TestRun_ScopeOutsideRoots(t *testing.T) {
	st, _ := indexedTree(t)

	_, err := New(nil).Run(context.Background(), st, Options{Scope: "/definitely/elsewhere"})

	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeInvalidPath, cerrors.GetCode(err))
}

type fakeProbe struct {
	usage map[string]Usage
}

func (p fakeProbe) Usage(_ context.Context, path string) (Usage, error) {
	u, ok := p.usage[path]
	if !ok {
		return Usage{}, errors.New("no usage")
	}
	return u, nil
}

func TestRun_HiddenSpaceEstimate(t *testing.T) {
	st, root := indexedTree(t)

	t.Run("available", func(t *testing.T) {
		probe := fakeProbe{usage: map[string]Usage{root: {Device: 7, Mountpoint: "/", Used: 1060}}}
		rep, err := New(nil, WithUsageProbe(probe)).Run(context.Background(), st, Options{HiddenSpace: true})
		require.NoError(t, err)

		require.NotNil(t, rep.HiddenSpace)
		assert.Equal(t, uint64(1000), rep.HiddenSpace.Hidden)
		assert.Equal(t, []DeviceUsage{{Mountpoint: "/", Used: 1060, Scanned: 60, Hidden: 1000}}, rep.HiddenSpace.Devices)
		assert.NotEmpty(t, rep.HiddenSpace.Guidance)
	})

	t.Run("unavailable is omitted", func(t *testing.T) {
		rep, err := New(nil, WithUsageProbe(fakeProbe{})).Run(context.Background(), st, Options{HiddenSpace: true})
		require.NoError(t, err)
		assert.Nil(t, rep.HiddenSpace)
	})

	t.Run("not requested", func(t *testing.T) {
		rep, err := New(nil).Run(context.Background(), st, Options{})
		require.NoError(t, err)
		assert.Nil(t, rep.HiddenSpace)
	})
}

func TestDiskProbe_ReadsRealFilesystem(t *testing.T) {
	u, err := DiskProbe{}.Usage(context.Background(), t.TempDir())
	if err != nil {
		t.Skipf("disk usage unavailable: %v", err)
	}
	assert.NotZero(t, u.Total)
	assert.NotEmpty(t, u.Mountpoint)
}

func TestBrowse_ChildrenFromRollup(t *testing.T) {
	st, root := indexedTree(t)

	idx, err := New(nil).Browse(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, []Child{{Path: root, Size: 60, IsDir: true}}, idx.Children(""))
	assert.Equal(t, []Child{
		{Path: filepath.Join(root, "sub"), Size: 50, IsDir: true},
		{Path: filepath.Join(root, "a"), Size: 10},
	}, idx.Children(root))
	assert.Equal(t, []Child{
		{Path: filepath.Join(root, "sub", "deep"), Size: 30, IsDir: true},
		{Path: filepath.Join(root, "sub", "b"), Size: 20},
	}, idx.Children(filepath.Join(root, "sub")))

	total, ok := idx.Total(filepath.Join(root, "sub"))
	assert.True(t, ok)
	assert.Equal(t, uint64(50), total)
	assert.Empty(t, idx.Children("/unknown"))
}

func TestTopN(t *testing.T) {
	tn := newTopN(3)
	for _, e := range []UsageEntry{{"e", 1}, {"d", 9}, {"c", 5}, {"b", 5}, {"a", 5}, {"f", 0}} {
		tn.push(e)
	}
	assert.Equal(t, []UsageEntry{{"d", 9}, {"a", 5}, {"b", 5}}, tn.sorted())

	assert.Empty(t, newTopN(0).sorted())
}
