package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/catalog/internal/analyze"
	"github.com/Aman-CERP/catalog/internal/config"
	"github.com/Aman-CERP/catalog/internal/index"
	"github.com/Aman-CERP/catalog/internal/search"
	"github.com/Aman-CERP/catalog/internal/store"
	"github.com/Aman-CERP/catalog/internal/ui"
	"github.com/Aman-CERP/catalog/internal/watch"
)

// Integration Tests - these drive the indexer, search engine and analyzer
// against a real directory tree and a snapshot on disk.

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

// setupCatalog creates a tree and a store with it as the only root.
func setupCatalog(t *testing.T) (root string, st *store.Store) {
	t.Helper()
	dir := t.TempDir()
	root, err := config.NormalizePath(dir)
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "photos", "2024", "beach.jpg"), 4000)
	writeFile(t, filepath.Join(root, "photos", "2024", "city.jpg"), 3000)
	writeFile(t, filepath.Join(root, "docs", "taxes.pdf"), 500)
	writeFile(t, filepath.Join(root, "node_modules", "left-pad", "index.js"), 100)

	st = store.New(filepath.Join(t.TempDir(), "catalog.bin"))
	_, err = st.AddRoot(store.Root{Path: root, AddedAt: time.Now().UTC()})
	require.NoError(t, err)
	return root, st
}

func runIndex(t *testing.T, st *store.Store) *index.Summary {
	t.Helper()
	summary, err := index.New(ui.NopRenderer{}).Run(context.Background(), st, index.Options{
		Excludes: config.DefaultExcludes(),
		Workers:  4,
	})
	require.NoError(t, err)
	return summary
}

func TestCatalog_IndexSearchAnalyze(t *testing.T) {
	// Given: an indexed tree, reloaded from disk
	root, st := setupCatalog(t)
	summary := runIndex(t, st)
	require.True(t, summary.Saved)

	loaded, err := store.Load(st.Path())
	require.NoError(t, err)

	// When: searching the reloaded snapshot
	results, err := search.New().Search(context.Background(), loaded, search.Query{Text: ".JPG"})
	require.NoError(t, err)

	// Then: both photos are found and excluded paths are not indexed
	var got []string
	for _, r := range results {
		got = append(got, r.Path)
	}
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "photos", "2024", "beach.jpg"),
		filepath.Join(root, "photos", "2024", "city.jpg"),
	}, got)

	none, err := search.New().Search(context.Background(), loaded, search.Query{Text: "left-pad"})
	require.NoError(t, err)
	assert.Empty(t, none)

	// And: the analyzer attributes sizes up the tree
	report, err := analyze.New(nil).Run(context.Background(), loaded, analyze.Options{
		TopDirs:   5,
		TopFiles:  2,
		NoRefresh: true,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(7500), report.TotalScanned)
	require.Len(t, report.TopDirs, 4, "node_modules is excluded")
	assert.Equal(t, []analyze.UsageEntry{
		{Path: root, Size: 7500},
		{Path: filepath.Join(root, "photos"), Size: 7000},
		{Path: filepath.Join(root, "photos", "2024"), Size: 7000},
	}, report.TopDirs[:3])
	assert.Equal(t, []analyze.UsageEntry{
		{Path: filepath.Join(root, "photos", "2024", "beach.jpg"), Size: 4000},
		{Path: filepath.Join(root, "photos", "2024", "city.jpg"), Size: 3000},
	}, report.TopFiles)
}

func TestCatalog_ReindexTracksChanges(t *testing.T) {
	// Given: an indexed tree and an analyzer that has seen it
	root, st := setupCatalog(t)
	runIndex(t, st)
	analyzer := analyze.New(nil)
	opts := analyze.Options{TopDirs: 5, TopFiles: 5, NoRefresh: true}
	before, err := analyzer.Run(context.Background(), st, opts)
	require.NoError(t, err)

	// When: a file is removed, another grows and the tree is reindexed
	require.NoError(t, os.Remove(filepath.Join(root, "docs", "taxes.pdf")))
	writeFile(t, filepath.Join(root, "photos", "2024", "city.jpg"), 6000)
	summary := runIndex(t, st)

	// Then: the run reports the changes
	assert.Equal(t, 1, summary.Deleted)
	assert.Equal(t, before.RunID+1, summary.RunID)

	// And: the removed file is kept as deleted with its last metadata
	results, err := search.New().Search(context.Background(), st, search.Query{Text: "taxes"})
	require.NoError(t, err)
	assert.Empty(t, results)
	rootEntry, ok := st.RootByPath(root)
	require.True(t, ok)
	entry, ok := st.Lookup(rootEntry.ID, "docs/taxes.pdf")
	require.True(t, ok)
	assert.Equal(t, store.StatusDeleted, entry.Status)
	assert.Equal(t, uint64(500), entry.Size)

	// And: the report is recomputed from the new run
	after, err := analyzer.Run(context.Background(), st, opts)
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), after.TotalScanned)
	assert.False(t, after.RollupCached)
	assert.Greater(t, after.RunID, before.RunID)

	recent, err := search.New().Recent(context.Background(), st, search.RecentQuery{Days: 1, Now: time.Now()})
	require.NoError(t, err)
	for _, r := range recent {
		assert.Equal(t, store.StatusActive, r.Status, r.Path)
	}
}

func TestCatalog_WatchLoopPicksUpNewFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("filesystem notifications in short mode")
	}

	// Given: a watch loop that indexes on every trigger
	root, st := setupCatalog(t)
	ran := make(chan watch.Trigger, 8)
	loop := watch.New(func(ctx context.Context, trigger watch.Trigger) error {
		_, err := index.New(ui.NopRenderer{}).Run(ctx, st, index.Options{Workers: 2})
		ran <- trigger
		return err
	}, watch.Options{
		Interval: time.Hour,
		Debounce: 50 * time.Millisecond,
		Notify:   true,
		Roots:    []string{root},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	select {
	case trigger := <-ran:
		assert.Equal(t, watch.TriggerStart, trigger)
	case <-time.After(5 * time.Second):
		t.Fatal("initial run did not happen")
	}

	// When: a file appears directly in the root
	writeFile(t, filepath.Join(root, "new-download.zip"), 10)

	// Then: a change-triggered run indexes it
	select {
	case trigger := <-ran:
		assert.Equal(t, watch.TriggerChange, trigger)
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger a run")
	}
	results, err := search.New().Search(context.Background(), st, search.Query{Text: "new-download"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
