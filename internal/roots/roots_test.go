package roots

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/catalog/internal/config"
	"github.com/Aman-CERP/catalog/internal/store"
)

// realDir returns a fresh directory with symlinks resolved, matching what
// NormalizePath stores.
func realDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestAdd(t *testing.T) {
	a, b := realDir(t), realDir(t)

	tests := []struct {
		name      string
		existing  []string
		paths     []string
		wantAdded int
		wantRoots []string
	}{
		{"adds new", nil, []string{a}, 1, []string{a}},
		{"dedupes against config", []string{a}, []string{a, b}, 1, []string{a, b}},
		{"dedupes within call", nil, []string{b, b + "/"}, 1, []string{b}},
		{"skips missing", nil, []string{filepath.Join(a, "nope"), b}, 1, []string{b}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a config with existing roots
			cfg := config.NewConfig()
			cfg.Roots = append([]string{}, tt.existing...)

			// When: adding paths
			added := Add(cfg, tt.paths)

			// Then: only new existing paths are appended
			assert.Equal(t, tt.wantAdded, added)
			assert.Equal(t, tt.wantRoots, cfg.Roots)
		})
	}
}

func TestRemove_AllowsMissingPaths(t *testing.T) {
	// Given: a config with a root that has since been deleted
	a := realDir(t)
	gone := filepath.Join(realDir(t), "gone")
	require.NoError(t, os.Mkdir(gone, 0o755))
	cfg := config.NewConfig()
	cfg.Roots = []string{a, gone}
	require.NoError(t, os.Remove(gone))

	// When: removing the missing root
	removed, err := Remove(cfg, []string{gone})

	// Then: it is dropped and the other root stays
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{a}, cfg.Roots)
}

func TestRemove_UnknownPathIsNoop(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Roots = []string{"/data"}

	removed, err := Remove(cfg, []string{"/elsewhere"})

	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, []string{"/data"}, cfg.Roots)
}

func TestSync_CreatesRootsWithPreset(t *testing.T) {
	// Given: a config with two roots and an empty store
	cfg := config.NewConfig()
	cfg.Roots = []string{"/data/a", "/data/b"}
	cfg.OneFilesystem = false
	st := store.New("")

	// When: syncing after init with a preset
	res, err := Sync(st, cfg, "home")

	// Then: both roots exist with the preset name and flags
	require.NoError(t, err)
	require.Len(t, res.Added, 2)
	assert.True(t, res.Changed())

	roots := st.Roots()
	require.Len(t, roots, 2)
	for _, r := range roots {
		assert.Equal(t, "home", r.PresetName)
		assert.False(t, r.OneFilesystem)
		assert.False(t, r.AddedAt.IsZero())
		assert.Nil(t, r.LastIndexedAt)
	}
}

func TestSync_IsIdempotentAndUpdatesFlags(t *testing.T) {
	// Given: a store already synced once
	cfg := config.NewConfig()
	cfg.Roots = []string{"/data/a"}
	st := store.New("")
	_, err := Sync(st, cfg, "")
	require.NoError(t, err)
	before, _ := st.RootByPath("/data/a")

	// When: syncing again with one_filesystem flipped
	cfg.OneFilesystem = !cfg.OneFilesystem
	res, err := Sync(st, cfg, "other")

	// Then: the root keeps its id and preset but takes the new flag
	require.NoError(t, err)
	assert.False(t, res.Changed())
	after, ok := st.RootByPath("/data/a")
	require.True(t, ok)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.PresetName, after.PresetName)
	assert.Equal(t, cfg.OneFilesystem, after.OneFilesystem)
}

func TestSync_PurgesRemovedRoots(t *testing.T) {
	// Given: a store with two roots and entries under both
	cfg := config.NewConfig()
	cfg.Roots = []string{"/data/a", "/data/b"}
	st := store.New("")
	_, err := Sync(st, cfg, "")
	require.NoError(t, err)

	a, _ := st.RootByPath("/data/a")
	b, _ := st.RootByPath("/data/b")
	run := st.ReserveRunID()
	_, err = st.UpsertFile(a.ID, "x.txt", store.FileMeta{AbsPath: "/data/a/x.txt", Size: 1}, run)
	require.NoError(t, err)
	_, err = st.UpsertFile(b.ID, "y.txt", store.FileMeta{AbsPath: "/data/b/y.txt", Size: 2}, run)
	require.NoError(t, err)
	_, err = st.UpsertFile(b.ID, "z.txt", store.FileMeta{AbsPath: "/data/b/z.txt", Size: 3}, run)
	require.NoError(t, err)

	// When: b is removed from the config and roots are synced
	cfg.Roots = []string{"/data/a"}
	res, err := Sync(st, cfg, "")

	// Then: b and its entries are gone, a is untouched
	require.NoError(t, err)
	require.Len(t, res.Removed, 1)
	assert.Equal(t, "/data/b", res.Removed[0].Path)
	assert.Equal(t, 2, res.PurgedEntries)
	assert.Len(t, st.Roots(), 1)
	assert.Equal(t, 1, st.FileCount())
	_, ok := st.Lookup(a.ID, "x.txt")
	assert.True(t, ok)
}

func TestSync_ExpandsTilde(t *testing.T) {
	home := config.HomeDir()
	if home == "" {
		t.Skip("no home directory")
	}
	cfg := config.NewConfig()
	cfg.Roots = []string{"~/catalog-sync-test"}
	st := store.New("")

	_, err := Sync(st, cfg, "")

	require.NoError(t, err)
	_, ok := st.RootByPath(filepath.Join(home, "catalog-sync-test"))
	assert.True(t, ok)
}

func TestStatus(t *testing.T) {
	// Given: a saved store with one existing and one missing root
	dir := realDir(t)
	storePath := filepath.Join(t.TempDir(), "catalog.bin")
	st := store.New(storePath)
	live, err := st.AddRoot(store.Root{Path: dir, PresetName: "home"})
	require.NoError(t, err)
	_, err = st.AddRoot(store.Root{Path: filepath.Join(dir, "gone")})
	require.NoError(t, err)

	run := st.ReserveRunID()
	_, err = st.UpsertFile(live.ID, "a.txt", store.FileMeta{AbsPath: filepath.Join(dir, "a.txt"), Size: 1}, run)
	require.NoError(t, err)
	_, err = st.UpsertFile(live.ID, "b.txt", store.FileMeta{AbsPath: filepath.Join(dir, "b.txt"), Size: 1}, run)
	require.NoError(t, err)
	require.NoError(t, st.CommitRun(run))
	require.NoError(t, st.Save())

	// When: building the status
	info := Status(st, storePath)

	// Then: counts and root flags are reported
	assert.True(t, info.StoreExists)
	assert.Positive(t, info.StoreSize)
	assert.Equal(t, run, info.LastRunID)
	assert.Equal(t, 2, info.Active)
	require.Len(t, info.Roots, 2)
	assert.Equal(t, 2, info.Roots[0].Active)
	assert.Equal(t, "home", info.Roots[0].Preset)
	assert.False(t, info.Roots[0].Missing)
	assert.True(t, info.Roots[1].Missing)
}

func TestStatus_NoSnapshot(t *testing.T) {
	info := Status(store.New(""), filepath.Join(t.TempDir(), "none.bin"))

	assert.False(t, info.StoreExists)
	assert.NotNil(t, info.Roots)
	assert.Empty(t, info.Roots)
}
