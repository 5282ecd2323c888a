package mcp

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/catalog/internal/analyze"
	"github.com/Aman-CERP/catalog/internal/config"
	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/store"
)

// writeSnapshot saves a store with one root and a few files and returns
// its path.
func writeSnapshot(t *testing.T, files map[string]uint64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.bin")
	st := store.New(path)
	root, err := st.AddRoot(store.Root{Path: "/data"})
	require.NoError(t, err)

	run := st.ReserveRunID()
	now := time.Now().Unix()
	rels := make([]string, 0, len(files))
	for rel := range files {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	for _, rel := range rels {
		_, err := st.UpsertFile(root.ID, rel, store.FileMeta{
			AbsPath: "/data/" + rel, Size: files[rel], MTime: now, Ext: filepath.Ext(rel)[1:],
		}, run)
		require.NoError(t, err)
	}
	require.NoError(t, st.CommitRun(run))
	require.True(t, st.MarkRootIndexed(root.ID, time.Now()))
	require.NoError(t, st.Save())
	return path
}

type fakeProbe struct{}

func (fakeProbe) Usage(context.Context, string) (analyze.Usage, error) {
	return analyze.Usage{}, errors.New("no probe in tests")
}

func newTestServer(t *testing.T, path string) *Server {
	t.Helper()
	s, err := NewServer(NewSnapshot(path), config.NewConfig(), analyze.WithUsageProbe(fakeProbe{}))
	require.NoError(t, err)
	return s
}

func TestNewServer_RequiresSnapshot(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestListTools(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "none.bin"))

	names := []string{}
	for _, tool := range s.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}
	assert.Equal(t, []string{"search", "recent", "analyze", "index_status"}, names)
	assert.NotContains(t, s.ListTools()[0].Description, "deleted entries")
	assert.NotNil(t, s.MCPServer())
}

func TestHandleSearch(t *testing.T) {
	path := writeSnapshot(t, map[string]uint64{
		"Report.pdf":   100,
		"notes.txt":    10,
		"report.draft": 5,
	})
	s := newTestServer(t, path)

	tests := []struct {
		name  string
		in    SearchInput
		want  []string
		check func(t *testing.T, err error)
	}{
		{
			name: "case-insensitive substring",
			in:   SearchInput{Query: "REPORT"},
			want: []string{"/data/Report.pdf", "/data/report.draft"},
		},
		{
			name: "extension filter",
			in:   SearchInput{Query: "report", Ext: "pdf"},
			want: []string{"/data/Report.pdf"},
		},
		{
			name: "size filter",
			in:   SearchInput{MinSize: "10"},
			want: []string{"/data/Report.pdf", "/data/notes.txt"},
		},
		{
			name: "limit",
			in:   SearchInput{Limit: 1, MinSize: "10"},
			want: []string{"/data/Report.pdf"},
		},
		{
			name: "invalid filter",
			in:   SearchInput{After: "yesterday"},
			check: func(t *testing.T, err error) {
				assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When: searching
			out, err := s.handleSearch(context.Background(), tt.in)

			// Then: the expected paths come back in insertion order
			if tt.check != nil {
				require.Error(t, err)
				tt.check(t, err)
				return
			}
			require.NoError(t, err)
			got := make([]string, 0, len(out.Results))
			for _, r := range out.Results {
				got = append(got, r.Path)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(got), out.Count)
		})
	}
}

func TestHandleSearch_NoSnapshot(t *testing.T) {
	// Given: no snapshot on disk
	s := newTestServer(t, filepath.Join(t.TempDir(), "none.bin"))

	// When: searching
	_, err := s.handleSearch(context.Background(), SearchInput{Query: "x"})

	// Then: the client is told to index first
	require.Error(t, err)
	assert.Equal(t, ErrCodeIndexNotFound, MapError(err).Code)
}

func TestHandleRecent(t *testing.T) {
	path := writeSnapshot(t, map[string]uint64{"a.txt": 1, "b.txt": 2})
	s := newTestServer(t, path)

	out, err := s.handleRecent(context.Background(), RecentInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)

	_, err = s.handleRecent(context.Background(), RecentInput{Days: -1})
	assert.Error(t, err)
}

func TestHandleAnalyze(t *testing.T) {
	// Given: a snapshot with known sizes
	path := writeSnapshot(t, map[string]uint64{"a.bin": 10, "b.bin": 20})
	s := newTestServer(t, path)

	// When: analyzing all roots
	out, err := s.handleAnalyze(context.Background(), AnalyzeInput{TopFiles: 1})

	// Then: totals and the largest file are reported without refreshing
	require.NoError(t, err)
	assert.Equal(t, uint64(30), out.Report.TotalScanned)
	require.Len(t, out.Report.TopFiles, 1)
	assert.Equal(t, "/data/b.bin", out.Report.TopFiles[0].Path)
	assert.False(t, out.Report.Refreshed)
}

func TestHandleIndexStatus(t *testing.T) {
	t.Run("no snapshot", func(t *testing.T) {
		s := newTestServer(t, filepath.Join(t.TempDir(), "none.bin"))
		info, err := s.handleIndexStatus(context.Background())
		require.NoError(t, err)
		assert.False(t, info.StoreExists)
	})

	t.Run("with snapshot", func(t *testing.T) {
		s := newTestServer(t, writeSnapshot(t, map[string]uint64{"a.txt": 1}))
		info, err := s.handleIndexStatus(context.Background())
		require.NoError(t, err)
		assert.True(t, info.StoreExists)
		assert.Equal(t, 1, info.Active)
		require.Len(t, info.Roots, 1)
		assert.Equal(t, "/data", info.Roots[0].Path)
	})
}

func TestSnapshot_ReloadsWhenFileChanges(t *testing.T) {
	// Given: a snapshot that has been read once
	path := writeSnapshot(t, map[string]uint64{"a.txt": 1})
	snap := NewSnapshot(path)
	first, err := snap.Current()
	require.NoError(t, err)

	// When: nothing changes, the same store is served
	again, err := snap.Current()
	require.NoError(t, err)
	assert.Same(t, first, again)

	// When: a new run replaces the file
	st, err := store.Load(path)
	require.NoError(t, err)
	root, _ := st.RootByPath("/data")
	run := st.ReserveRunID()
	_, err = st.UpsertFile(root.ID, "b.txt", store.FileMeta{AbsPath: "/data/b.txt", Size: 2}, run)
	require.NoError(t, err)
	require.NoError(t, st.CommitRun(run))
	require.NoError(t, st.Save())

	// Then: the next read picks it up
	reloaded, err := snap.Current()
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)
	assert.Equal(t, run, reloaded.LastRunID())
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"index missing", ErrIndexNotFound, ErrCodeIndexNotFound},
		{"store missing", cerrors.New(cerrors.ErrCodeStoreNotFound, "none", nil), ErrCodeIndexNotFound},
		{"bad input", cerrors.UserInputError("bad", nil), ErrCodeInvalidParams},
		{"unknown root", cerrors.New(cerrors.ErrCodeUnknownRoot, "no root", nil), ErrCodeInvalidParams},
		{"corrupt", cerrors.StoreCorruptError("bad", nil), ErrCodeInternalError},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeTimeout},
		{"passthrough", NewInvalidParamsError("x"), ErrCodeInvalidParams},
		{"tool", NewMethodNotFoundError("x"), ErrCodeMethodNotFound},
		{"other", errors.New("boom"), ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapError(tt.err).Code)
		})
	}
	assert.Nil(t, MapError(nil))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, clampLimit(0, 50, 100))
	assert.Equal(t, 7, clampLimit(7, 50, 100))
	assert.Equal(t, 100, clampLimit(500, 50, 100))
}
