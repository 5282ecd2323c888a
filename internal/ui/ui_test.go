package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_NamesAndIcons(t *testing.T) {
	tests := []struct {
		stage Stage
		name  string
		icon  string
	}{
		{StageScanning, "Scanning", "SCAN"},
		{StageRecording, "Recording", "RECORD"},
		{StageSweeping, "Sweeping", "SWEEP"},
		{StageSaving, "Saving", "SAVE"},
		{StageComplete, "Complete", "DONE"},
		{Stage(99), "Unknown", "???"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.stage.String())
			assert.Equal(t, tt.icon, tt.stage.Icon())
		})
	}
}

func TestNewRenderer_NonTTYIsPlain(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(NewConfig(&buf))
	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
	assert.False(t, IsTTY(&buf))
	assert.False(t, IsTTY(nil))
}

func TestPlainRenderer_Output(t *testing.T) {
	// Given: a plain renderer
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	// When: a run reports progress, a warning, and completion
	r.UpdateProgress(ProgressEvent{Stage: StageScanning, Message: "Scanning /data"})
	r.UpdateProgress(ProgressEvent{Stage: StageRecording, Total: 1200})
	r.UpdateProgress(ProgressEvent{Stage: StageRecording, Current: 10, Total: 1200})
	r.AddError(ErrorEvent{Path: "/data/x", Err: errors.New("permission denied"), IsWarn: true})
	r.Complete(CompletionStats{RunID: 3, Roots: 1, Seen: 1200, Created: 5, Deleted: 1, Warnings: 1, Duration: time.Second})

	// Then: stage changes and messages are printed once each
	out := buf.String()
	assert.Contains(t, out, "[SCAN] Scanning /data")
	assert.Equal(t, 1, strings.Count(out, "[RECORD]"))
	assert.Contains(t, out, "1,200 entries")
	assert.Contains(t, out, "WARN: /data/x: permission denied")
	assert.Contains(t, out, "Complete: run 3, 1 roots, 1,200 entries seen")
	assert.Contains(t, out, "created 5, updated 0, unchanged 0, deleted 1")
}

func TestProgressTracker_StageChangeResets(t *testing.T) {
	p := NewProgressTracker()

	p.Apply(ProgressEvent{Stage: StageRecording, Root: "/a", Current: 50, Total: 100, Path: "/a/x"})
	s := p.Stats()
	assert.Equal(t, 0.5, s.Progress)
	assert.Equal(t, "/a/x", s.Path)

	p.Apply(ProgressEvent{Stage: StageSweeping, Root: "/a"})
	s = p.Stats()
	assert.Equal(t, StageSweeping, s.Stage)
	assert.Equal(t, 0, s.Current)
	assert.Empty(t, s.Path)

	p.AddError(ErrorEvent{IsWarn: true})
	p.AddError(ErrorEvent{})
	s = p.Stats()
	assert.Equal(t, 1, s.WarnCount)
	assert.Equal(t, 1, s.ErrorCount)
}

func TestSparkline_Render(t *testing.T) {
	s := NewSparkline(4)
	assert.Equal(t, "    ", s.Render(4))

	for _, v := range []float64{0, 7, 14} {
		s.Add(v)
	}
	assert.Equal(t, " ▁▄█", s.Render(4))

	// Given: more samples than capacity, only the newest remain
	s.Add(14)
	s.Add(14)
	assert.Equal(t, "▄███", s.Render(4))
	assert.Equal(t, "██", s.Render(2))
	assert.Equal(t, 5, s.Count())
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		max  int
		want string
	}{
		{"fits", "/a/b.txt", 20, "/a/b.txt"},
		{"keeps name", "/very/long/directory/name/file.txt", 20, "...ory/name/file.txt"},
		{"name too long", "/x/abcdefghijklmnop", 8, "...lmnop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncatePath(tt.path, tt.max)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), tt.max)
		})
	}
}

func TestStatusRenderer(t *testing.T) {
	indexed := time.Now().Add(-2 * time.Hour)
	info := StatusInfo{
		StorePath:   "/home/u/.catalog/catalog.bin",
		StoreExists: true,
		StoreSize:   2048,
		LastRunID:   4,
		Active:      1500,
		Deleted:     3,
		RollupFresh: true,
		Roots: []RootStatus{
			{ID: 1, Path: "/home/u/Documents", LastIndexed: &indexed, Active: 1500},
			{ID: 2, Path: "/gone", Missing: true},
		},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewStatusRenderer(&buf, true).Render(info))
		out := buf.String()
		assert.Contains(t, out, "2.0 KiB")
		assert.Contains(t, out, "1,500")
		assert.Contains(t, out, "fresh")
		assert.Contains(t, out, "2 hours ago")
		assert.Contains(t, out, "never")
		assert.Contains(t, out, "missing")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewStatusRenderer(&buf, true).RenderJSON(info))
		assert.Contains(t, buf.String(), `"last_run_id": 4`)
		assert.Contains(t, buf.String(), `"missing": true`)
	})

	t.Run("no snapshot", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewStatusRenderer(&buf, true).Render(StatusInfo{StorePath: "/x"}))
		assert.Contains(t, buf.String(), "no snapshot yet")
		assert.Contains(t, buf.String(), "(none)")
	})
}

func TestIndexModel_CompleteQuits(t *testing.T) {
	m := newIndexModel(NewProgressTracker(), "")
	m.styles = NoColorStyles()

	_, cmd := m.Update(completeMsg(CompletionStats{RunID: 2, Seen: 10}))

	require.NotNil(t, cmd)
	assert.True(t, m.complete)
	assert.Contains(t, m.View(), "Index complete")
}
