package profiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartStop_WritesRequestedProfiles(t *testing.T) {
	// Given: both profiles requested
	dir := t.TempDir()
	opts := Options{CPU: filepath.Join(dir, "cpu.prof"), Mem: filepath.Join(dir, "mem.prof")}
	require.True(t, opts.Enabled())

	// When: starting and stopping
	p, err := Start(opts)
	require.NoError(t, err)
	require.NoError(t, p.Stop())

	// Then: both files exist and are non-empty
	for _, path := range []string{opts.CPU, opts.Mem} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), path)
	}

	// A second Stop is a no-op.
	assert.NoError(t, p.Stop())
}

func TestStart_NothingRequested(t *testing.T) {
	p, err := Start(Options{})
	require.NoError(t, err)
	assert.False(t, Options{}.Enabled())
	assert.NoError(t, p.Stop())
}

func TestStart_BadPath(t *testing.T) {
	_, err := Start(Options{CPU: filepath.Join(t.TempDir(), "missing", "cpu.prof")})
	assert.Error(t, err)
}
