package preflight

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status CheckStatus
		want   string
	}{
		{StatusPass, "PASS"},
		{StatusWarn, "WARN"},
		{StatusFail, "FAIL"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestCheckResult_IsCritical(t *testing.T) {
	tests := []struct {
		name     string
		result   CheckResult
		expected bool
	}{
		{
			name:     "required pass is not critical",
			result:   CheckResult{Status: StatusPass, Required: true},
			expected: false,
		},
		{
			name:     "required fail is critical",
			result:   CheckResult{Status: StatusFail, Required: true},
			expected: true,
		},
		{
			name:     "optional fail is not critical",
			result:   CheckResult{Status: StatusFail, Required: false},
			expected: false,
		},
		{
			name:     "required warn is not critical",
			result:   CheckResult{Status: StatusWarn, Required: true},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.IsCritical())
		})
	}
}

func TestChecker_New(t *testing.T) {
	// Given: default options
	checker := New()

	// Then: checker is created with defaults
	assert.NotNil(t, checker)
	assert.False(t, checker.verbose)
	assert.Equal(t, runtime.NumCPU(), checker.workers)
}

func TestChecker_NewWithOptions(t *testing.T) {
	// Given: custom options
	buf := &bytes.Buffer{}
	checker := New(
		WithWorkers(3),
		WithVerbose(true),
		WithOutput(buf),
	)

	// Then: options are applied
	assert.Equal(t, 3, checker.workers)
	assert.True(t, checker.verbose)
	assert.Equal(t, buf, checker.output)
}

func TestChecker_HasCriticalFailures(t *testing.T) {
	checker := New()

	tests := []struct {
		name     string
		results  []CheckResult
		expected bool
	}{
		{
			name:     "no results",
			results:  []CheckResult{},
			expected: false,
		},
		{
			name: "all pass",
			results: []CheckResult{
				{Status: StatusPass, Required: true},
				{Status: StatusPass, Required: true},
			},
			expected: false,
		},
		{
			name: "warning only",
			results: []CheckResult{
				{Status: StatusPass, Required: true},
				{Status: StatusWarn, Required: false},
			},
			expected: false,
		},
		{
			name: "optional failure",
			results: []CheckResult{
				{Status: StatusPass, Required: true},
				{Status: StatusFail, Required: false},
			},
			expected: false,
		},
		{
			name: "required failure",
			results: []CheckResult{
				{Status: StatusPass, Required: true},
				{Status: StatusFail, Required: true},
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.HasCriticalFailures(tt.results))
		})
	}
}

func TestChecker_CheckWritePermissions_CreatesDir(t *testing.T) {
	// Given: a store directory that does not exist yet
	dir := filepath.Join(t.TempDir(), "nested", "store")

	// When: checking write permissions
	result := New().CheckWritePermissions(dir)

	// Then: the directory is created and nothing is left in it
	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, "store_writable", result.Name)
	assert.True(t, result.Required)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChecker_CheckWritePermissions_ReadOnly(t *testing.T) {
	// Given: a read-only directory (skip on CI/root)
	if os.Getuid() == 0 {
		t.Skip("Skipping read-only test when running as root")
	}

	tmpDir := t.TempDir()
	readOnlyDir := filepath.Join(tmpDir, "readonly")
	require.NoError(t, os.Mkdir(readOnlyDir, 0555))
	defer func() { _ = os.Chmod(readOnlyDir, 0755) }() // Restore for cleanup

	// When: checking write permissions
	result := New().CheckWritePermissions(readOnlyDir)

	// Then: fails
	assert.Equal(t, StatusFail, result.Status)
	assert.True(t, result.IsCritical())
	assert.Contains(t, result.Message, "permission denied")
}

func TestChecker_CheckDiskSpace(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "catalog.bin")
	require.NoError(t, os.WriteFile(snapshot, make([]byte, 1024), 0o644))

	tests := []struct {
		name     string
		path     string
		free     uint64
		freeErr  error
		status   CheckStatus
		critical bool
	}{
		{"plenty", snapshot, 1 << 30, nil, StatusPass, false},
		{"below minimum", snapshot, MinDiskSpaceBytes - 1, nil, StatusFail, true},
		{"new snapshot", filepath.Join(dir, "new.bin"), MinDiskSpaceBytes, nil, StatusPass, false},
		{"probe fails", snapshot, 0, errors.New("statfs: boom"), StatusWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a free-space probe returning a fixed value
			var probed string
			checker := New(WithFreeSpace(func(_ context.Context, path string) (uint64, error) {
				probed = path
				return tt.free, tt.freeErr
			}))

			// When: checking disk space
			result := checker.CheckDiskSpace(context.Background(), tt.path)

			// Then: status follows the free space
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, tt.critical, result.IsCritical())
			assert.Equal(t, dir, probed)
		})
	}
}

func TestChecker_CheckDiskSpace_NeedsRoomForTwoCopies(t *testing.T) {
	// Given: a snapshot larger than half the free space
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "catalog.bin")
	require.NoError(t, os.WriteFile(snapshot, make([]byte, 10<<20), 0o644))
	checker := New(WithFreeSpace(func(context.Context, string) (uint64, error) {
		return 19 << 20, nil
	}))

	// When: checking disk space
	result := checker.CheckDiskSpace(context.Background(), snapshot)

	// Then: it fails since the save needs a full second copy
	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "need 20 MiB")
}

func TestChecker_CheckFileDescriptors(t *testing.T) {
	tests := []struct {
		name   string
		limit  uint64
		err    error
		status CheckStatus
	}{
		{"enough", 10240, nil, StatusPass},
		{"too few for workers", 70, nil, StatusWarn},
		{"unlimited", 0, nil, StatusPass},
		{"unreadable", 0, errors.New("getrlimit: boom"), StatusWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: four workers and a fixed limit
			checker := New(WithWorkers(4))
			checker.fdLimit = func() (uint64, error) { return tt.limit, tt.err }

			// When: checking
			result := checker.CheckFileDescriptors()

			// Then: a low limit only warns
			assert.Equal(t, tt.status, result.Status)
			assert.False(t, result.IsCritical())
		})
	}
}

func TestChecker_RunAll_ReturnsAllChecks(t *testing.T) {
	// Given: a store path in a fresh directory
	storePath := filepath.Join(t.TempDir(), "store", "catalog.bin")
	checker := New(WithFreeSpace(func(context.Context, string) (uint64, error) {
		return 1 << 30, nil
	}))

	// When: running all checks
	results := checker.RunAll(context.Background(), storePath)

	// Then: every check ran and the directory now exists
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"store_writable", "disk_space", "file_descriptors"}, names)
	assert.False(t, checker.HasCriticalFailures(results))
	assert.DirExists(t, filepath.Dir(storePath))
}

func TestChecker_PrintResults(t *testing.T) {
	// Given: some check results
	results := []CheckResult{
		{Name: "disk_space", Status: StatusPass, Message: "50 GiB free"},
		{Name: "file_descriptors", Status: StatusWarn, Message: "256", Details: "raise it"},
		{Name: "store_writable", Status: StatusFail, Message: "denied", Required: true},
	}

	buf := &bytes.Buffer{}
	checker := New(WithOutput(buf), WithVerbose(true))

	// When: printing results
	checker.PrintResults(results)

	// Then: output contains formatted results
	output := buf.String()
	assert.Contains(t, output, "[PASS] disk_space")
	assert.Contains(t, output, "[WARN]")
	assert.Contains(t, output, "[FAIL]")
	assert.Contains(t, output, "raise it")
	assert.Contains(t, output, "Status: FAILED")
}

func TestProblems(t *testing.T) {
	results := []CheckResult{
		{Name: "disk_space", Status: StatusPass, Message: "ok"},
		{Name: "file_descriptors", Status: StatusWarn, Message: "256", Details: "raise it"},
	}

	assert.Equal(t, []string{"file_descriptors: 256 (raise it)"}, Problems(results))
	assert.Empty(t, Problems(results[:1]))
}

func TestChecker_SummaryStatus(t *testing.T) {
	checker := New()

	tests := []struct {
		name     string
		results  []CheckResult
		expected string
	}{
		{
			name: "all pass",
			results: []CheckResult{
				{Status: StatusPass},
				{Status: StatusPass},
			},
			expected: "ready",
		},
		{
			name: "with warnings",
			results: []CheckResult{
				{Status: StatusPass},
				{Status: StatusWarn},
			},
			expected: "ready_with_warnings",
		},
		{
			name: "with critical failure",
			results: []CheckResult{
				{Status: StatusPass},
				{Status: StatusFail, Required: true},
			},
			expected: "failed",
		},
		{
			name: "with optional failure",
			results: []CheckResult{
				{Status: StatusPass},
				{Status: StatusFail, Required: false},
			},
			expected: "ready_with_warnings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.SummaryStatus(tt.results))
		})
	}
}
