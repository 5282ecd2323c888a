package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/disk"
)

// MinDiskSpaceBytes is the free space required even for an empty catalog.
const MinDiskSpaceBytes = 16 * 1024 * 1024

// FreeSpaceFunc reports the bytes available to this user on the filesystem
// holding path.
type FreeSpaceFunc func(ctx context.Context, path string) (uint64, error)

// DiskFree is the FreeSpaceFunc backed by gopsutil.
func DiskFree(ctx context.Context, path string) (uint64, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}
	return u.Free, nil
}

// CheckDiskSpace checks there is room for a second copy of the snapshot,
// since a save writes the new file next to the old one before renaming.
func (c *Checker) CheckDiskSpace(ctx context.Context, storePath string) CheckResult {
	result := CheckResult{
		Name:     "disk_space",
		Required: true,
	}

	need := uint64(MinDiskSpaceBytes)
	if fi, err := os.Stat(storePath); err == nil {
		need = max(need, 2*uint64(fi.Size()))
	}

	free, err := c.free(ctx, filepath.Dir(storePath))
	if err != nil {
		// Not knowing is not a reason to refuse the run.
		result.Status = StatusWarn
		result.Required = false
		result.Message = fmt.Sprintf("failed to check disk space: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%s free (need %s)", formatBytes(free), formatBytes(need))
	if free < need {
		result.Status = StatusFail
		result.Details = "free space on the snapshot's filesystem or move it with --store"
		return result
	}
	result.Status = StatusPass
	return result
}
