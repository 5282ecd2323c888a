package preflight

import "fmt"

// descriptorsPerWorker covers the directory each walker holds open plus
// headroom for the snapshot, the log file and the runtime.
const (
	descriptorsPerWorker = 2
	descriptorOverhead   = 64
)

// CheckFileDescriptors checks the descriptor limit against the walk's
// concurrency. A low limit only warns: the walk reports EMFILE as a
// per-path error rather than failing.
func (c *Checker) CheckFileDescriptors() CheckResult {
	result := CheckResult{
		Name:     "file_descriptors",
		Required: false,
	}

	limit, err := c.fdLimit()
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check file descriptor limit: %v", err)
		return result
	}
	if limit == 0 {
		result.Status = StatusPass
		result.Message = "not limited"
		return result
	}

	need := uint64(c.workers*descriptorsPerWorker + descriptorOverhead)
	result.Message = fmt.Sprintf("%d (need %d for %d workers)", limit, need, c.workers)
	if limit < need {
		result.Status = StatusWarn
		result.Details = fmt.Sprintf("run 'ulimit -n %d' or lower index.workers", need*4)
		return result
	}
	result.Status = StatusPass
	return result
}
