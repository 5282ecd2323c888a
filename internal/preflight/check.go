package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker performs preflight validation checks.
type Checker struct {
	workers int
	verbose bool
	output  io.Writer
	free    FreeSpaceFunc
	fdLimit func() (uint64, error)
}

// Option configures a Checker.
type Option func(*Checker)

// WithWorkers sets the walk concurrency the descriptor check sizes for.
func WithWorkers(n int) Option {
	return func(c *Checker) {
		c.workers = n
	}
}

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// WithFreeSpace replaces the gopsutil free-space probe.
func WithFreeSpace(fn FreeSpaceFunc) Option {
	return func(c *Checker) {
		c.free = fn
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output:  os.Stdout,
		free:    DiskFree,
		fdLimit: fileLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers <= 0 {
		c.workers = runtime.NumCPU()
	}
	return c
}

// RunAll runs every check for a run that will save to storePath. The
// write check goes first since it creates the directory the disk check
// looks at.
func (c *Checker) RunAll(ctx context.Context, storePath string) []CheckResult {
	dir := filepath.Dir(storePath)
	return []CheckResult{
		c.CheckWritePermissions(dir),
		c.CheckDiskSpace(ctx, storePath),
		c.CheckFileDescriptors(),
	}
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns a summary status string for the results.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	hasCriticalFailure := false

	for _, r := range results {
		if r.IsCritical() {
			hasCriticalFailure = true
		}
		if r.Status == StatusWarn || (r.Status == StatusFail && !r.Required) {
			hasWarnings = true
		}
	}

	if hasCriticalFailure {
		return "failed"
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "Preflight")
	_, _ = fmt.Fprintln(c.output, "=========")

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))
}

// Problems returns the failed and warning results as one line each.
func Problems(results []CheckResult) []string {
	var out []string
	for _, r := range results {
		if r.Status == StatusPass {
			continue
		}
		line := r.Name + ": " + r.Message
		if r.Details != "" {
			line += " (" + r.Details + ")"
		}
		out = append(out, line)
	}
	return out
}

// CheckWritePermissions creates dir if needed and checks a file can be
// created in it, which is what an atomic save does.
func (c *Checker) CheckWritePermissions(dir string) CheckResult {
	result := CheckResult{
		Name:     "store_writable",
		Required: true,
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot create %s: %v", dir, err)
		return result
	}
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = dir
	return result
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(n uint64) string {
	return humanize.IBytes(n)
}
