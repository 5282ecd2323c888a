// Package ui provides terminal rendering for index progress, catalog status
// and the interactive size browser.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Stage is a phase of an index run.
type Stage int

const (
	// StageScanning walks a root.
	StageScanning Stage = iota
	// StageRecording upserts observed entries.
	StageRecording
	// StageSweeping marks unseen entries deleted.
	StageSweeping
	// StageSaving writes the snapshot.
	StageSaving
	// StageComplete means the run finished.
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageScanning:
		return "Scanning"
	case StageRecording:
		return "Recording"
	case StageSweeping:
		return "Sweeping"
	case StageSaving:
		return "Saving"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage tag for plain output.
func (s Stage) Icon() string {
	switch s {
	case StageScanning:
		return "SCAN"
	case StageRecording:
		return "RECORD"
	case StageSweeping:
		return "SWEEP"
	case StageSaving:
		return "SAVE"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// ProgressEvent is a progress update.
type ProgressEvent struct {
	Stage   Stage
	Root    string
	Current int
	Total   int
	Path    string
	Message string
}

// ErrorEvent is a problem worth showing the user while a run continues.
type ErrorEvent struct {
	Path   string
	Err    error
	IsWarn bool
}

// StageTimings holds the time spent per stage across all roots.
type StageTimings struct {
	Scan   time.Duration
	Record time.Duration
	Sweep  time.Duration
	Save   time.Duration
}

// CompletionStats are the final counters of a run.
type CompletionStats struct {
	RunID     uint64
	Roots     int
	Seen      int
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
	Missing   int
	Errors    int
	Warnings  int
	Duration  time.Duration
	Stages    StageTimings
}

// Renderer displays index progress.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress updates progress display.
	UpdateProgress(event ProgressEvent)

	// AddError adds an error to display.
	AddError(event ErrorEvent)

	// Complete marks rendering as complete with summary.
	Complete(stats CompletionStats)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	Title      string
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithTitle sets the header shown by the TUI.
func WithTitle(title string) ConfigOption {
	return func(c *Config) {
		c.Title = title
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns a TUI renderer for interactive terminals and a plain
// renderer for pipes, CI, or when plain output is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}

// NopRenderer discards everything. Library callers without a terminal use it.
type NopRenderer struct{}

func (NopRenderer) Start(context.Context) error   { return nil }
func (NopRenderer) UpdateProgress(ProgressEvent)  {}
func (NopRenderer) AddError(ErrorEvent)           {}
func (NopRenderer) Complete(CompletionStats)      {}
func (NopRenderer) Stop() error                   { return nil }

var _ Renderer = NopRenderer{}
