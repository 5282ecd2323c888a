package ui

import (
	"sync"
	"time"
)

// ProgressTracker keeps the state the TUI draws from. It is safe for
// concurrent use.
type ProgressTracker struct {
	mu        sync.RWMutex
	stage     Stage
	root      string
	current   int
	total     int
	path      string
	startTime time.Time
	errors    int
	warnings  int

	lastCurrent   int
	lastSpeedCalc time.Time
	currentSpeed  float64
	avgSpeed      float64
	peakSpeed     float64
	speedSamples  int
	sparkline     *Sparkline
}

// SpeedStats contains entries/sec metrics.
type SpeedStats struct {
	Current float64
	Avg     float64
	Peak    float64
}

// ProgressStats is a snapshot of the tracker.
type ProgressStats struct {
	Stage      Stage
	Root       string
	Current    int
	Total      int
	Progress   float64
	Path       string
	Elapsed    time.Duration
	ErrorCount int
	WarnCount  int
	Speed      SpeedStats
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		stage:         StageScanning,
		startTime:     now,
		lastSpeedCalc: now,
		sparkline:     NewSparkline(60),
	}
}

// Apply folds a progress event into the tracker. A stage or root change
// resets the per-stage counters.
func (p *ProgressTracker) Apply(event ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.Stage != p.stage || (event.Root != "" && event.Root != p.root) {
		p.stage = event.Stage
		if event.Root != "" {
			p.root = event.Root
		}
		p.current = 0
		p.lastCurrent = 0
		p.lastSpeedCalc = time.Now()
		p.currentSpeed = 0
		p.path = ""
	}
	p.total = event.Total
	p.current = event.Current
	if event.Path != "" {
		p.path = event.Path
	}

	now := time.Now()
	elapsed := now.Sub(p.lastSpeedCalc)
	if elapsed < 500*time.Millisecond {
		return
	}
	if delta := p.current - p.lastCurrent; delta > 0 {
		speed := float64(delta) / elapsed.Seconds()
		p.currentSpeed = speed
		p.speedSamples++
		if p.speedSamples == 1 {
			p.avgSpeed = speed
		} else {
			p.avgSpeed = 0.2*speed + 0.8*p.avgSpeed
		}
		p.peakSpeed = max(p.peakSpeed, speed)
		p.sparkline.Add(speed)
	}
	p.lastCurrent = p.current
	p.lastSpeedCalc = now
}

// AddError counts an error or warning.
func (p *ProgressTracker) AddError(event ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.IsWarn {
		p.warnings++
	} else {
		p.errors++
	}
}

// Stats returns current statistics snapshot.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	progress := 0.0
	if p.total > 0 {
		progress = min(float64(p.current)/float64(p.total), 1.0)
	}
	return ProgressStats{
		Stage:      p.stage,
		Root:       p.root,
		Current:    p.current,
		Total:      p.total,
		Progress:   progress,
		Path:       p.path,
		Elapsed:    time.Since(p.startTime),
		ErrorCount: p.errors,
		WarnCount:  p.warnings,
		Speed:      SpeedStats{Current: p.currentSpeed, Avg: p.avgSpeed, Peak: p.peakSpeed},
	}
}

// RenderSparkline returns the throughput sparkline at width.
func (p *ProgressTracker) RenderSparkline(width int) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sparkline.Render(width)
}
