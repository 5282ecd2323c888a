package ui

import "strings"

// Sparkline is a ring buffer of samples drawn with block characters.
type Sparkline struct {
	samples []float64
	head    int
	count   int
}

// SparklineChars are the eight bar heights.
var SparklineChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// NewSparkline creates a sparkline holding capacity samples.
func NewSparkline(capacity int) *Sparkline {
	if capacity <= 0 {
		capacity = 60
	}
	return &Sparkline{samples: make([]float64, capacity)}
}

// Add appends a sample, overwriting the oldest when full.
func (s *Sparkline) Add(value float64) {
	s.samples[s.head] = value
	s.head = (s.head + 1) % len(s.samples)
	s.count++
}

// Count returns the number of samples added.
func (s *Sparkline) Count() int { return s.count }

// recent returns up to n of the newest samples, oldest first.
func (s *Sparkline) recent(n int) []float64 {
	have := min(s.count, len(s.samples))
	n = min(n, have)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		idx := (s.head - n + i + len(s.samples)) % len(s.samples)
		out[i] = s.samples[idx]
	}
	return out
}

// Render draws the newest samples scaled to their maximum, right-aligned
// and padded with spaces to width.
func (s *Sparkline) Render(width int) string {
	if width <= 0 {
		width = len(s.samples)
	}
	vals := s.recent(width)

	peak := 0.0
	for _, v := range vals {
		peak = max(peak, v)
	}

	var sb strings.Builder
	sb.Grow(width * 3)
	sb.WriteString(strings.Repeat(" ", width-len(vals)))
	for _, v := range vals {
		idx := 0
		if peak > 0 {
			idx = int(v / peak * float64(len(SparklineChars)-1))
		}
		idx = max(0, min(idx, len(SparklineChars)-1))
		sb.WriteRune(SparklineChars[idx])
	}
	return sb.String()
}
