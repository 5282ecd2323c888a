package index

import (
	"sort"
	"time"

	"github.com/Aman-CERP/catalog/internal/scanner"
	"github.com/Aman-CERP/catalog/internal/store"
)

// RootSummary is the outcome of one root within a run.
type RootSummary struct {
	RootID    uint64        `json:"root_id"`
	Path      string        `json:"path"`
	Seen      int           `json:"seen"`
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Deleted   int           `json:"deleted"`
	Missing   bool          `json:"missing"`
	Error     string        `json:"error,omitempty"`
	Errors    []ErrorGroup  `json:"errors"`
	Duration  time.Duration `json:"duration_ns"`
}

// Completed reports whether the root was walked and swept.
func (r RootSummary) Completed() bool {
	return !r.Missing && r.Error == ""
}

// ErrorGroup aggregates walk errors of one class under one root.
type ErrorGroup struct {
	RootID   uint64             `json:"root_id"`
	Root     string             `json:"root"`
	Class    scanner.ErrorClass `json:"class"`
	Count    int                `json:"count"`
	Examples []string           `json:"examples"`
}

// Summary is the result of Indexer.Run.
type Summary struct {
	RunID uint64        `json:"run_id"`
	Roots []RootSummary `json:"roots"`
	// Errors holds every root's groups in root order.
	Errors    []ErrorGroup  `json:"errors"`
	Seen      int           `json:"seen"`
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Deleted   int           `json:"deleted"`
	Missing   int           `json:"missing"`
	Saved     bool          `json:"saved"`
	Duration  time.Duration `json:"duration_ns"`
}

// ErrorCount is the total number of walk errors.
func (s *Summary) ErrorCount() int {
	n := 0
	for _, g := range s.Errors {
		n += g.Count
	}
	return n
}

func (s *Summary) add(r RootSummary) {
	s.Roots = append(s.Roots, r)
	s.Seen += r.Seen
	s.Created += r.Created
	s.Updated += r.Updated
	s.Unchanged += r.Unchanged
	s.Deleted += r.Deleted
	if r.Missing {
		s.Missing++
	}
	s.Errors = append(s.Errors, r.Errors...)
}

// errorAggregator groups one root's walk errors by class keeping a few
// example paths.
type errorAggregator struct {
	root   store.Root
	limit  int
	groups map[scanner.ErrorClass]*ErrorGroup
}

func newErrorAggregator(root store.Root, limit int) *errorAggregator {
	return &errorAggregator{root: root, limit: limit, groups: make(map[scanner.ErrorClass]*ErrorGroup)}
}

func (a *errorAggregator) add(e *scanner.WalkError) {
	g, ok := a.groups[e.Class]
	if !ok {
		g = &ErrorGroup{RootID: a.root.ID, Root: a.root.Path, Class: e.Class, Examples: []string{}}
		a.groups[e.Class] = g
	}
	g.Count++
	if len(g.Examples) < a.limit {
		g.Examples = append(g.Examples, e.Path)
	}
}

func (a *errorAggregator) result() []ErrorGroup {
	out := make([]ErrorGroup, 0, len(a.groups))
	for _, g := range a.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class < out[j].Class })
	return out
}
