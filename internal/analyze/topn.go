package analyze

import (
	"container/heap"
	"sort"
)

// UsageEntry is a path with its size or aggregated size.
type UsageEntry struct {
	Path string `json:"path"`
	Size uint64 `json:"size"`
}

// worse orders entries so the one to evict first compares lowest: smaller
// size, or equal size and later path.
func worse(a, b UsageEntry) bool {
	if a.Size != b.Size {
		return a.Size < b.Size
	}
	return a.Path > b.Path
}

type minHeap []UsageEntry

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(UsageEntry)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topN keeps the n largest entries seen, ties broken by path ascending.
type topN struct {
	limit int
	h     minHeap
}

func newTopN(limit int) *topN {
	return &topN{limit: limit}
}

func (t *topN) push(e UsageEntry) {
	if t.limit <= 0 {
		return
	}
	if len(t.h) < t.limit {
		heap.Push(&t.h, e)
		return
	}
	if worse(t.h[0], e) {
		t.h[0] = e
		heap.Fix(&t.h, 0)
	}
}

// sorted returns the kept entries, largest first.
func (t *topN) sorted() []UsageEntry {
	out := make([]UsageEntry, len(t.h))
	copy(out, t.h)
	sortUsage(out)
	return out
}

func sortUsage(s []UsageEntry) {
	sort.Slice(s, func(i, j int) bool { return worse(s[j], s[i]) })
}
