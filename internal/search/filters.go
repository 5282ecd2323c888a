package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Aman-CERP/catalog/internal/config"
	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/store"
)

// DateLayout is the accepted --after/--before format.
const DateLayout = "2006-01-02"

// Filters are the conjunctive predicates applied before text matching. Zero
// values mean "no restriction".
type Filters struct {
	Exts    map[string]struct{}
	After   int64 // mtime >= After when HasAfter
	Before  int64 // mtime < Before when HasBefore
	MinSize uint64
	MaxSize uint64 // inclusive, when HasMax
	RootID  uint64

	HasAfter  bool
	HasBefore bool
	HasMax    bool
}

// FilterInput is the raw user form of Filters.
type FilterInput struct {
	// Ext is a comma separated extension list; leading dots are ignored.
	Ext string
	// After and Before are local dates; Before is end-exclusive of the day
	// after, so "--before 2024-05-01" keeps everything up to the end of May 1.
	After  string
	Before string
	// MinSize and MaxSize accept humanized sizes ("10MB", "1.5 GiB", "512").
	MinSize string
	MaxSize string
	// Root restricts results to the root with this path.
	Root string
}

// ParseFilters validates in and resolves its root against st. Dates are
// interpreted in loc (time.Local when nil).
func ParseFilters(st *store.Store, in FilterInput, loc *time.Location) (Filters, error) {
	if loc == nil {
		loc = time.Local
	}
	var f Filters

	if exts := ParseExts(in.Ext); len(exts) > 0 {
		f.Exts = make(map[string]struct{}, len(exts))
		for _, e := range exts {
			f.Exts[e] = struct{}{}
		}
	}

	if in.After != "" {
		d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(in.After), loc)
		if err != nil {
			return f, filterError("after", in.After, "expected YYYY-MM-DD", err)
		}
		f.After, f.HasAfter = d.Unix(), true
	}
	if in.Before != "" {
		d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(in.Before), loc)
		if err != nil {
			return f, filterError("before", in.Before, "expected YYYY-MM-DD", err)
		}
		f.Before, f.HasBefore = d.AddDate(0, 0, 1).Unix(), true
	}

	if in.MinSize != "" {
		n, err := humanize.ParseBytes(in.MinSize)
		if err != nil {
			return f, filterError("min-size", in.MinSize, "expected a size like 10MB", err)
		}
		f.MinSize = n
	}
	if in.MaxSize != "" {
		n, err := humanize.ParseBytes(in.MaxSize)
		if err != nil {
			return f, filterError("max-size", in.MaxSize, "expected a size like 10MB", err)
		}
		f.MaxSize, f.HasMax = n, true
	}
	if f.HasMax && f.MinSize > f.MaxSize {
		return f, filterError("min-size", in.MinSize, "min-size is larger than max-size", nil)
	}

	if in.Root != "" {
		p, err := config.NormalizePathAllowMissing(in.Root)
		if err != nil {
			return f, cerrors.New(cerrors.ErrCodeInvalidPath, "invalid root path: "+in.Root, err)
		}
		r, ok := st.RootByPath(p)
		if !ok {
			return f, cerrors.New(cerrors.ErrCodeUnknownRoot, "not a configured root: "+p, nil).
				WithSuggestion("List roots with `catalog roots`")
		}
		f.RootID = r.ID
	}

	return f, nil
}

// ParseExts splits a comma separated extension list into lowercased names
// without dots.
func ParseExts(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		e := strings.ToLower(strings.TrimLeft(strings.TrimSpace(part), "."))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func filterError(flag, value, hint string, cause error) error {
	return cerrors.New(cerrors.ErrCodeInvalidFilter, fmt.Sprintf("invalid --%s %q: %s", flag, value, hint), cause).
		WithDetail("filter", flag)
}

// match evaluates every non-text filter against e.
func (f *Filters) match(e *store.FileEntry) bool {
	if f.RootID != 0 && e.RootID != f.RootID {
		return false
	}
	if f.Exts != nil {
		if _, ok := f.Exts[e.Ext]; !ok {
			return false
		}
	}
	if f.HasAfter && e.MTime < f.After {
		return false
	}
	if f.HasBefore && e.MTime >= f.Before {
		return false
	}
	if e.Size < f.MinSize {
		return false
	}
	if f.HasMax && e.Size > f.MaxSize {
		return false
	}
	return true
}
