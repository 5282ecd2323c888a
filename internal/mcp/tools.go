package mcp

import (
	"github.com/Aman-CERP/catalog/internal/analyze"
	"github.com/Aman-CERP/catalog/internal/search"
)

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query   string `json:"query,omitempty" jsonschema:"case-insensitive substring of the path; empty matches everything"`
	Ext     string `json:"ext,omitempty" jsonschema:"comma separated extensions, e.g. pdf,docx"`
	After   string `json:"after,omitempty" jsonschema:"only entries modified on or after this date (YYYY-MM-DD)"`
	Before  string `json:"before,omitempty" jsonschema:"only entries modified on or before this date (YYYY-MM-DD)"`
	MinSize string `json:"min_size,omitempty" jsonschema:"minimum size, e.g. 10MB"`
	MaxSize string `json:"max_size,omitempty" jsonschema:"maximum size, e.g. 1GiB"`
	Root    string `json:"root,omitempty" jsonschema:"restrict to the configured root with this path"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 50"`
}

// RecentInput defines the input schema for the recent tool.
type RecentInput struct {
	Days  int    `json:"days,omitempty" jsonschema:"look back this many days, default 7"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 50"`
	Ext   string `json:"ext,omitempty" jsonschema:"comma separated extensions"`
	Root  string `json:"root,omitempty" jsonschema:"restrict to the configured root with this path"`
}

// ResultsOutput is the output of search and recent.
type ResultsOutput struct {
	Results []search.Result `json:"results" jsonschema:"matching entries"`
	Count   int             `json:"count" jsonschema:"number of results returned"`
}

// AnalyzeInput defines the input schema for the analyze tool.
type AnalyzeInput struct {
	Path        string `json:"path,omitempty" jsonschema:"absolute path to report on; empty means all roots"`
	TopDirs     int    `json:"top_dirs,omitempty" jsonschema:"number of largest directories, default 20"`
	TopFiles    int    `json:"top_files,omitempty" jsonschema:"number of largest files, default 20"`
	HiddenSpace bool   `json:"hidden_space,omitempty" jsonschema:"estimate disk usage the catalog does not account for"`
}

// AnalyzeOutput wraps a report.
type AnalyzeOutput struct {
	Report *analyze.Report `json:"report"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// clampLimit returns defaultVal for non-positive limits and caps the rest.
func clampLimit(limit, defaultVal, hi int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit > hi {
		return hi
	}
	return limit
}
