package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// RootStatus describes one configured root.
type RootStatus struct {
	ID            uint64     `json:"id"`
	Path          string     `json:"path"`
	Preset        string     `json:"preset,omitempty"`
	LastIndexed   *time.Time `json:"last_indexed_at,omitempty"`
	Active        int        `json:"active"`
	OneFilesystem bool       `json:"one_filesystem"`
	Missing       bool       `json:"missing"`
}

// StatusInfo is the catalog health summary.
type StatusInfo struct {
	StorePath   string       `json:"store_path"`
	StoreExists bool         `json:"store_exists"`
	StoreSize   int64        `json:"store_size"`
	LastRunID   uint64       `json:"last_run_id"`
	Active      int          `json:"active"`
	Deleted     int          `json:"deleted"`
	RollupFresh bool         `json:"rollup_fresh"`
	Roots       []RootStatus `json:"roots"`
}

// StatusRenderer displays catalog status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor)}
}

// Render writes the status as text.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Catalog: "+info.StorePath))

	if !info.StoreExists {
		_, _ = fmt.Fprintf(r.out, "  %s\n", r.styles.Warning.Render("no snapshot yet, run `catalog index`"))
	} else {
		_, _ = fmt.Fprintf(r.out, "  Snapshot:  %s\n", humanize.IBytes(uint64(max(info.StoreSize, 0))))
		_, _ = fmt.Fprintf(r.out, "  Last run:  %d\n", info.LastRunID)
		_, _ = fmt.Fprintf(r.out, "  Active:    %s\n", humanize.Comma(int64(info.Active)))
		_, _ = fmt.Fprintf(r.out, "  Deleted:   %s\n", humanize.Comma(int64(info.Deleted)))
		rollup := r.styles.Warning.Render("stale")
		if info.RollupFresh {
			rollup = r.styles.Success.Render("fresh")
		}
		_, _ = fmt.Fprintf(r.out, "  Rollup:    %s\n", rollup)
	}
	_, _ = fmt.Fprintln(r.out)

	_, _ = fmt.Fprintln(r.out, "  Roots:")
	if len(info.Roots) == 0 {
		_, _ = fmt.Fprintf(r.out, "    %s\n", r.styles.Dim.Render("(none)"))
	}
	for _, root := range info.Roots {
		when := "never"
		if root.LastIndexed != nil {
			when = humanize.Time(*root.LastIndexed)
		}
		line := fmt.Sprintf("    [%d] %s  %s entries, indexed %s", root.ID, root.Path,
			humanize.Comma(int64(root.Active)), when)
		if root.Missing {
			line += "  " + r.styles.Error.Render("missing")
		}
		_, _ = fmt.Fprintln(r.out, line)
	}
	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}
