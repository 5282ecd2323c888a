// Package output formats command results for the terminal or as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Aman-CERP/catalog/internal/analyze"
	"github.com/Aman-CERP/catalog/internal/search"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out io.Writer
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Results prints search results one per line. With long set, each line
// carries size, mtime, and status ahead of the path.
func (w *Writer) Results(results []search.Result, long bool) {
	for _, r := range results {
		if !long {
			_, _ = fmt.Fprintln(w.out, r.Path)
			continue
		}
		size := "-"
		if !r.IsDir {
			size = humanize.IBytes(r.Size)
		}
		kind := ""
		switch {
		case r.IsDir:
			kind = "/"
		case r.IsSymlink:
			kind = "@"
		}
		_, _ = fmt.Fprintf(w.out, "%10s  %s  %-7s  %s%s\n",
			size,
			time.Unix(r.MTime, 0).Local().Format("2006-01-02 15:04"),
			r.Status,
			r.Path, kind)
	}
}

// ResultsJSON writes results as a JSON array, never null.
func (w *Writer) ResultsJSON(results []search.Result) error {
	if results == nil {
		results = []search.Result{}
	}
	return w.JSON(results)
}

// Report prints a disk-usage report.
func (w *Writer) Report(r *analyze.Report) {
	title := "Disk usage"
	if r.Scope != "" {
		title += " under " + r.Scope
	}
	_, _ = fmt.Fprintf(w.out, "%s: %s scanned (run %d)\n", title, humanize.IBytes(r.TotalScanned), r.RunID)
	if r.Refreshed {
		_, _ = fmt.Fprintln(w.out, "   (stale roots were reindexed first)")
	}
	for _, s := range r.Stale {
		w.Warningf("%s was indexed more than a day ago", s)
	}

	w.usageSection("Roots", r.Roots)
	w.usageSection("Largest directories", r.TopDirs)
	w.usageSection("Largest files", r.TopFiles)

	if h := r.HiddenSpace; h != nil {
		w.Newline()
		_, _ = fmt.Fprintf(w.out, "Not accounted for: %s\n", humanize.IBytes(h.Hidden))
		for _, d := range h.Devices {
			_, _ = fmt.Fprintf(w.out, "  %s: %s used, %s scanned\n",
				d.Mountpoint, humanize.IBytes(d.Used), humanize.IBytes(d.Scanned))
		}
		if h.Guidance != "" {
			_, _ = fmt.Fprintf(w.out, "  %s\n", h.Guidance)
		}
	}

	if len(r.Errors) > 0 {
		w.Newline()
		_, _ = fmt.Fprintln(w.out, "Errors during refresh:")
		for _, g := range r.Errors {
			_, _ = fmt.Fprintf(w.out, "  %s %s: %s\n", g.Root, g.Class, humanize.Comma(int64(g.Count)))
			for _, ex := range g.Examples {
				_, _ = fmt.Fprintf(w.out, "    %s\n", ex)
			}
		}
	}
}

func (w *Writer) usageSection(title string, entries []analyze.UsageEntry) {
	if len(entries) == 0 {
		return
	}
	w.Newline()
	_, _ = fmt.Fprintf(w.out, "%s:\n", title)
	for _, e := range entries {
		_, _ = fmt.Fprintf(w.out, "  %10s  %s\n", humanize.IBytes(e.Size), e.Path)
	}
}

// Table prints rows as left-aligned columns separated by two spaces.
func (w *Writer) Table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := range min(len(row), len(widths)) {
			widths[i] = max(widths[i], len(row[i]))
		}
	}
	line := func(cells []string) {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i == len(widths)-1 {
				parts[i] = cell
			} else {
				parts[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
			}
		}
		_, _ = fmt.Fprintln(w.out, strings.Join(parts, "  "))
	}
	line(header)
	for _, row := range rows {
		line(row)
	}
}
