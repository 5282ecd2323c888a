// Package roots keeps the configured root list and the store's root table
// in agreement.
package roots

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Aman-CERP/catalog/internal/config"
	"github.com/Aman-CERP/catalog/internal/store"
)

// Add appends paths to cfg.Roots after normalizing them. Paths that do not
// exist are skipped with a warning; duplicates are ignored. It returns how
// many roots were added.
func Add(cfg *config.Config, paths []string) int {
	existing := make(map[string]bool, len(cfg.Roots))
	for _, r := range cfg.Roots {
		existing[r] = true
	}

	added := 0
	for _, p := range paths {
		normalized, err := config.NormalizePath(p)
		if err != nil {
			slog.Warn("skip missing path", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		if existing[normalized] {
			continue
		}
		existing[normalized] = true
		cfg.Roots = append(cfg.Roots, normalized)
		added++
	}
	return added
}

// Remove drops paths from cfg.Roots. The paths need not exist any more.
// It returns how many roots were removed.
func Remove(cfg *config.Config, paths []string) (int, error) {
	drop := make(map[string]bool, len(paths))
	for _, p := range paths {
		normalized, err := config.NormalizePathAllowMissing(p)
		if err != nil {
			return 0, err
		}
		drop[normalized] = true
	}

	kept := cfg.Roots[:0]
	for _, r := range cfg.Roots {
		if !drop[r] {
			kept = append(kept, r)
		}
	}
	removed := len(cfg.Roots) - len(kept)
	cfg.Roots = kept
	return removed, nil
}

// SyncResult reports what Sync changed in the store.
type SyncResult struct {
	Added         []store.Root
	Removed       []store.Root
	PurgedEntries int
}

// Changed reports whether the store was modified.
func (r SyncResult) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// Sync makes the store's roots match cfg.Roots. New roots are created with
// preset as their preset name. Existing roots pick up cfg.OneFilesystem.
// Store roots that are no longer configured are purged with all their
// entries.
func Sync(st *store.Store, cfg *config.Config, preset string) (SyncResult, error) {
	var res SyncResult
	now := time.Now().UTC()

	desired := make(map[string]bool, len(cfg.Roots))
	for _, p := range cfg.Roots {
		path := filepath.Clean(config.ExpandTilde(p))
		desired[path] = true

		if existing, ok := st.RootByPath(path); ok {
			st.SetRootOneFilesystem(existing.ID, cfg.OneFilesystem)
			continue
		}
		r, err := st.AddRoot(store.Root{
			Path:          path,
			AddedAt:       now,
			PresetName:    preset,
			OneFilesystem: cfg.OneFilesystem,
		})
		if err != nil {
			return res, err
		}
		res.Added = append(res.Added, r)
	}

	for _, r := range st.Roots() {
		if desired[r.Path] {
			continue
		}
		n := st.PurgeRoot(r.ID)
		res.Removed = append(res.Removed, r)
		res.PurgedEntries += n
		slog.Info("root_purged",
			slog.Uint64("root_id", r.ID),
			slog.String("path", r.Path),
			slog.Int("entries", n))
	}
	return res, nil
}
