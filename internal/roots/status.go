package roots

import (
	"os"

	"github.com/Aman-CERP/catalog/internal/store"
	"github.com/Aman-CERP/catalog/internal/ui"
)

// Status summarizes the store for display. storePath is stat'ed to report
// whether a snapshot exists on disk and its size.
func Status(st *store.Store, storePath string) ui.StatusInfo {
	stats := st.Stats()
	info := ui.StatusInfo{
		StorePath:   storePath,
		LastRunID:   stats.LastRunID,
		Active:      stats.Active,
		Deleted:     stats.Deleted,
		RollupFresh: st.DirSizesFresh(),
		Roots:       []ui.RootStatus{},
	}
	if fi, err := os.Stat(storePath); err == nil {
		info.StoreExists = true
		info.StoreSize = fi.Size()
	}

	active := make(map[uint64]int)
	st.ForEachFile(func(f *store.FileEntry) bool {
		if f.Active() {
			active[f.RootID]++
		}
		return true
	})

	for _, r := range st.Roots() {
		rs := ui.RootStatus{
			ID:            r.ID,
			Path:          r.Path,
			Preset:        r.PresetName,
			LastIndexed:   r.LastIndexedAt,
			Active:        active[r.ID],
			OneFilesystem: r.OneFilesystem,
		}
		if fi, err := os.Stat(r.Path); err != nil || !fi.IsDir() {
			rs.Missing = true
		}
		info.Roots = append(info.Roots, rs)
	}
	return info
}
