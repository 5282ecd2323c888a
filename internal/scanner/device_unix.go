//go:build unix

package scanner

import (
	"io/fs"
	"syscall"
)

// DeviceID returns the device number info lives on.
func DeviceID(info fs.FileInfo) (uint64, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Dev), true //nolint:unconvert // int32 on darwin
}
