//go:build !unix

package scanner

import "io/fs"

// DeviceID is unavailable on this platform; one_filesystem has no effect.
func DeviceID(fs.FileInfo) (uint64, bool) {
	return 0, false
}
