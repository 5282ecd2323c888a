//go:build unix

package preflight

import "syscall"

func fileLimit() (uint64, error) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}
	return uint64(rLimit.Cur), nil //nolint:unconvert // int64 on some platforms
}
