//go:build !unix

package preflight

// fileLimit reports no limit where rlimits do not exist.
func fileLimit() (uint64, error) {
	return 0, nil
}
