package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.catalog/logs, falling back to the temp directory
// when the home directory is unknown.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".catalog", "logs")
	}
	return filepath.Join(home, ".catalog", "logs")
}

// DefaultLogPath returns the main log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "catalog.log")
}
