package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigPath returns $CATALOG_CONFIG, or the XDG user config path.
func ConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return ExpandTilde(p)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "catalog", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "catalog", "config.yaml")
	}
	return filepath.Join(home, ".config", "catalog", "config.yaml")
}

// DataDir returns ~/.catalog.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".catalog")
	}
	return filepath.Join(home, ".catalog")
}

// DefaultStorePath returns the default snapshot location.
func DefaultStorePath() string {
	return filepath.Join(DataDir(), "catalog.bin")
}

// HomeDir returns the user's home directory or "".
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// ExpandTilde replaces a leading "~" or "~/" with the home directory.
func ExpandTilde(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home := HomeDir()
	if home == "" {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}

// NormalizePath expands ~, makes p absolute and resolves symlinks.
// The path must exist.
func NormalizePath(p string) (string, error) {
	abs, err := absolute(p)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %s: %w", abs, err)
	}
	return resolved, nil
}

// NormalizePathAllowMissing is NormalizePath for paths that may be gone.
func NormalizePathAllowMissing(p string) (string, error) {
	abs, err := absolute(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

func absolute(p string) (string, error) {
	expanded := ExpandTilde(p)
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", p, err)
	}
	return abs, nil
}
