package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
)

// =============================================================================
// Defaults
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, OutputPlain, cfg.Output)
	assert.False(t, cfg.IncludeHidden)
	assert.True(t, cfg.OneFilesystem)
	assert.Empty(t, cfg.Roots)
	assert.Contains(t, cfg.Excludes, "**/node_modules/**")
	assert.Contains(t, cfg.Excludes, "~/Library/Caches")
	assert.Equal(t, 24*time.Hour, cfg.Analyze.StaleAfter)
	assert.Equal(t, 20, cfg.Analyze.TopDirs)
	assert.Equal(t, 20, cfg.Analyze.TopFiles)
	assert.Equal(t, 7, cfg.Search.RecentDays)
	assert.Equal(t, 50, cfg.Search.RecentLimit)
	assert.GreaterOrEqual(t, cfg.Index.Workers, 1)
	require.NoError(t, cfg.Validate())
}

// =============================================================================
// Load / Save
// =============================================================================

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv(EnvStore, "")
	t.Setenv(EnvOutput, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, NewConfig().Excludes, cfg.Excludes)
}

func TestSaveThenLoad_RoundTrip(t *testing.T) {
	t.Setenv(EnvStore, "")
	t.Setenv(EnvOutput, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	// Given: a customized config
	cfg := NewConfig()
	cfg.Roots = []string{"/data/photos", "/srv/music"}
	cfg.IncludeHidden = true
	cfg.Analyze.StaleAfter = 6 * time.Hour
	cfg.Output = OutputJSON

	// When: saving and loading it back
	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)

	// Then: every field survives
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_PartialFileFillsDefaults(t *testing.T) {
	t.Setenv(EnvStore, "")
	t.Setenv(EnvOutput, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nroots: [/tmp]\nanalyze:\n  stale_after: 2h\n"), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp"}, cfg.Roots)
	assert.Equal(t, 2*time.Hour, cfg.Analyze.StaleAfter)
	assert.Equal(t, 20, cfg.Analyze.TopDirs)
	assert.Equal(t, OutputPlain, cfg.Output)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvStore, "/var/tmp/catalog.bin")
	t.Setenv(EnvOutput, "JSON")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/catalog.bin", cfg.ResolvedStorePath())
	assert.Equal(t, OutputJSON, cfg.Output)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roots: [unterminated"), 0o644))

	_, err := Load(path)

	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeConfigInvalid, cerrors.GetCode(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad version", func(c *Config) { c.Version = 7 }},
		{"bad output", func(c *Config) { c.Output = "xml" }},
		{"zero workers", func(c *Config) { c.Index.Workers = 0 }},
		{"negative top dirs", func(c *Config) { c.Analyze.TopDirs = -1 }},
		{"negative stale", func(c *Config) { c.Analyze.StaleAfter = -time.Hour }},
		{"tiny watch interval", func(c *Config) { c.Watch.Interval = time.Millisecond }},
		{"relative root", func(c *Config) { c.Roots = []string{"relative/dir"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// =============================================================================
// Paths
// =============================================================================

func TestConfigPath_EnvWins(t *testing.T) {
	t.Setenv(EnvConfig, "/etc/catalog.yaml")
	assert.Equal(t, "/etc/catalog.yaml", ConfigPath())
}

func TestConfigPath_XDG(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "/xdg/catalog/config.yaml", ConfigPath())
}

func TestExpandTilde(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	assert.Equal(t, "/home/tester", ExpandTilde("~"))
	assert.Equal(t, "/home/tester/Downloads", ExpandTilde("~/Downloads"))
	assert.Equal(t, "~other/x", ExpandTilde("~other/x"))
	assert.Equal(t, "/abs", ExpandTilde("/abs"))
}

func TestNormalizePath(t *testing.T) {
	dir := t.TempDir()
	real, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	got, err := NormalizePath(dir)
	require.NoError(t, err)
	assert.Equal(t, real, got)

	_, err = NormalizePath(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	got, err = NormalizePathAllowMissing(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "missing"), got)
}

// =============================================================================
// Presets
// =============================================================================

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset("macos-deep")
	require.NoError(t, err)
	assert.Equal(t, PresetMacOSDeep, p)

	_, err = ParsePreset("windows")
	assert.Error(t, err)
}

func TestPresetRoots_DeepIncludesUserAdditions(t *testing.T) {
	deep := PresetRoots(PresetMacOSDeep)
	assert.Contains(t, deep, "~/Downloads")
	assert.Contains(t, deep, "/etc")
}

func TestApplyPreset_KeepsOnlyExistingDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.Mkdir(filepath.Join(home, "Downloads"), 0o755))

	cfg := NewConfig()
	cfg.Excludes = []string{"custom"}
	cfg.ApplyPreset(PresetHome)

	realHome, err := filepath.EvalSymlinks(home)
	require.NoError(t, err)
	assert.Contains(t, cfg.Roots, filepath.Join(realHome, "Downloads"))
	assert.NotContains(t, cfg.Roots, filepath.Join(realHome, "Desktop"))
	assert.Equal(t, DefaultExcludes(), cfg.Excludes)
}

func TestInit_WritesFile(t *testing.T) {
	t.Setenv(EnvStore, "")
	t.Setenv(EnvOutput, "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "cfg", "config.yaml")

	cfg, err := Init(path, PresetHome)

	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, DefaultExcludes(), cfg.Excludes)
}
