// Package config loads and saves the catalog configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/renameio"
	"gopkg.in/yaml.v3"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
)

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = 1

// Environment overrides.
const (
	EnvConfig = "CATALOG_CONFIG"
	EnvStore  = "CATALOG_STORE"
	EnvOutput = "CATALOG_OUTPUT"
)

// OutputMode selects how commands print results.
type OutputMode string

const (
	OutputPlain OutputMode = "plain"
	OutputJSON  OutputMode = "json"
)

// Config is the complete catalog configuration.
type Config struct {
	Version       int        `yaml:"version" json:"version"`
	StorePath     string     `yaml:"store_path,omitempty" json:"store_path,omitempty"`
	Output        OutputMode `yaml:"output" json:"output"`
	IncludeHidden bool       `yaml:"include_hidden" json:"include_hidden"`
	OneFilesystem bool       `yaml:"one_filesystem" json:"one_filesystem"`
	Roots         []string   `yaml:"roots" json:"roots"`
	Excludes      []string   `yaml:"excludes" json:"excludes"`

	Index   IndexConfig   `yaml:"index" json:"index"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Analyze AnalyzeConfig `yaml:"analyze" json:"analyze"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`

	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`
}

// IndexConfig tunes the walker.
type IndexConfig struct {
	// Workers bounds concurrent directory reads per root.
	Workers int `yaml:"workers" json:"workers"`
	// ErrorExamples is how many example paths are kept per error class.
	ErrorExamples int `yaml:"error_examples" json:"error_examples"`
}

// SearchConfig holds defaults for search and recent.
type SearchConfig struct {
	RecentDays  int `yaml:"recent_days" json:"recent_days"`
	RecentLimit int `yaml:"recent_limit" json:"recent_limit"`
}

// AnalyzeConfig holds defaults for disk-usage reports.
type AnalyzeConfig struct {
	// StaleAfter triggers a reindex before analyzing when a root is older.
	StaleAfter  time.Duration `yaml:"stale_after" json:"stale_after"`
	TopDirs     int           `yaml:"top_dirs" json:"top_dirs"`
	TopFiles    int           `yaml:"top_files" json:"top_files"`
	HiddenSpace bool          `yaml:"hidden_space" json:"hidden_space"`
}

// WatchConfig configures the watch loop.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval" json:"interval"`
	// Debounce delays a filesystem-triggered run so bursts coalesce.
	Debounce time.Duration `yaml:"debounce" json:"debounce"`
	// Notify enables fsnotify nudges on root directories.
	Notify bool `yaml:"notify" json:"notify"`
}

// NewConfig returns a configuration with defaults applied and no roots.
func NewConfig() *Config {
	return &Config{
		Version:       CurrentVersion,
		Output:        OutputPlain,
		IncludeHidden: false,
		OneFilesystem: true,
		Roots:         []string{},
		Excludes:      DefaultExcludes(),
		Index: IndexConfig{
			Workers:       runtime.NumCPU(),
			ErrorExamples: 5,
		},
		Search: SearchConfig{
			RecentDays:  7,
			RecentLimit: 50,
		},
		Analyze: AnalyzeConfig{
			StaleAfter:  24 * time.Hour,
			TopDirs:     20,
			TopFiles:    20,
			HiddenSpace: true,
		},
		Watch: WatchConfig{
			Interval: 15 * time.Minute,
			Debounce: 5 * time.Second,
			Notify:   true,
		},
	}
}

// DefaultExcludes returns the exclude patterns written by init.
func DefaultExcludes() []string {
	return []string{
		"~/Library/Caches",
		"~/Library/Containers",
		"~/Library/Logs",
		"~/Library/Developer/Xcode/DerivedData",
		"**/.git/**",
		"**/node_modules/**",
		"**/target/**",
		"**/dist/**",
		"**/build/**",
	}
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads the config at path. A missing file yields defaults.
// Environment overrides are applied last, then the result is validated.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, cerrors.ConfigError(fmt.Sprintf("failed to parse config %s", path), err)
		}
		cfg.fillDefaults()
	case os.IsNotExist(err):
	default:
		return nil, cerrors.New(cerrors.ErrCodeConfigNotFound, fmt.Sprintf("failed to read config %s", path), err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults restores zero-valued tunables that an older or hand-written
// file left out.
func (c *Config) fillDefaults() {
	def := NewConfig()
	if c.Version == 0 {
		c.Version = def.Version
	}
	if c.Output == "" {
		c.Output = def.Output
	}
	if c.Roots == nil {
		c.Roots = []string{}
	}
	if c.Excludes == nil {
		c.Excludes = def.Excludes
	}
	if c.Index.Workers == 0 {
		c.Index.Workers = def.Index.Workers
	}
	if c.Index.ErrorExamples == 0 {
		c.Index.ErrorExamples = def.Index.ErrorExamples
	}
	if c.Search.RecentDays == 0 {
		c.Search.RecentDays = def.Search.RecentDays
	}
	if c.Search.RecentLimit == 0 {
		c.Search.RecentLimit = def.Search.RecentLimit
	}
	if c.Analyze.StaleAfter == 0 {
		c.Analyze.StaleAfter = def.Analyze.StaleAfter
	}
	if c.Analyze.TopDirs == 0 {
		c.Analyze.TopDirs = def.Analyze.TopDirs
	}
	if c.Analyze.TopFiles == 0 {
		c.Analyze.TopFiles = def.Analyze.TopFiles
	}
	if c.Watch.Interval == 0 {
		c.Watch.Interval = def.Watch.Interval
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = def.Watch.Debounce
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvStore); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output = OutputMode(strings.ToLower(v))
	}
}

// Validate checks the configuration for values no command can work with.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return cerrors.ConfigError(fmt.Sprintf("unsupported config version %d", c.Version), nil).
			WithSuggestion("Run 'catalog init' to write a fresh config")
	}
	switch c.Output {
	case OutputPlain, OutputJSON:
	default:
		return cerrors.ConfigError(fmt.Sprintf("output must be plain or json, got %q", c.Output), nil)
	}
	if c.Index.Workers < 1 {
		return cerrors.ConfigError("index.workers must be at least 1", nil)
	}
	if c.Index.ErrorExamples < 0 {
		return cerrors.ConfigError("index.error_examples must not be negative", nil)
	}
	if c.Search.RecentDays < 0 || c.Search.RecentLimit < 0 {
		return cerrors.ConfigError("search.recent_days and search.recent_limit must not be negative", nil)
	}
	if c.Analyze.TopDirs < 0 || c.Analyze.TopFiles < 0 {
		return cerrors.ConfigError("analyze.top_dirs and analyze.top_files must not be negative", nil)
	}
	if c.Analyze.StaleAfter < 0 {
		return cerrors.ConfigError("analyze.stale_after must not be negative", nil)
	}
	if c.Watch.Interval < time.Second {
		return cerrors.ConfigError("watch.interval must be at least 1s", nil)
	}
	for _, r := range c.Roots {
		if !filepath.IsAbs(ExpandTilde(r)) {
			return cerrors.ConfigError(fmt.Sprintf("root %q is not an absolute path", r), nil)
		}
	}
	return nil
}

// Save writes the config atomically, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return cerrors.New(cerrors.ErrCodeConfigWrite, "failed to marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cerrors.New(cerrors.ErrCodeConfigWrite, "failed to create config directory", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return cerrors.New(cerrors.ErrCodeConfigWrite, fmt.Sprintf("failed to write config %s", path), err)
	}
	return nil
}

// ResolvedStorePath returns the snapshot path: the configured one with ~
// expanded, or the default location.
func (c *Config) ResolvedStorePath() string {
	if c.StorePath != "" {
		return ExpandTilde(c.StorePath)
	}
	return DefaultStorePath()
}
