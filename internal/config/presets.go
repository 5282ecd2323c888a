package config

import (
	"fmt"
	"os"
	"runtime"
	"sort"
)

// Preset is a named bundle of roots for init.
type Preset string

const (
	PresetMacOSUserAdditions Preset = "macos-user-additions"
	PresetMacOSDeep          Preset = "macos-deep"
	PresetHome               Preset = "home"
)

var presetRoots = map[Preset][]string{
	PresetMacOSUserAdditions: {
		"~/Downloads",
		"~/Desktop",
		"~/Documents",
		"~/Library/Mobile Documents",
		"/Applications",
		"~/Applications",
		"/opt/homebrew",
		"/usr/local",
		"~/bin",
		"~/.local/bin",
		"~/.config",
		"~/Library/Preferences",
		"~/Library/LaunchAgents",
	},
	PresetMacOSDeep: {
		"/Library/LaunchAgents",
		"/Library/LaunchDaemons",
		"/Library/Fonts",
		"~/Library/Fonts",
		"/Library/PreferencePanes",
		"~/Library/PreferencePanes",
		"/etc",
	},
	PresetHome: {
		"~/Downloads",
		"~/Desktop",
		"~/Documents",
		"~/bin",
		"~/.local/bin",
		"~/.config",
		"/opt",
		"/usr/local",
	},
}

// Presets lists the known preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presetRoots))
	for p := range presetRoots {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

// ParsePreset validates a preset name.
func ParsePreset(name string) (Preset, error) {
	p := Preset(name)
	if _, ok := presetRoots[p]; !ok {
		return "", fmt.Errorf("unknown preset %q (known: %v)", name, Presets())
	}
	return p, nil
}

// DefaultPreset is the preset init applies to a brand new config.
func DefaultPreset() Preset {
	if runtime.GOOS == "darwin" {
		return PresetMacOSUserAdditions
	}
	return PresetHome
}

// PresetRoots returns the candidate roots of p with ~ unexpanded.
// macos-deep includes everything in macos-user-additions.
func PresetRoots(p Preset) []string {
	var roots []string
	if p == PresetMacOSDeep {
		roots = append(roots, presetRoots[PresetMacOSUserAdditions]...)
	}
	roots = append(roots, presetRoots[p]...)
	// The first existing code directory joins the set.
	for _, dev := range []string{"~/Developer", "~/Projects", "~/src"} {
		if dirExists(ExpandTilde(dev)) {
			roots = append(roots, dev)
			break
		}
	}
	return roots
}

// ApplyPreset replaces the roots with the existing directories of p and
// resets excludes to the defaults.
func (c *Config) ApplyPreset(p Preset) {
	seen := make(map[string]bool)
	roots := []string{}
	for _, r := range PresetRoots(p) {
		normalized, err := NormalizePath(r)
		if err != nil || seen[normalized] {
			continue
		}
		seen[normalized] = true
		roots = append(roots, normalized)
	}
	c.Roots = roots
	c.Excludes = DefaultExcludes()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Init loads the config at path (or defaults), applies preset, and saves it.
// A brand new config without an explicit preset gets DefaultPreset.
func Init(path string, preset Preset) (*Config, error) {
	existed := Exists(path)
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if preset == "" && !existed {
		preset = DefaultPreset()
	}
	if preset != "" {
		cfg.ApplyPreset(preset)
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	return cfg, nil
}
