// Package version reports which catalog build is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set with -ldflags "-X github.com/Aman-CERP/catalog/pkg/version.Version=...".
// Release builds set all three; `go install` builds leave them at their
// defaults and fall back to the VCS stamp embedded by the toolchain.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// BuildInfo is the JSON form of `catalog version --json`.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var (
	stampOnce sync.Once
	stamp     BuildInfo
)

// GetInfo merges ldflags values with the module's embedded VCS settings.
func GetInfo() BuildInfo {
	stampOnce.Do(func() {
		stamp = BuildInfo{
			Version:   Version,
			Commit:    Commit,
			Date:      Date,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		fillFromVCS(&stamp, bi.Settings)
	})
	return stamp
}

func fillFromVCS(info *BuildInfo, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	if len(info.Commit) > 12 {
		info.Commit = info.Commit[:12]
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
}

// String is the one-line form printed by `catalog version`.
func String() string {
	info := GetInfo()
	commit := info.Commit
	if info.Modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("catalog %s (%s, built %s, %s %s)",
		info.Version, commit, info.Date, info.GoVersion, info.Platform)
}

// Short returns only the version.
func Short() string {
	return Version
}
