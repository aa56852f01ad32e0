package version

import (
	"runtime/debug"
	"strings"
	"time"
)

// These variables can be overridden at build time with ldflags
var (
	Version   string // -X github.com/trufnetwork/rootcred/cmd/version.Version=...
	Commit    string // -X github.com/trufnetwork/rootcred/cmd/version.Commit=...
	BuildTime string // -X github.com/trufnetwork/rootcred/cmd/version.BuildTime=...
)

const shortHashLength = 9

// buildSetting returns a VCS setting recorded by the Go toolchain.
func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// getVersion returns the ldflags version, then the module version, then "devel".
func getVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "devel"
}

// getCommit returns the short commit hash, marked when the tree was modified.
func getCommit() string {
	commit := Commit
	if commit == "" {
		commit = buildSetting("vcs.revision")
	}
	if len(commit) > shortHashLength {
		commit = commit[:shortHashLength]
	}
	if Commit == "" && commit != "" && buildSetting("vcs.modified") == "true" {
		commit += "-dirty"
	}
	return commit
}

func getBuildTime() time.Time {
	for _, raw := range []string{BuildTime, buildSetting("vcs.time")} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// getBuildTimeDisplay says whether the time came from the build or the commit.
func getBuildTimeDisplay() string {
	buildTime := getBuildTime()
	if buildTime.IsZero() {
		return "unknown"
	}
	if BuildTime != "" && strings.HasSuffix(getVersion(), "dirty") {
		return buildTime.Format(time.RFC3339) + " (build time)"
	}
	return buildTime.Format(time.RFC3339) + " (commit time)"
}
