package buildconfig

import "runtime"

// Set with -ldflags "-X github.com/Harshitk-cp/rlbelief/internal/buildconfig.version=..."
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo is reported by /health and `beliefs version`.
func VersionInfo() map[string]string {
	info := map[string]string{
		"version": version,
		"commit":  commit,
		"go":      runtime.Version(),
	}
	if buildDate != "" {
		info["build_date"] = buildDate
	}
	return info
}
