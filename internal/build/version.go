// Package build provides version and build information for profilesync.
// This package intentionally has no dependencies on other internal packages
// to avoid import cycles.
package build

import "fmt"

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
func IsDevBuild() bool {
	return Version == "dev"
}

// Summary renders the version line printed by `profilesync version`.
func Summary() string {
	return fmt.Sprintf("profilesync %s (commit %s, built %s)", Version, Commit, BuildDate)
}
