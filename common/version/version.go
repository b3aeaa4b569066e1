// Package version provides build-time version information for the starpack CLI.
package version

import "fmt"

var (
	// Version is the semantic version (set via ldflags)
	Version = "v0.2.1-dev"

	// GitCommit is the git commit hash (set via ldflags)
	GitCommit = "unknown"

	// BuildTime is the build timestamp (set via ldflags)
	BuildTime = "unknown"
)

// Info returns the string printed by `starpack --version`.
func Info() string {
	return fmt.Sprintf("Starpack CLI version: %s (%s) built at %s", Version, GitCommit, BuildTime)
}

// UserAgent is sent with every request to the engine.
func UserAgent() string {
	return "starpack-cli/" + Version
}
