// Package buildinfo holds version metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/gntoka/gntoka/internal/buildinfo.Version=v0.3.0" ./cmd/gntoka
package buildinfo

import "fmt"

var (
	// Version will be set via ldflags during build.
	Version = "dev"
	// Commit will be set via ldflags during build.
	Commit = "none"
	// Date will be set via ldflags during build.
	Date = "unknown"
)

// String formats the metadata for --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
