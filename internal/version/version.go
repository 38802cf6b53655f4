// Package version carries the build-time version stamp.
package version

// Version is set via ldflags in release builds:
// go build -ldflags "-X git.home.luguber.info/inful/sitebuilder/internal/version.Version=v1.2.0".
var Version = "dev"

// Build metadata, also ldflags-settable.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version with the commit when one is stamped.
func String() string {
	if GitCommit == "unknown" || GitCommit == "" {
		return Version
	}
	return Version + " (" + GitCommit + ")"
}
