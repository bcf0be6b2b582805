// Package version carries build metadata stamped via -ldflags, surfaced by
// the -version flag and the /api/config endpoint.
package version

import "fmt"

var (
	// Version is the application version, "dev" for local builds.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String formats the build metadata on one line.
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, GitSHA, BuildTime)
}
