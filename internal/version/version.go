// Package version holds build identification, overridable at link time
// via -ldflags "-X github.com/ttbonn/reviewagent/internal/version.Version=...".
package version

var (
	// Version is the semantic version of the build.
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)
