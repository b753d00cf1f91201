// Package version holds build metadata injected via ldflags.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Product names this service in outbound requests and logs.
const Product = "relevex"

// UserAgent identifies this build to the product index, e.g. "relevex/1.4.0".
func UserAgent() string {
	return Product + "/" + Version
}

// String renders the full build stamp for the version command.
func String() string {
	return Version + " (commit " + Commit + ", built " + Date + ")"
}
