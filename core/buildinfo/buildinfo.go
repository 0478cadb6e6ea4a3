// Package buildinfo carries version stamps injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/Vladislavbro/tango-bot/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/Vladislavbro/tango-bot/core/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

var (
	Version = "dev"
	Commit  = "local"
	// Date is the RFC3339 build time, empty for local builds.
	Date = ""
)

// String formats the stamp as "version (commit)".
func String() string {
	return Version + " (" + Commit + ")"
}
