package config

import "fmt"

// The following vars are automatically injected via -ldflags.
// See Makefile target "go-build" and the Dockerfile.
var (
	ModuleName = "build.local/misses/ldflags" // e.g. github/chapool/token-agent
	Commit     = "< 40 chars git commit hash via ldflags >"
	BuildDate  = "1970-01-01T00:00:00+00:00" // e.g. 2026-02-18T06:37:59+02:00
)

func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleName, Commit, BuildDate)
}
