// Package version holds the ctxmap build information.
package version

import "runtime"

// Set at build time:
// go build -ldflags "-X ctxmap/internal/version.Version=0.4.1 -X ctxmap/internal/version.Commit=abc123"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// ShortCommit returns the first 7 characters of Commit, or "" when the
// commit is unknown or too short to abbreviate.
func ShortCommit() string {
	if Commit == "unknown" || len(Commit) <= 7 {
		return ""
	}
	return Commit[:7]
}

// Info returns the version with the short commit appended when known.
func Info() string {
	if c := ShortCommit(); c != "" {
		return Version + " (" + c + ")"
	}
	return Version
}

// Full returns the multi-line build report printed by 'ctxmap version'.
func Full() string {
	return "ctxmap version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate + "\n" +
		"Go: " + runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH
}
