package domain

import "fmt"

// VersionInfo contains build-time version information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// String is served by /health
func (v VersionInfo) String() string {
	if v.Commit == "" || v.Commit == "unknown" {
		return v.Version
	}
	return fmt.Sprintf("%s (%s)", v.Version, v.Commit)
}
