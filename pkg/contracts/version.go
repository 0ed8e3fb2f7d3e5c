package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	// Version is the current version of the application
	Version = "0.3.0"

	// DataFormatVersion is the version of the exported table layout. It
	// changes whenever a column is added, renamed or reordered.
	DataFormatVersion = "v1"
)

// GitCommit is set during build using ldflags. When unset the VCS revision
// stamped by the go tool is used.
var GitCommit = ""

// Revision returns the commit the binary was built from, or "unknown"
func Revision() string {
	if GitCommit != "" {
		return GitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				if len(s.Value) > 12 {
					return s.Value[:12]
				}
				return s.Value
			}
		}
	}
	return "unknown"
}

// VersionString is the version line printed by the CLI
func VersionString() string {
	return fmt.Sprintf("%s (tables %s, commit %s, %s)", Version, DataFormatVersion, Revision(), runtime.Version())
}
