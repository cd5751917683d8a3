// Package version exposes build metadata stamped by the linker or read
// from the embedded VCS info.
package version

import (
	"runtime"
	"runtime/debug"
)

var (
	Version   string // Set via ldflags.
	Branch    string
	BuildUser string
	BuildDate string

	Revision  = vcsRevision()
	GoVersion = runtime.Version()
	GoOS      = runtime.GOOS
	GoArch    = runtime.GOARCH
)

// GetVersion returns the release version when one was stamped in,
// otherwise the VCS revision.
func GetVersion() string {
	if Version != "" {
		return Version
	}

	return Revision
}

// vcsRevision reads the short commit hash from the build info, with a
// -dirty suffix for builds from a modified tree.
func vcsRevision() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	rev := "unknown"
	dirty := ""

	for _, s := range buildInfo.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
			if len(rev) > 7 {
				rev = rev[:7]
			}

		case "vcs.modified":
			if s.Value == "true" {
				dirty = "-dirty"
			}
		}
	}

	return rev + dirty
}
