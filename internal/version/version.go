// Package version reports the tool version written into generated code.
package version

import "runtime/debug"

// Version is set at build time with -ldflags "-X plugin-migrate/internal/version.Version=...".
var Version = ""

// Current returns Version, falling back to the module version recorded in the
// binary and finally to a development marker.
func Current() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "0.0.0-dev"
}
