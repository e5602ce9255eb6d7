// Package version exposes build metadata for rel2coords.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set via -ldflags at build time.
var (
	BuildVersion = "0.1.0"
	BuildCommit  = ""
	BuildDate    = ""
)

// Commit returns the VCS revision, preferring the ldflags value over the
// one recorded by the Go toolchain.
func Commit() string {
	if BuildCommit != "" {
		return BuildCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

// String returns a single-line version banner.
func String() string {
	s := fmt.Sprintf("rel2coords %s (commit %s", BuildVersion, Commit())
	if BuildDate != "" {
		s += ", built " + BuildDate
	}
	return s + ")"
}
