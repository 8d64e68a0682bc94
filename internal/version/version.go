// Package version exposes the Gatekeep release string.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var versionContent string

// Name is the program name shown in version output.
const Name = "gatekeep"

// Get returns the current version, with whitespace trimmed
func Get() string {
	return strings.TrimSpace(versionContent)
}

// String returns "gatekeep, version X".
func String() string {
	return Name + ", version " + Get()
}
