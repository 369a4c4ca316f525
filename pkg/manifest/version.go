package manifest

import (
	"strings"

	"golang.org/x/mod/semver"
)

// NormalizeVersion returns a clean release version, or empty if the version
// is not a valid release (dev builds, Go pseudo-versions). Explicit
// prerelease tags (v0.2.0-rc1) are allowed.
//
// Examples:
//
//	"v1.4.0"                          -> "v1.4.0"
//	"1.4.0"                           -> "v1.4.0"
//	"v0.2.0-rc1"                      -> "v0.2.0-rc1"
//	"1.4.0-dev"                       -> "" (dev build)
//	"v0.2.1-0.20260122153045-abc123"  -> "" (pseudo-version)
func NormalizeVersion(version string) string {
	version = strings.TrimSpace(version)

	// Reject -dev builds
	if strings.HasSuffix(version, "-dev") {
		return ""
	}

	// Reject Go pseudo-versions (v0.2.1-0.20260122153045-abc123)
	if strings.Contains(version, "-0.") {
		return ""
	}

	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		return ""
	}
	return version
}

// Newer reports whether deployment version a is strictly newer than b.
// Invalid versions are never newer than anything.
func Newer(a, b string) bool {
	a, b = NormalizeVersion(a), NormalizeVersion(b)
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	return semver.Compare(a, b) > 0
}
