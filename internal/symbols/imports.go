package symbols

import "golang.org/x/mod/semver"

// ValidateConstraint reports whether constraint is a well-formed semantic
// version (e.g. "v1.2.3"), the shape §3.3's import form `(import path
// [constraint])` accepts as its optional second string. An empty
// constraint (no version requirement) is always valid.
func ValidateConstraint(constraint string) bool {
	if constraint == "" {
		return true
	}
	return semver.IsValid(constraint)
}

// StricterConstraint returns whichever of two valid, non-empty version
// constraints is higher — used when the same import path is named more
// than once across a compilation's modules with different requirements,
// so the compilation ends up honoring the strictest one seen.
func StricterConstraint(a, b string) string {
	if semver.Compare(a, b) >= 0 {
		return a
	}
	return b
}
