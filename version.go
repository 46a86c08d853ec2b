package nwnc

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// minTargetVersion and maxTargetVersion bound the `-vNNN` flag (spec §6) to
// the range of compiler versions the original toolchain ever shipped as;
// 999999 is the source's own sentinel for "unset, use the compiler's
// built-in default".
const (
	minTargetVersion = 1
	maxTargetVersion = 999999
)

// ParseTargetVersion validates the digits following `-v` (e.g. "174" from
// "-v174") and returns the target-version number. It rejects anything that
// is not a bare non-negative integer in range, mirroring the source's
// digit-by-digit parse that errors on "Invalid digit in version number."
func ParseTargetVersion(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("nwnc: empty target version")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("nwnc: invalid digit in version number %q", s)
	}
	if n < minTargetVersion || n > maxTargetVersion {
		return 0, fmt.Errorf("nwnc: target version %d out of range [%d, %d]", n, minTargetVersion, maxTargetVersion)
	}
	return n, nil
}

// canonicalTargetVersion maps a bare compiler version number onto the
// well-formed version grammar golang.org/x/mod/semver expects, so target
// versions and HAK/module version strings can be ordered with the same
// comparator.
func canonicalTargetVersion(n int) string {
	return fmt.Sprintf("v0.%d.0", n)
}

// CompareTargetVersions reports whether target version a precedes, equals,
// or follows b, using semver.Compare over each version's canonical form.
func CompareTargetVersions(a, b int) int {
	return semver.Compare(canonicalTargetVersion(a), canonicalTargetVersion(b))
}

// ModuleVersion is a HAK/module descriptor's free-form build-version
// string (e.g. the "Mod_Version"/build-number fields the source's
// UpdateModTemplates tooling compares across module revisions), coerced
// onto the vMAJOR.MINOR.PATCH grammar so it can be validated and ordered
// the same way a target version is.
type ModuleVersion string

// Canonical rewrites v onto the "vX.Y.Z" form semver.IsValid requires,
// tolerating the bare "X.Y", "X.Y.Z" or "X" forms module descriptors
// commonly carry.
func (v ModuleVersion) Canonical() string {
	s := strings.TrimPrefix(string(v), "v")
	parts := strings.SplitN(s, ".", 3)
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return "v" + strings.Join(parts[:3], ".")
}

// Valid reports whether v parses as a well-formed version under its
// canonical form.
func (v ModuleVersion) Valid() bool {
	return semver.IsValid(v.Canonical())
}

// Less reports whether v precedes other as a module/HAK build version.
// Malformed versions sort before well-formed ones so a corrupt descriptor
// never wins a "most recent wins" comparison.
func (v ModuleVersion) Less(other ModuleVersion) bool {
	vOK, oOK := v.Valid(), other.Valid()
	if vOK != oOK {
		return !vOK
	}
	if !vOK {
		return string(v) < string(other)
	}
	return semver.Compare(v.Canonical(), other.Canonical()) < 0
}
