package resource

import (
	"strings"

	"golang.org/x/xerrors"
)

// Name is a case-normalized, validated resource identifier. Two on-disk
// widths exist (16 and 32 bytes); Name itself is the normalized string
// form shared by both, width enforcement happens where a provider needs
// it (e.g. the 16-/32-byte ERF readers).
type Name string

// deviceNames are the reserved DOS device names rejected by NewName,
// independent of case or extension.
var deviceNames = map[string]bool{
	"prn": true, "aux": true, "con": true, "nul": true,
	"conin$": true, "conout$": true,
}

func isComPort(s string) bool {
	if len(s) != 4 || !strings.HasPrefix(s, "com") {
		return false
	}
	return s[3] >= '0' && s[3] <= '9'
}

func isLptPort(s string) bool {
	if len(s) != 4 || !strings.HasPrefix(s, "lpt") {
		return false
	}
	return s[3] >= '0' && s[3] <= '9'
}

// NewName lower-cases s and rejects path-traversal characters and
// reserved DOS device names, per spec §4.4 "Name normalization". The
// empty name is also invalid, per spec §3's resource-identifier
// definition.
func NewName(s string) (Name, error) {
	if s == "" {
		return "", xerrors.Errorf("%w: empty resource name", ErrIllegalName)
	}
	lower := strings.ToLower(s)
	if strings.ContainsAny(lower, `\/`) || strings.Contains(lower, "..") {
		return "", xerrors.Errorf("%w: %q contains path-traversal characters", ErrIllegalName, s)
	}

	base := lower
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if deviceNames[base] || isComPort(base) || isLptPort(base) {
		return "", xerrors.Errorf("%w: %q is a reserved device name", ErrIllegalName, s)
	}
	return Name(lower), nil
}

func (n Name) String() string { return string(n) }

// key is the master index's lookup key: spec §4.4's
// "(type-as-decimal + 'T' + name)".
type key struct {
	typ  Type
	name Name
}
