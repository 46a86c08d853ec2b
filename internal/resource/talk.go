package resource

import "github.com/nwncomm/nwnc/internal/gff"

// TalkTable adapts the manager's bounded LRU cache (spec §4.4's "root
// cache of talk-string tables") into a gff.TalkStringSource. Parsing the
// on-disk talk-table format itself is out of scope (localization
// subsystems are a spec non-goal); callers populate the cache via Put
// after loading a talk table however they see fit, keyed by a
// caller-chosen string (typically "<table>:<strref>").
type TalkTable struct {
	mgr    *Manager
	prefix string
}

// Talk returns a TalkTable view over m's shared cache, namespaced by
// prefix (e.g. the talk-table's own resource name) so multiple tables —
// base and alternate, per spec §4.4 step 9 — can share one cache without
// key collisions.
func (m *Manager) Talk(prefix string) *TalkTable {
	return &TalkTable{mgr: m, prefix: prefix}
}

func (t *TalkTable) cacheKey(strRef uint32) string {
	b := make([]byte, 0, len(t.prefix)+11)
	b = append(b, t.prefix...)
	b = append(b, ':')
	b = appendUint32(b, strRef)
	return string(b)
}

func appendUint32(b []byte, v uint32) []byte {
	if v == 0 {
		return append(b, '0')
	}
	var tmp [10]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(b, tmp[i:]...)
}

// Put caches the string for strRef.
func (t *TalkTable) Put(strRef uint32, s string) {
	t.mgr.talkCache.Add(t.cacheKey(strRef), []byte(s))
}

// TalkString implements gff.TalkStringSource.
func (t *TalkTable) TalkString(strRef uint32) (string, bool) {
	b, ok := t.mgr.talkCache.Get(t.cacheKey(strRef))
	if !ok {
		return "", false
	}
	return string(b), true
}

var _ gff.TalkStringSource = (*TalkTable)(nil)
