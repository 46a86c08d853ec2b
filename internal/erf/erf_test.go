package erf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nwncomm/nwnc/internal/resource"
)

// buildERF assembles a minimal valid ERF buffer (resRefWidth-byte resrefs) with two
// entries, for use as fixture input to Open.
func buildERF(t *testing.T, resRefWidth int) []byte {
	t.Helper()

	type res struct {
		name string
		typ  uint16
		data []byte
	}
	entries := []res{
		{name: "module", typ: 2014, data: []byte("module body")},
		{name: "onmodload", typ: 2067, data: []byte("void main() {}")},
	}

	keyRecSize := resRefWidth + 4 + 2 + 2
	keyListOff := headerSize
	keyListSize := keyRecSize * len(entries)
	resListOff := keyListOff + keyListSize
	resListSize := 8 * len(entries)
	dataOff := resListOff + resListSize

	buf := make([]byte, dataOff)
	copy(buf[0:4], "ERF ")
	copy(buf[4:8], "V1.0")
	putU32 := func(off int, v uint32) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}
	putU32(8, 0)                      // LanguageCount
	putU32(12, 0)                     // LocalizedStringSize
	putU32(16, uint32(len(entries)))  // EntryCount
	putU32(20, uint32(headerSize))    // OffsetToLocalizedString (empty, unused here)
	putU32(24, uint32(keyListOff))    // OffsetToKeyList
	putU32(28, uint32(resListOff))    // OffsetToResourceList
	putU32(32, 2026)                  // BuildYear
	putU32(36, 1)                     // BuildDay
	putU32(40, 0xFFFFFFFF)            // DescriptionStrRef

	keyPos := keyListOff
	resPos := resListOff
	dataPos := dataOff
	var dataBuf []byte
	for i, e := range entries {
		copy(buf[keyPos:keyPos+len(e.name)], e.name)
		putU32(keyPos+resRefWidth, uint32(i))
		buf[keyPos+resRefWidth+4] = byte(e.typ)
		buf[keyPos+resRefWidth+5] = byte(e.typ >> 8)
		keyPos += keyRecSize

		putU32(resPos, uint32(dataPos))
		putU32(resPos+4, uint32(len(e.data)))
		resPos += 8

		dataBuf = append(dataBuf, e.data...)
		dataPos += len(e.data)
	}
	buf = append(buf, dataBuf...)
	return buf
}

func writeTemp(t *testing.T, buf []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "module.mod")
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOpenParsesEntries(t *testing.T) {
	path := writeTemp(t, buildERF(t, 32))
	r, err := Open(path, 32)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Tier() != resource.TierEncapsulated32 {
		t.Fatalf("Tier() = %v, want TierEncapsulated32", r.Tier())
	}
	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}
	e, ok := r.EntryAt(1)
	if !ok || e.Name != "onmodload" || e.Type != 2067 {
		t.Fatalf("EntryAt(1) = %+v, %v", e, ok)
	}
}

func TestOpenReadsResourceContent(t *testing.T) {
	path := writeTemp(t, buildERF(t, 32))
	r, err := Open(path, 32)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rc, err := r.Open(0)
	if err != nil {
		t.Fatalf("Open(0): %v", err)
	}
	defer rc.Close()
	buf := make([]byte, rc.Size())
	if _, err := rc.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf) != "module body" {
		t.Fatalf("content = %q, want %q", buf, "module body")
	}
}

func TestOpenRejectsTruncatedHeader(t *testing.T) {
	_, err := Open(writeTemp(t, make([]byte, 10)), 32)
	if err == nil {
		t.Fatal("Open of truncated file should fail")
	}
}

func TestOpenRejectsBadWidth(t *testing.T) {
	if _, err := Open(writeTemp(t, buildERF(t, 32)), 24); err == nil {
		t.Fatal("Open with unsupported resref width should fail")
	}
}

func Test16ByteVariantReportsTier(t *testing.T) {
	path := writeTemp(t, buildERF(t, 16))
	r, err := Open(path, 16)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Tier() != resource.TierEncapsulated16 {
		t.Fatalf("Tier() = %v, want TierEncapsulated16", r.Tier())
	}
}
