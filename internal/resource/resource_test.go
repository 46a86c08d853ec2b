package resource

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// memProvider is a fixed in-memory provider for tests: each entry is a
// (name, type) -> content mapping, all reported at a fixed Tier.
type memProvider struct {
	tier    Tier
	entries []Entry
	content [][]byte
	native  []string // parallel to entries; "" means archive-backed
}

func (p *memProvider) Tier() Tier  { return p.tier }
func (p *memProvider) Count() int  { return len(p.entries) }
func (p *memProvider) EntryAt(i int) (Entry, bool) {
	if i < 0 || i >= len(p.entries) {
		return Entry{}, false
	}
	return p.entries[i], true
}

func (p *memProvider) Open(fileID uint32) (ReadCloser, error) {
	return &memStream{r: bytes.NewReader(p.content[fileID]), size: int64(len(p.content[fileID]))}, nil
}

func (p *memProvider) NativePath(fileID uint32) (string, bool) {
	if int(fileID) >= len(p.native) || p.native[fileID] == "" {
		return "", false
	}
	return p.native[fileID], true
}

type memStream struct {
	r    *bytes.Reader
	size int64
}

func (s *memStream) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *memStream) Close() error               { return nil }
func (s *memStream) Size() int64                { return s.size }

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestResourceShadowing(t *testing.T) {
	m := newTestManager(t)

	const srcType Type = 1
	a := &memProvider{
		tier:    TierZip,
		entries: []Entry{{FileID: 0, Name: "foo", Type: srcType}},
		content: [][]byte{[]byte("v1")},
		native:  []string{""},
	}
	b := &memProvider{
		tier:    TierZip,
		entries: []Entry{{FileID: 0, Name: "foo", Type: srcType}},
		content: [][]byte{[]byte("v2")},
		native:  []string{""},
	}
	m.RegisterProvider(a)
	m.RegisterProvider(b)
	m.RebuildIndex()

	path, err := m.Demand("foo", srcType)
	if err != nil {
		t.Fatalf("Demand: %v", err)
	}
	defer m.Release("foo", srcType)

	got, err := io.ReadAll(mustOpen(t, path))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v2" {
		t.Fatalf("content = %q, want v2 (later-registered provider should shadow)", got)
	}
}

func mustOpen(t *testing.T, path string) io.Reader {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestDemandRefcount(t *testing.T) {
	m := newTestManager(t)
	const typ Type = 2
	p := &memProvider{
		tier:    TierZip,
		entries: []Entry{{FileID: 0, Name: "bar", Type: typ}},
		content: [][]byte{[]byte("data")},
		native:  []string{""},
	}
	m.RegisterProvider(p)
	m.RebuildIndex()

	const n = 3
	var path string
	for i := 0; i < n; i++ {
		var err error
		path, err = m.Demand("bar", typ)
		if err != nil {
			t.Fatalf("Demand #%d: %v", i, err)
		}
	}
	if !fileExists(path) {
		t.Fatalf("temp file %s should exist while references are outstanding", path)
	}
	for i := 0; i < n-1; i++ {
		if err := m.Release("bar", typ); err != nil {
			t.Fatalf("Release #%d: %v", i, err)
		}
		if !fileExists(path) {
			t.Fatalf("temp file removed before refcount reached zero (release %d of %d)", i+1, n)
		}
	}
	if err := m.Release("bar", typ); err != nil {
		t.Fatalf("final Release: %v", err)
	}
	if fileExists(path) {
		t.Fatal("temp file not removed after refcount reached zero")
	}
}

func TestDirectoryProviderReusesNativePath(t *testing.T) {
	m := newTestManager(t)
	const typ Type = 3
	p := &memProvider{
		tier:    TierDirectory,
		entries: []Entry{{FileID: 0, Name: "script", Type: typ}},
		content: [][]byte{[]byte("unused")},
		native:  []string{"/srv/module/script.nss"},
	}
	m.RegisterProvider(p)
	m.RebuildIndex()

	path, err := m.Demand("script", typ)
	if err != nil {
		t.Fatalf("Demand: %v", err)
	}
	if path != "/srv/module/script.nss" {
		t.Fatalf("path = %q, want the provider's native path unmodified", path)
	}
	if err := m.Release("script", typ); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestResourceNotFound(t *testing.T) {
	m := newTestManager(t)
	m.RebuildIndex()
	if _, err := m.Demand("missing", 1); err == nil {
		t.Fatal("Demand of unindexed resource should fail")
	}
	if m.ResourceExists("missing", 1) {
		t.Fatal("ResourceExists should be false for an unindexed resource")
	}
}

func TestNewNameRejectsIllegalNames(t *testing.T) {
	tests := []string{"", "../etc/passwd", "a/b", `a\b`, "con", "CON.nss", "lpt1", "com9.nss", "prn"}
	for _, in := range tests {
		if _, err := NewName(in); err == nil {
			t.Errorf("NewName(%q) succeeded, want ErrIllegalName", in)
		}
	}
}

func TestNewNameNormalizesCase(t *testing.T) {
	n, err := NewName("MyScript")
	if err != nil {
		t.Fatalf("NewName: %v", err)
	}
	if n.String() != "myscript" {
		t.Fatalf("NewName(MyScript).String() = %q, want myscript", n.String())
	}
}

func TestTalkTableFallback(t *testing.T) {
	m := newTestManager(t)
	tbl := m.Talk("dialog")
	tbl.Put(5, "hello")
	if s, ok := tbl.TalkString(5); !ok || s != "hello" {
		t.Fatalf("TalkString(5) = %q, %v; want hello, true", s, ok)
	}
	if _, ok := tbl.TalkString(6); ok {
		t.Fatal("TalkString(6) should miss")
	}
}
