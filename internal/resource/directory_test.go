package resource

import (
	"os"
	"path/filepath"
	"testing"
)

func dirTypeOf(ext string) (Type, bool) {
	switch ext {
	case "nss":
		return 2009, true
	case "utc":
		return 2027, true
	}
	return 0, false
}

func TestOpenDirectoryIndexesKnownExtensions(t *testing.T) {
	dir := t.TempDir()
	for _, fn := range []string{"main.nss", "goblin.utc", "readme.txt"} {
		if err := os.WriteFile(filepath.Join(dir, fn), []byte("data:"+fn), 0644); err != nil {
			t.Fatal(err)
		}
	}

	p, err := OpenDirectory(dir, dirTypeOf)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.Count(), 2; got != want {
		t.Fatalf("Count() = %d, want %d", got, want)
	}
	if p.Tier() != TierDirectory {
		t.Fatalf("Tier() = %v, want TierDirectory", p.Tier())
	}
}

func TestDirectoryProviderNativePathAvoidsExtraction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.nss")
	if err := os.WriteFile(path, []byte("void main(){}"), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := OpenDirectory(dir, dirTypeOf)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := p.EntryAt(0)
	if !ok {
		t.Fatal("EntryAt(0) = false, want true")
	}
	np, ok := p.NativePath(e.FileID)
	if !ok || np != path {
		t.Fatalf("NativePath(%d) = (%q, %v), want (%q, true)", e.FileID, np, ok, path)
	}
}

func TestOpenDirectoryReadsContentViaOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goblin.utc")
	want := "gff-bytes-here"
	if err := os.WriteFile(path, []byte(want), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := OpenDirectory(dir, dirTypeOf)
	if err != nil {
		t.Fatal(err)
	}
	e, _ := p.EntryAt(0)
	rc, err := p.Open(e.FileID)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	buf := make([]byte, len(want))
	if _, err := rc.Read(buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != want {
		t.Fatalf("Read = %q, want %q", buf, want)
	}
}
