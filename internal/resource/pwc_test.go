package resource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
)

func buildTestPWC(t *testing.T, payload []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "module.pwc")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := pgzip.NewWriter(f)
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("f.Close: %v", err)
	}
	return path
}

func TestIsPWCDetectsGzipMagic(t *testing.T) {
	path := buildTestPWC(t, []byte("module archive bytes"))
	ok, err := IsPWC(path)
	if err != nil {
		t.Fatalf("IsPWC: %v", err)
	}
	if !ok {
		t.Fatal("IsPWC should detect a gzip-magic file")
	}
}

func TestIsPWCRejectsPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.mod")
	if err := os.WriteFile(path, []byte("ERF V1.0"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	ok, err := IsPWC(path)
	if err != nil {
		t.Fatalf("IsPWC: %v", err)
	}
	if ok {
		t.Fatal("IsPWC should not detect a plain archive as pwc")
	}
}

func TestDecompressPWCRoundTrips(t *testing.T) {
	want := []byte("module archive bytes, long enough to exercise the copy loop")
	src := buildTestPWC(t, want)
	dir := t.TempDir()
	outPath, err := DecompressPWC(src, dir)
	if err != nil {
		t.Fatalf("DecompressPWC: %v", err)
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("decompressed content = %q, want %q", got, want)
	}
}

func TestDecompressPWCRejectsNonGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.mod")
	if err := os.WriteFile(path, []byte("not gzip"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := DecompressPWC(path, t.TempDir()); err == nil {
		t.Fatal("DecompressPWC should fail on non-gzip input")
	}
}
