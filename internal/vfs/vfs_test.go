package vfs

import (
	"testing"

	"github.com/nwncomm/nwnc/internal/resource"
)

func TestNewBuildsSortedFlatNamespace(t *testing.T) {
	m, err := resource.NewManager(nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer m.Close()

	names := []resource.Name{"zeta", "alpha"}
	typesOf := func(n resource.Name) []resource.Type { return []resource.Type{1} }
	ext := resource.ExtensionTable{1: "nss"}

	fs := New(m, ext, names, typesOf)
	if len(fs.entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(fs.entries))
	}
	if fs.entries[0].name != "alpha.nss" || fs.entries[1].name != "zeta.nss" {
		t.Fatalf("entries not sorted: %q, %q", fs.entries[0].name, fs.entries[1].name)
	}
	if _, ok := fs.byName["alpha.nss"]; !ok {
		t.Fatal("byName missing alpha.nss")
	}
}
