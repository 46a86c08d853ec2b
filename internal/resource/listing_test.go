package resource

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func listingTypeOf(ext string) (Type, bool) {
	switch ext {
	case "are":
		return 2012, true
	case "utc":
		return 2027, true
	}
	return 0, false
}

func newListingManager(t *testing.T, dir string) *Manager {
	t.Helper()
	mgr, err := NewManager(ExtensionTable{2012: "are", 2027: "utc"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mgr.Close() })
	p, err := OpenDirectory(dir, listingTypeOf)
	if err != nil {
		t.Fatal(err)
	}
	mgr.RegisterProvider(p)
	mgr.RebuildIndex()
	return mgr
}

func TestListByTypeFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, fn := range []string{"tavern.are", "forest.are", "hero.utc"} {
		if err := os.WriteFile(filepath.Join(dir, fn), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	mgr := newListingManager(t, dir)

	got := mgr.ListByType(2012)
	var want []Name
	for _, s := range []string{"forest", "tavern"} {
		n, err := NewName(s)
		if err != nil {
			t.Fatal(err)
		}
		want = append(want, n)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListByType(ARE) = %v, want %v", got, want)
	}
}

func TestAllNamesDeduplicatesAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, fn := range []string{"tavern.are", "forest.are", "forest.utc"} {
		if err := os.WriteFile(filepath.Join(dir, fn), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	mgr := newListingManager(t, dir)

	got := mgr.AllNames()
	if len(got) != 2 {
		t.Fatalf("AllNames() = %v, want 2 distinct names", got)
	}
	if got[0].String() != "forest" || got[1].String() != "tavern" {
		t.Errorf("AllNames() = %v, want [forest tavern]", got)
	}
}

func TestTypesForReturnsEveryTypeOfName(t *testing.T) {
	dir := t.TempDir()
	for _, fn := range []string{"forest.are", "forest.utc"} {
		if err := os.WriteFile(filepath.Join(dir, fn), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	mgr := newListingManager(t, dir)

	forest, err := NewName("forest")
	if err != nil {
		t.Fatal(err)
	}
	got := mgr.TypesFor(forest)
	want := []Type{2012, 2027}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TypesFor(forest) = %v, want %v", got, want)
	}
}
