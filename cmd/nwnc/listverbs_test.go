package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nwncomm/nwnc/internal/resource"
)

func TestRunListVerbListsResourcesOfType(t *testing.T) {
	dir := t.TempDir()
	moduleDir := filepath.Join(dir, "modules", "demo")
	if err := os.MkdirAll(moduleDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"module.ifo", "forest.are", "tavern.are", "hero.mdb"} {
		if err := os.WriteFile(filepath.Join(moduleDir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	mgr, err := resource.NewManager(extensionTable)
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	if err := mgr.LoadModule(resource.ModuleParams{
		ModuleName:  "demo",
		HomeDir:     dir,
		ResRefWidth: 32,
		TypeOf:      typeOfExtension,
	}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	runListVerb(&buf, mgr, typeARE)
	got := buf.String()
	if !bytes.Contains([]byte(got), []byte("forest")) || !bytes.Contains([]byte(got), []byte("tavern")) {
		t.Errorf("ls-areas output = %q, want both forest and tavern listed", got)
	}
	if bytes.Contains([]byte(got), []byte("hero")) {
		t.Errorf("ls-areas output = %q, should not list the .mdb resource", got)
	}
}
