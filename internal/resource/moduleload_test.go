package resource

import (
	"os"
	"path/filepath"
	"testing"
)

func moduleTypeOf(ext string) (Type, bool) {
	switch ext {
	case "nss":
		return 2009, true
	case "ifo":
		return 2014, true
	}
	return 0, false
}

func TestLoadModuleDirectoryForm(t *testing.T) {
	home := t.TempDir()
	modDir := filepath.Join(home, "modules", "demo")
	if err := os.MkdirAll(modDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(modDir, "module.ifo"), []byte("placeholder"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(modDir, "main.nss"), []byte("void main(){}"), 0644); err != nil {
		t.Fatal(err)
	}

	mgr, err := NewManager(ExtensionTable{2009: "nss", 2014: "ifo"})
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	err = mgr.LoadModule(ModuleParams{
		ModuleName: "demo",
		HomeDir:    home,
		TypeOf:     moduleTypeOf,
	})
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}

	name, _ := NewName("main")
	if !mgr.ResourceExists(name, 2009) {
		t.Fatal("expected main.nss to be indexed after directory-form module load")
	}

	path, err := mgr.Demand(name, 2009)
	if err != nil {
		t.Fatalf("Demand: %v", err)
	}
	if path != filepath.Join(modDir, "main.nss") {
		t.Fatalf("Demand returned %q, want the native module path (directory tier should not extract)", path)
	}
}

func TestLoadModuleMissingReportsNotFound(t *testing.T) {
	home := t.TempDir()
	mgr, err := NewManager(ExtensionTable{2009: "nss"})
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	err = mgr.LoadModule(ModuleParams{
		ModuleName: "nonexistent",
		HomeDir:    home,
		TypeOf:     moduleTypeOf,
	})
	if err == nil {
		t.Fatal("expected an error for a module that cannot be located")
	}
}

func TestLoadModuleCoreOnlySkipsDataAndKeyFiles(t *testing.T) {
	home := t.TempDir()
	modDir := filepath.Join(home, "modules", "demo")
	if err := os.MkdirAll(modDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(modDir, "module.ifo"), []byte("placeholder"), 0644); err != nil {
		t.Fatal(err)
	}

	mgr, err := NewManager(ExtensionTable{2014: "ifo"})
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	err = mgr.LoadModule(ModuleParams{
		ModuleName: "demo",
		HomeDir:    home,
		TypeOf:     moduleTypeOf,
		CoreOnly:   true,
	})
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	name, _ := NewName("module")
	if !mgr.ResourceExists(name, 2014) {
		t.Fatal("expected module.ifo to be indexed after a lite/core-only load")
	}
}
