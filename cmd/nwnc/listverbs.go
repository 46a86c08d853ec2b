package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/xerrors"

	"github.com/nwncomm/nwnc/internal/resource"
)

// runListVerb implements spec SPEC_FULL.md's supplemental "ls-areas"/
// "ls-models" CLI verbs (grounded on original_source/ListModuleAreas.cpp
// and ListModuleModels.cpp): after a module load, list every resource of
// the given type the manager's index knows about, one name per line.
// Both tools are read-only enumerations over Manager.ListByType; the
// per-resource inspection the originals go on to do (printing an area's
// tileset, a model's supermodel chain, ...) is out of scope, same as
// spec §1's exclusion of mesh/terrain subsystems.
func runListVerb(w io.Writer, mgr *resource.Manager, typ resource.Type) {
	for _, name := range mgr.ListByType(typ) {
		fmt.Fprintln(w, name.String())
	}
}

// runListModuleVerb parses verb's own small flag set (-m/-h/-n, the same
// module/home/install flags the main flag set carries, but on a fresh
// flag.FlagSet since flag.CommandLine already registered those letters
// for the compile path), loads the named module, and lists its
// resources of the verb's resource type.
func runListModuleVerb(verb string, args []string) error {
	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	moduleName := fs.String("m", "", "module resource name")
	homeDir := fs.String("h", "", "user home directory")
	installDir := fs.String("n", "", "install directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *moduleName == "" {
		return xerrors.Errorf("nwnc %s: -m MODULE is required", verb)
	}

	mgr, err := resource.NewManager(extensionTable)
	if err != nil {
		return xerrors.Errorf("nwnc %s: %w", verb, err)
	}
	defer mgr.Close()

	if err := mgr.LoadModule(resource.ModuleParams{
		ModuleName:  *moduleName,
		HomeDir:     *homeDir,
		InstallDir:  *installDir,
		KeyFiles:    baseKeyFiles(*installDir),
		ResRefWidth: 32,
		TypeOf:      typeOfExtension,
	}); err != nil {
		return xerrors.Errorf("nwnc %s: load module %s: %w", verb, *moduleName, err)
	}

	typ := typeARE
	if verb == "ls-models" {
		typ = typeMDB
	}
	runListVerb(os.Stdout, mgr, typ)
	return nil
}
