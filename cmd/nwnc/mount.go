package main

import (
	"flag"

	"golang.org/x/xerrors"

	nwnc "github.com/nwncomm/nwnc"
	"github.com/nwncomm/nwnc/internal/oninterrupt"
	"github.com/nwncomm/nwnc/internal/resource"
	"github.com/nwncomm/nwnc/internal/vfs"
)

// runMountVerb implements the "nwnc mount <dir>" verb SPEC_FULL.md's
// DOMAIN STACK table describes for github.com/jacobsa/fuse: load a
// module (same -m/-h/-n/-r/-l flags as the compile path) and expose its
// resolved resource namespace read-only at dir, blocking until
// interrupted (internal/oninterrupt already tears the manager down on
// SIGINT; unmounting lets Mount's Join return).
func runMountVerb(args []string) error {
	fs := flag.NewFlagSet("mount", flag.ContinueOnError)
	moduleName := fs.String("m", "", "module resource name")
	homeDir := fs.String("h", "", "user home directory")
	installDir := fs.String("n", "", "install directory")
	modulePath := fs.String("r", "", "explicit module source path")
	loadBase := fs.Bool("l", false, "load base game resources even without a module")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return xerrors.Errorf("nwnc mount: expected exactly one mountpoint argument")
	}
	mountpoint := rest[0]

	mgr, err := resource.NewManager(extensionTable)
	if err != nil {
		return xerrors.Errorf("nwnc mount: %w", err)
	}
	defer mgr.Close()
	oninterrupt.Register(func() { mgr.Close() })

	if *moduleName != "" || *modulePath != "" || *loadBase {
		if err := mgr.LoadModule(resource.ModuleParams{
			ModuleName:   *moduleName,
			HomeDir:      *homeDir,
			InstallDir:   *installDir,
			ExplicitPath: *modulePath,
			ResRefWidth:  32,
			TypeOf:       typeOfExtension,
			KeyFiles:     baseKeyFiles(*installDir),
			SuppressBase: *moduleName == "" && *modulePath == "" && *loadBase,
		}); err != nil {
			return xerrors.Errorf("nwnc mount: load module: %w", err)
		}
	}

	names := mgr.AllNames()
	fsys := vfs.New(mgr, extensionTable, names, mgr.TypesFor)

	ctx, canc := nwnc.InterruptibleContext()
	defer canc()
	return vfs.Mount(ctx, mountpoint, fsys)
}
