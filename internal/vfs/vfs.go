// Package vfs exposes a resource.Manager's resolved (name,type) namespace
// as a live, read-only FUSE filesystem: "nwnc mount <dir>" (SPEC_FULL's
// internal/vfs). Adapted from the teacher's internal/fuse, which serves a
// union of squashfs package trees through jacobsa/fuse the same way this
// package serves the resource manager's already-shadow-resolved entries —
// one flat directory of <name>.<ext> files, each lazily demanded from the
// manager on first read and released when the kernel closes it.
package vfs

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"golang.org/x/xerrors"

	"github.com/nwncomm/nwnc/internal/resource"
)

const rootInode = fuseops.RootInodeID

// ExtensionTable maps a resource.Type to its file extension for display
// names, the same lookup the manager itself uses for temp-file naming.
type ExtensionTable = resource.ExtensionTable

type dirent struct {
	name   string
	inode  fuseops.InodeID
	typ    resource.Type
	fileID uint32
}

// FS implements fuseutil.FileSystem over a resource.Manager snapshot taken
// at Mount time; the manager is not re-indexed while mounted.
type FS struct {
	fuseutil.NotImplementedFileSystem

	mgr *resource.Manager
	ext ExtensionTable

	mu      sync.Mutex
	entries []*dirent
	byName  map[string]*dirent
	byInode map[fuseops.InodeID]*dirent

	openMu sync.Mutex
	open   map[fuseops.HandleID]*openFile
	nextH  fuseops.HandleID
}

type openFile struct {
	path string
	f    *os.File
	name resource.Name
	typ  resource.Type
}

// New builds a filesystem view over every entry mgr currently has
// indexed, named by ext's extension table.
func New(mgr *resource.Manager, ext ExtensionTable, names []resource.Name, typesOf func(resource.Name) []resource.Type) *FS {
	fs := &FS{
		mgr:     mgr,
		ext:     ext,
		byName:  make(map[string]*dirent),
		byInode: make(map[fuseops.InodeID]*dirent),
		open:    make(map[fuseops.HandleID]*openFile),
	}
	next := fuseops.InodeID(rootInode + 1)
	for _, n := range names {
		for _, t := range typesOf(n) {
			d := &dirent{name: n.String() + "." + ext.Ext(t), typ: t, inode: next}
			fs.entries = append(fs.entries, d)
			fs.byName[d.name] = d
			fs.byInode[d.inode] = d
			next++
		}
	}
	sort.Slice(fs.entries, func(i, j int) bool { return fs.entries[i].name < fs.entries[j].name })
	return fs
}

func (fs *FS) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	return nil
}

func (fs *FS) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	if op.Parent != rootInode {
		return fuse.ENOENT
	}
	fs.mu.Lock()
	d, ok := fs.byName[op.Name]
	fs.mu.Unlock()
	if !ok {
		return fuse.ENOENT
	}
	op.Entry.Child = d.inode
	op.Entry.Attributes = fs.attrsFor(d)
	return nil
}

func (fs *FS) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	if op.Inode == rootInode {
		op.Attributes = fuseops.InodeAttributes{
			Nlink: 2,
			Mode:  os.ModeDir | 0555,
		}
		return nil
	}
	fs.mu.Lock()
	d, ok := fs.byInode[op.Inode]
	fs.mu.Unlock()
	if !ok {
		return fuse.ENOENT
	}
	op.Attributes = fs.attrsFor(d)
	return nil
}

func (fs *FS) attrsFor(d *dirent) fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Nlink: 1,
		Mode:  0444,
		Atime: time.Now(),
		Mtime: time.Now(),
		Ctime: time.Now(),
	}
}

func (fs *FS) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	if op.Inode != rootInode {
		return fuse.ENOENT
	}
	return nil
}

func (fs *FS) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	if op.Inode != rootInode {
		return fuse.ENOENT
	}
	fs.mu.Lock()
	entries := fs.entries
	fs.mu.Unlock()

	if int(op.Offset) >= len(entries) {
		return nil
	}
	for _, d := range entries[op.Offset:] {
		de := fuseutil.Dirent{
			Offset: op.Offset + 1,
			Inode:  d.inode,
			Name:   d.name,
			Type:   fuseutil.DT_File,
		}
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], de)
		if n == 0 {
			break
		}
		op.BytesRead += n
		op.Offset++
	}
	return nil
}

func (fs *FS) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	fs.mu.Lock()
	d, ok := fs.byInode[op.Inode]
	fs.mu.Unlock()
	if !ok {
		return fuse.ENOENT
	}
	name := resource.Name(strings.TrimSuffix(d.name, "."+fs.ext.Ext(d.typ)))
	path, err := fs.mgr.Demand(name, d.typ)
	if err != nil {
		return xerrors.Errorf("vfs: demand %s: %w", d.name, err)
	}
	f, err := os.Open(path)
	if err != nil {
		fs.mgr.Release(name, d.typ)
		return xerrors.Errorf("vfs: open %s: %w", path, err)
	}
	fs.openMu.Lock()
	fs.nextH++
	h := fs.nextH
	fs.open[h] = &openFile{path: path, f: f, name: name, typ: d.typ}
	fs.openMu.Unlock()
	op.Handle = h
	op.KeepPageCache = true
	return nil
}

func (fs *FS) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	fs.openMu.Lock()
	of, ok := fs.open[op.Handle]
	fs.openMu.Unlock()
	if !ok {
		return fuse.EIO
	}
	n, err := of.f.ReadAt(op.Dst, op.Offset)
	op.BytesRead = n
	if err != nil && err.Error() != "EOF" {
		return err
	}
	return nil
}

func (fs *FS) ReleaseFileHandle(ctx context.Context, op *fuseops.ReleaseFileHandleOp) error {
	fs.openMu.Lock()
	of, ok := fs.open[op.Handle]
	delete(fs.open, op.Handle)
	fs.openMu.Unlock()
	if !ok {
		return nil
	}
	of.f.Close()
	return fs.mgr.Release(of.name, of.typ)
}

// Mount mounts fs read-only at mountpoint, blocking until it is unmounted
// (matching the teacher's own blocking fuse.Mount/Join pairing in
// cmd/distri/fuse.go, the counterpart this package's caller adapts).
func Mount(ctx context.Context, mountpoint string, fs *FS) error {
	server := fuseutil.NewFileSystemServer(fs)
	mfs, err := fuse.Mount(mountpoint, server, &fuse.MountConfig{
		FSName:   "nwnc",
		ReadOnly: true,
	})
	if err != nil {
		return xerrors.Errorf("vfs: mount %s: %w", mountpoint, err)
	}
	return mfs.Join(ctx)
}
