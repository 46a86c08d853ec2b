package resource

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"
)

// DirectoryProvider indexes a flat directory of loose "<resref>.<ext>"
// files (an unpacked module directory, a HAK's matching override folder,
// or the built-in "pwc"/"override" directories spec §4.4 step 4
// registers from both home and install), resolving each member's
// extension to a Type via a caller-supplied table the way the archive
// providers resolve a stored resource-id's type field.
type DirectoryProvider struct {
	root    string
	typeOf  func(ext string) (Type, bool)
	entries []Entry
	paths   []string // parallel to entries, by FileID
}

// OpenDirectory walks root non-recursively (the original module/override
// directories are flat) and indexes every member whose extension maps to
// a known Type and whose stem is a legal resource Name.
func OpenDirectory(root string, typeOf func(ext string) (Type, bool)) (*DirectoryProvider, error) {
	ents, err := os.ReadDir(root)
	if err != nil {
		return nil, xerrors.Errorf("%w: read directory %s: %v", ErrIO, root, err)
	}
	// Sort for deterministic enumeration order, per spec §5 ordering
	// guarantee (b)'s sibling requirement for directory listings.
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	slices.SortFunc(names, func(a, b string) bool { return a < b })

	p := &DirectoryProvider{root: root, typeOf: typeOf}
	for _, fn := range names {
		ext := strings.TrimPrefix(filepath.Ext(fn), ".")
		stem := strings.TrimSuffix(fn, filepath.Ext(fn))
		typ, ok := typeOf(strings.ToLower(ext))
		if !ok {
			continue
		}
		name, err := NewName(stem)
		if err != nil {
			continue
		}
		p.entries = append(p.entries, Entry{FileID: uint32(len(p.paths)), Name: name, Type: typ})
		p.paths = append(p.paths, filepath.Join(root, fn))
	}
	return p, nil
}

func (p *DirectoryProvider) Tier() Tier { return TierDirectory }

func (p *DirectoryProvider) Count() int { return len(p.entries) }

func (p *DirectoryProvider) EntryAt(i int) (Entry, bool) {
	if i < 0 || i >= len(p.entries) {
		return Entry{}, false
	}
	return p.entries[i], true
}

// NativePath returns the on-disk path directly: directory-backed
// resources need no extraction, per spec §4.4's "Resource lookup".
func (p *DirectoryProvider) NativePath(fileID uint32) (string, bool) {
	if int(fileID) >= len(p.paths) {
		return "", false
	}
	return p.paths[fileID], true
}

// Open is only reached by a caller that bypasses NativePath (e.g. a
// caller-supplied first/last-chance accessor layered over this
// provider); Demand itself never calls it for directory-tier entries.
func (p *DirectoryProvider) Open(fileID uint32) (ReadCloser, error) {
	path, ok := p.NativePath(fileID)
	if !ok {
		return nil, xerrors.Errorf("%w: file-id %d out of range", ErrNotFound, fileID)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, xerrors.Errorf("%w: stat %s: %v", ErrIO, path, err)
	}
	return &directoryStream{f: f, size: fi.Size()}, nil
}

type directoryStream struct {
	f    *os.File
	size int64
}

func (s *directoryStream) Read(p []byte) (int, error) { return s.f.Read(p) }
func (s *directoryStream) Close() error                { return s.f.Close() }
func (s *directoryStream) Size() int64                 { return s.size }

var _ Provider = (*DirectoryProvider)(nil)
