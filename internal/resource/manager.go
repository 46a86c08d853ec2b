package resource

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/xerrors"
)

// talkCacheSize bounds the LRU backing the root cache of talk-string
// tables and tabular (2-column) lookups (spec §4.4), replacing the
// original's unbounded cache the way syncthing-syncthing bounds its own
// in-memory caches with the same library.
const talkCacheSize = 64

// demandedEntry is spec §3's "demanded resource" record.
type demandedEntry struct {
	path         string
	refcount     int
	deleteOnZero bool
}

// indexEntry is spec §3's "resource entry" record: a reference to the
// provider and file-id that won the shadowing resolution for one
// (name, type) key.
type indexEntry struct {
	provider Provider
	fileID   uint32
	tier     Tier
}

// openHandle is the manager's bookkeeping for one externally issued
// Handle, per spec §4.4's "handle interface".
type openHandle struct {
	provider Provider
	inner    uint32 // the provider-local file-id the handle streams
	typ      Type
	stream   ReadCloser
}

// Manager is the tiered, priority-resolved resource lookup and
// reference-counted extraction service described in spec §4.4. The core
// is single-threaded cooperative per spec §5: a Manager must not be
// called from multiple goroutines concurrently, except through Demand,
// which internally deduplicates concurrent calls for the same key.
type Manager struct {
	mu sync.Mutex

	providers [numTiers][]Provider
	index     map[key]indexEntry
	demanded  map[key]*demandedEntry

	handles    map[Handle]*openHandle
	nextHandle Handle

	talkCache *lru.Cache[string, []byte]

	dir *instanceDir

	group singleflight.Group

	// extFor maps a resource Type to the filename extension used when
	// naming demanded temp files ("<resref>.<ext>", spec §6 "Persisted
	// state"). Callers own the Type enumeration, so this is supplied at
	// construction rather than hardcoded; ExtensionTable below is the
	// default.
	extFor func(Type) string
}

// ExtensionTable adapts a name->extension table (as the driver's resource
// type registry would supply) into the function NewManager needs.
type ExtensionTable map[Type]string

// Ext returns the filename extension registered for typ, or its decimal
// type code if none was registered.
func (t ExtensionTable) Ext(typ Type) string {
	if e, ok := t[typ]; ok {
		return e
	}
	return fmt.Sprintf("%d", typ)
}

// NewManager constructs a Manager with its own process-private temp
// directory. Callers must Close it to release the directory and any
// live demanded copies. ext maps a resource Type to the filename
// extension used for demanded temp files; pass nil to fall back to the
// decimal type code.
func NewManager(ext ExtensionTable) (*Manager, error) {
	dir, err := newInstanceDir()
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, []byte](talkCacheSize)
	if err != nil {
		dir.Close()
		return nil, xerrors.Errorf("resource: create talk-string cache: %w", err)
	}
	return &Manager{
		index:     make(map[key]indexEntry),
		demanded:  make(map[key]*demandedEntry),
		handles:   make(map[Handle]*openHandle),
		talkCache: cache,
		dir:       dir,
		extFor:    ext.Ext,
	}, nil
}

// Close forcibly closes outstanding provider handles (logging each as a
// leak, per spec §5), removes demanded copies with delete-on-zero set,
// and removes the instance temp directory.
func (m *Manager) Close() error {
	m.mu.Lock()
	for h, oh := range m.handles {
		log.Printf("resource: closing leaked handle %d", h)
		oh.stream.Close()
		delete(m.handles, h)
	}
	for k, d := range m.demanded {
		if d.deleteOnZero {
			removeFile(d.path)
		}
		delete(m.demanded, k)
	}
	m.mu.Unlock()
	return m.dir.Close()
}

// RegisterProvider adds p to its tier's provider list. Providers
// registered later in the same tier shadow earlier ones (spec §5,
// ordering guarantee (a)); RebuildIndex must be called afterward to take
// the new registration into account.
func (m *Manager) RegisterProvider(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[p.Tier()] = append(m.providers[p.Tier()], p)
}

// RebuildIndex implements spec §4.4 step 8: for each tier in priority
// order, for each provider in reverse-registration order, for each
// contained file, if the (name,type) key is not yet claimed, claim it.
// This must be called after the provider set for a module load is fully
// assembled (spec §4.4 steps 2-7) and before any Demand/ResourceExists
// call.
func (m *Manager) RebuildIndex() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = make(map[key]indexEntry)
	for tier := Tier(0); tier < numTiers; tier++ {
		providers := m.providers[tier]
		for i := len(providers) - 1; i >= 0; i-- {
			p := providers[i]
			n := p.Count()
			for fi := 0; fi < n; fi++ {
				e, ok := p.EntryAt(fi)
				if !ok {
					continue
				}
				k := key{typ: e.Type, name: e.Name}
				if _, claimed := m.index[k]; claimed {
					continue
				}
				m.index[k] = indexEntry{provider: p, fileID: e.FileID, tier: tier}
			}
		}
	}
}

// ResourceExists consults only the index; it performs no I/O.
func (m *Manager) ResourceExists(name Name, typ Type) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.index[key{typ: typ, name: name}]
	return ok
}

// Demand resolves (name, type) to a filesystem-visible path, per spec
// §4.4's "Resource lookup". Concurrent Demand calls for the same key are
// deduplicated by an internal singleflight group (callers outside the
// single-threaded core may legitimately call concurrently, per spec §5).
func (m *Manager) Demand(name Name, typ Type) (string, error) {
	k := key{typ: typ, name: name}
	sfKey := fmt.Sprintf("%d\x00%s", typ, name)

	path, err, _ := m.group.Do(sfKey, func() (interface{}, error) {
		return m.demandLocked(k, name, typ)
	})
	if err != nil {
		return "", err
	}
	return path.(string), nil
}

func (m *Manager) demandLocked(k key, name Name, typ Type) (string, error) {
	m.mu.Lock()
	if d, ok := m.demanded[k]; ok {
		d.refcount++
		path := d.path
		m.mu.Unlock()
		return path, nil
	}
	entry, ok := m.index[k]
	m.mu.Unlock()
	if !ok {
		return "", xerrors.Errorf("%w: (%s, %d)", ErrNotFound, name, typ)
	}

	if entry.tier == TierDirectory {
		if p, ok := entry.provider.NativePath(entry.fileID); ok {
			m.mu.Lock()
			m.demanded[k] = &demandedEntry{path: p, refcount: 1, deleteOnZero: false}
			m.mu.Unlock()
			return p, nil
		}
	}

	path, err := m.extract(entry, name, typ)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.demanded[k] = &demandedEntry{path: path, refcount: 1, deleteOnZero: true}
	m.mu.Unlock()
	return path, nil
}

// extract opens a handle into the provider and streams the resource's
// bytes into a newly allocated temp file in 4096-byte chunks, per spec
// §4.4. On any failure the partially written file is removed and no
// provider handle is leaked.
func (m *Manager) extract(entry indexEntry, name Name, typ Type) (string, error) {
	stream, err := entry.provider.Open(entry.fileID)
	if err != nil {
		return "", xerrors.Errorf("%w: open resource in provider: %v", ErrIO, err)
	}
	defer stream.Close()

	f, err := m.dir.newTempFile(name, m.extFor(typ))
	if err != nil {
		return "", err
	}
	fn := f.Name()

	if size := stream.Size(); size > 0 {
		if err := f.Truncate(size); err != nil {
			f.Close()
			removeFile(fn)
			return "", xerrors.Errorf("%w: preallocate temp file: %v", ErrIO, err)
		}
	}

	buf := make([]byte, 4096)
	if _, err := io.CopyBuffer(f, stream, buf); err != nil {
		f.Close()
		removeFile(fn)
		return "", xerrors.Errorf("%w: extract resource: %v", ErrIO, err)
	}
	if err := f.Close(); err != nil {
		removeFile(fn)
		return "", xerrors.Errorf("%w: close temp file: %v", ErrIO, err)
	}
	return fn, nil
}

// Release decrements the refcount for path; on zero it deletes the temp
// file (if delete-on-zero) and removes the demanded-resource entry.
func (m *Manager) Release(name Name, typ Type) error {
	k := key{typ: typ, name: name}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.demanded[k]
	if !ok {
		return xerrors.Errorf("%w: release of resource not currently demanded", ErrProgramming)
	}
	d.refcount--
	if d.refcount > 0 {
		return nil
	}
	if d.refcount < 0 {
		return xerrors.Errorf("%w: double release", ErrProgramming)
	}
	if d.deleteOnZero {
		removeFile(d.path)
	}
	delete(m.demanded, k)
	return nil
}

func removeFile(path string) {
	_ = os.Remove(path)
}
