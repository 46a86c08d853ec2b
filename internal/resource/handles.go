package resource

import "golang.org/x/xerrors"

// OpenFileByName implements spec §4.4's "handle interface": the manager
// resolves (name, type) through its own index and forwards the open to
// the winning provider, returning a manager-scoped Handle rather than the
// provider's own file-id.
func (m *Manager) OpenFileByName(name Name, typ Type) (Handle, error) {
	m.mu.Lock()
	entry, ok := m.index[key{typ: typ, name: name}]
	m.mu.Unlock()
	if !ok {
		return Invalid, xerrors.Errorf("%w: (%s, %d)", ErrNotFound, name, typ)
	}
	return m.openProviderFile(entry.provider, entry.fileID, typ)
}

// OpenFileByIndex opens the entry at index fileID of provider p, for
// callers enumerating a single provider's contents directly (spec §4.4's
// introspection helpers).
func (m *Manager) OpenFileByIndex(p Provider, fileID uint32) (Handle, error) {
	e, ok := p.EntryAt(int(fileID))
	if !ok {
		return Invalid, xerrors.Errorf("%w: no such file-id in provider", ErrNotFound)
	}
	return m.openProviderFile(p, fileID, e.Type)
}

func (m *Manager) openProviderFile(p Provider, fileID uint32, typ Type) (Handle, error) {
	stream, err := p.Open(fileID)
	if err != nil {
		return Invalid, xerrors.Errorf("%w: %v", ErrIO, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.allocHandle()
	if err != nil {
		stream.Close()
		return Invalid, err
	}
	m.handles[h] = &openHandle{provider: p, inner: fileID, typ: typ, stream: stream}
	return h, nil
}

// allocHandle returns the next unused handle, detecting the
// wrap-around-exhausted case described in spec §5 and returning Invalid
// if the entire handle space is in use. Callers must hold m.mu.
func (m *Manager) allocHandle() (Handle, error) {
	start := m.nextHandle
	for {
		m.nextHandle++
		if m.nextHandle == Invalid {
			m.nextHandle++
		}
		if _, taken := m.handles[m.nextHandle]; !taken {
			return m.nextHandle, nil
		}
		if m.nextHandle == start {
			return Invalid, xerrors.Errorf("%w: handle space exhausted", ErrProgramming)
		}
	}
}

// CloseFile closes a handle previously returned by OpenFileByName or
// OpenFileByIndex.
func (m *Manager) CloseFile(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	oh, ok := m.handles[h]
	if !ok {
		return xerrors.Errorf("%w: close of unknown handle", ErrProgramming)
	}
	delete(m.handles, h)
	return oh.stream.Close()
}

// ReadEncapsulated reads from an open handle's stream.
func (m *Manager) ReadEncapsulated(h Handle, p []byte) (int, error) {
	m.mu.Lock()
	oh, ok := m.handles[h]
	m.mu.Unlock()
	if !ok {
		return 0, xerrors.Errorf("%w: read of unknown handle", ErrProgramming)
	}
	return oh.stream.Read(p)
}

// GetEncapsulatedSize reports the handle's stream's full size, if known.
func (m *Manager) GetEncapsulatedSize(h Handle) (int64, error) {
	m.mu.Lock()
	oh, ok := m.handles[h]
	m.mu.Unlock()
	if !ok {
		return 0, xerrors.Errorf("%w: size of unknown handle", ErrProgramming)
	}
	return oh.stream.Size(), nil
}

// GetEncapsulatedType reports the handle's resource type.
func (m *Manager) GetEncapsulatedType(h Handle) (Type, error) {
	m.mu.Lock()
	oh, ok := m.handles[h]
	m.mu.Unlock()
	if !ok {
		return 0, xerrors.Errorf("%w: type of unknown handle", ErrProgramming)
	}
	return oh.typ, nil
}

// GetEncapsulatedEntry returns the i-th entry of p, for providers exposed
// for direct enumeration (the original's ListModuleAreas/ListModuleModels
// style tools; see DESIGN.md [RESOURCE]).
func (m *Manager) GetEncapsulatedEntry(p Provider, i int) (Entry, bool) {
	return p.EntryAt(i)
}

// GetEncapsulatedCount returns the number of resources p contains.
func (m *Manager) GetEncapsulatedCount(p Provider) int {
	return p.Count()
}
