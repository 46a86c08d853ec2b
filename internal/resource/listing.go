package resource

import "golang.org/x/exp/slices"

// ListByType returns every indexed resource name carrying typ, sorted for
// deterministic output. Grounded on the walking pattern shared by
// original_source/ListModuleAreas and ListModuleModels — both enumerate
// the resource manager for all entries of one type (ARE/MDB respectively)
// before inspecting each one further; the manager's own responsibility
// stops at that enumeration, the per-resource inspection those two tools
// perform is layered on top of gff.Reader and out of this package's
// scope.
func (m *Manager) ListByType(typ Type) []Name {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Name
	for k := range m.index {
		if k.typ == typ {
			out = append(out, k.name)
		}
	}
	slices.SortFunc(out, func(a, b Name) bool { return a < b })
	return out
}

// AllNames returns every distinct resource name currently indexed,
// sorted and de-duplicated (a name may carry more than one type, e.g. a
// RESREF shared between an ".utc" blueprint and a ".git" instance).
// Used by internal/vfs to build its flat mount-point directory listing.
func (m *Manager) AllNames() []Name {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[Name]bool, len(m.index))
	var out []Name
	for k := range m.index {
		if !seen[k.name] {
			seen[k.name] = true
			out = append(out, k.name)
		}
	}
	slices.SortFunc(out, func(a, b Name) bool { return a < b })
	return out
}

// TypesFor returns every type name carries in the current index, sorted.
func (m *Manager) TypesFor(name Name) []Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Type
	for k := range m.index {
		if k.name == name {
			out = append(out, k.typ)
		}
	}
	slices.SortFunc(out, func(a, b Type) bool { return a < b })
	return out
}
