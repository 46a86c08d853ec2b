package resource

// Demanded is the scoped-acquisition helper from spec §5: construction
// demands a resource, destruction (Close) releases it. A copy re-demands
// (acquires an additional refcount) rather than sharing the original's
// lifetime — callers that need move semantics should simply stop using
// the original after copying, as Go has no implicit copy-on-assign for
// structs passed by value across goroutines to guard against here; the
// explicit Close contract takes the place of a destructor.
type Demanded struct {
	mgr  *Manager
	name Name
	typ  Type
	path string
}

// NewDemanded constructs a Demanded, acquiring one reference on (name, typ).
func (m *Manager) NewDemanded(name Name, typ Type) (*Demanded, error) {
	path, err := m.Demand(name, typ)
	if err != nil {
		return nil, err
	}
	return &Demanded{mgr: m, name: name, typ: typ, path: path}, nil
}

// Path returns the demanded resource's filesystem-visible path.
func (d *Demanded) Path() string { return d.path }

// Redemand acquires an additional reference, mirroring the original's
// copy-re-demands semantics; the returned value must be Closed
// independently of d.
func (d *Demanded) Redemand() (*Demanded, error) {
	return d.mgr.NewDemanded(d.name, d.typ)
}

// Close releases the reference acquired by NewDemanded or Redemand.
func (d *Demanded) Close() error {
	return d.mgr.Release(d.name, d.typ)
}
