// Package resource implements the priority-ordered, multi-provider virtual
// filesystem described in spec §4.4: a tiered stack of resource providers
// (archives, directories, zip packs, keyed-bif packs, and caller-supplied
// first/last-chance accessors) unified behind one `(name, type)` lookup and
// a reference-counted "demand" extraction to a process-private temp
// directory.
package resource

import "golang.org/x/xerrors"

// Type is the closed 16-bit resource-content-kind enumeration (source,
// bytecode, symbols, dialog, template, area, …). The concrete ordinals are
// assigned by the caller's resource-type table; this package treats Type
// as an opaque comparison key.
type Type uint16

// Tier is the provider search-priority class. Search proceeds in
// ascending Tier order; within one Tier, later-registered providers
// shadow earlier ones.
type Tier int

const (
	TierCustomFirst Tier = iota // user first-chance accessors
	TierEncapsulated32
	TierEncapsulated16
	TierDirectory
	TierZip
	TierKeyBif
	TierCustomLast // user last-chance accessors

	numTiers
)

// Entry describes one resource contained in a Provider, addressed by the
// provider's own monotonic file-id.
type Entry struct {
	FileID uint32
	Name   Name
	Type   Type
}

// Provider is the unified capability set behind every concrete resource
// source (archive, directory, zip, keyed-bif, or a caller-supplied
// accessor): open-by-name, open-by-index, close, read, size, type,
// enumerate, count — design note §9's "tagged variant plus dispatch
// table", expressed here as a plain interface instead.
type Provider interface {
	// Tier reports the provider's fixed search-priority class.
	Tier() Tier

	// Count returns the number of resources the provider contains.
	Count() int

	// EntryAt returns the i-th contained resource, in provider-native
	// enumeration order.
	EntryAt(i int) (Entry, bool)

	// Open returns a reader over the full contents of the resource with
	// the given file-id. The caller must Close it.
	Open(fileID uint32) (ReadCloser, error)

	// NativePath returns the provider's own filesystem path for the
	// resource, when the provider is directory-backed and no extraction
	// is required. ok is false for archive-backed providers.
	NativePath(fileID uint32) (path string, ok bool)
}

// ReadCloser is the stream returned by Provider.Open. Size, when known
// without reading the whole stream, avoids an extra pass when demand()
// pre-allocates the temp file; providers that cannot report it cheaply
// return -1.
type ReadCloser interface {
	Read(p []byte) (int, error)
	Close() error
	Size() int64
}

// Handle is an opaque manager-assigned identifier for an open provider
// stream, per spec §4.4's "handle interface" and §5's wrap-around-checked
// monotonic allocator.
type Handle uint32

// Invalid is the reserved sentinel handle value, never returned by a
// successful open.
const Invalid Handle = 0

// Error categories, per spec §7.
var (
	// ErrMalformed covers structured-container parse failures and truncated
	// bytecode.
	ErrMalformed = xerrors.New("resource: malformed input")

	// ErrIO covers file open/read/write/seek/temp-dir failures.
	ErrIO = xerrors.New("resource: I/O failure")

	// ErrNotFound is raised by Demand when the index lookup fails.
	ErrNotFound = xerrors.New("resource: not found")

	// ErrProgramming covers use of a closed handle, double-release, and
	// other caller contract violations; never recovered from internally.
	ErrProgramming = xerrors.New("resource: programming violation")

	// ErrIllegalName is raised by name normalization on path-traversal
	// characters or a reserved DOS device name.
	ErrIllegalName = xerrors.New("resource: illegal name")
)
