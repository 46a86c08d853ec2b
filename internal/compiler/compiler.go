// Package compiler specifies the external compiler interface (spec §4.5,
// "C8"): a language-agnostic, callback-based contract between the driver
// (cmd/nwnc) and whatever front-end actually compiles NWScript source into
// bytecode. No compiler is implemented here — spec §1 marks NWScript
// grammar, the VM instruction set, and code generation as explicitly out
// of scope — this package only types the boundary, the way the teacher's
// pb package types the boundary between cmd/distri and its build workers
// without implementing either side.
package compiler

import "context"

// Flags is a bitfield of optional compiler behaviors (spec §4.5 "Flags").
type Flags uint32

const (
	ShowIncludeResolution Flags = 1 << iota
	ShowPreprocessed
	DumpInternalPCode
)

// ResultCode classifies a Compile outcome.
type ResultCode int

const (
	// Success means the returned Bytecode/Symbols are valid compiler
	// output.
	Success ResultCode = iota
	// IncludeOnly means the input had no executable entry point (it was
	// an include-style source); Bytecode/Symbols are empty, and this is
	// not an error — the driver moves on to the next input without
	// writing any artefact.
	IncludeOnly
	// Failure means diagnostics sent to the DiagnosticSink explain why
	// compilation did not succeed; the input counts as an error.
	Failure
)

// String renders a ResultCode for log/diagnostic text.
func (c ResultCode) String() string {
	switch c {
	case Success:
		return "success"
	case IncludeOnly:
		return "include-only"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// DiagnosticSink receives free-form diagnostic text from the compiler;
// the driver forwards it to the user-facing text-output interface
// (internal/diag.Sink), unmodified.
type DiagnosticSink func(text string)

// ResourceLoader lets a front-end resolve #include-style dependencies
// through a caller-supplied resolver instead of the driver's default
// resource manager (spec §4.5 "Resource callbacks"). Both halves are
// registered together or not at all: when set, the driver threads them
// through so include resolution is entirely indirectable.
type ResourceLoader struct {
	// Load returns the bytes of a named resource of the given type.
	Load func(resourceRef string, typ int) ([]byte, error)
	// Unload releases bytes previously returned by Load. Compilers that
	// keep no reference beyond the call to Load may treat this as a
	// no-op; it exists so a resource-manager-backed Load can release the
	// same scoped-demand handle it acquired.
	Unload func(b []byte)
}

// Request is one compile request (spec §4.5 "Request").
type Request struct {
	ResourceRef    string
	Source         []byte
	TargetVersion  int
	Optimize       bool
	IgnoreIncludes bool
	Diagnostics    DiagnosticSink
	Flags          Flags
	Resources      *ResourceLoader // nil uses the compiler's own default resolution
}

// Result is the outcome of a Compile call.
type Result struct {
	Code     ResultCode
	Bytecode []byte
	Symbols  []byte
}

// ActionPrototype describes one engine-intrinsic action function, as
// exposed by Compiler.ActionPrototype (spec §4.5 "introspection").
type ActionPrototype struct {
	Name       string
	ReturnType string
	MinParams  int
	MaxParams  int
	ParamTypes []string
}

// Compiler is the external compiler contract the driver depends on. A
// concrete front-end (not provided by this module) implements it; the
// driver only ever holds this interface.
type Compiler interface {
	// Compile runs one compile request. Implementations must be safe to
	// call sequentially for independent requests; the driver never calls
	// Compile concurrently for the same Compiler (spec §5: "one
	// compilation... at a time").
	Compile(ctx context.Context, req Request) (Result, error)

	// ActionPrototype returns the prototype for actionID, or ok=false once
	// actionID runs past the end of the engine's action table. The driver
	// enumerates by calling with 0, 1, 2, ... until ok is false.
	ActionPrototype(actionID int) (proto ActionPrototype, ok bool)
}
