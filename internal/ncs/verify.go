package ncs

import (
	"golang.org/x/xerrors"

	"github.com/nwncomm/nwnc/internal/compiler"
)

// ScriptError is the domain-specific exception spec §4.6 calls out by
// name ("script_error carrying a program counter and stack index"),
// surfaced here as a plain Go error so the driver can report it without
// the analyzer needing to panic/recover across a package boundary.
type ScriptError struct {
	ProgramCounter int
	StackIndex     int
	Message        string
}

func (e *ScriptError) Error() string {
	return xerrors.Errorf("script error at pc=%d stack=%d: %s", e.ProgramCounter, e.StackIndex, e.Message).Error()
}

// Analyzer is the external bytecode analyzer C9 hands verification off
// to. Like compiler.Compiler, no implementation lives in this module —
// spec §4.6 says "the analyzer itself is not specified here" — this only
// types the boundary.
type Analyzer interface {
	// Analyze verifies code against the supplied engine-intrinsic action
	// prototype table. A *ScriptError return is a caught, reportable
	// verification failure, not a programming error in the driver.
	Analyze(code *Container, symbols []byte, prototypes []compiler.ActionPrototype) error
}

// Verify re-opens a just-written bytecode file (and its optional symbol
// file), builds the action-prototype table by walking c8's introspection
// API, and hands everything to az — the C9 hookup of spec §4.6. A
// returned error (including a *ScriptError) is reportable but, per §4.6,
// never itself aborts a batch; the caller decides whether stop-on-first-
// error applies.
func Verify(az Analyzer, c8 compiler.Compiler, bytecode, symbols []byte) error {
	container, err := Parse(bytecode)
	if err != nil {
		return xerrors.Errorf("ncs: verify: %w", err)
	}

	var protos []compiler.ActionPrototype
	for i := 0; ; i++ {
		p, ok := c8.ActionPrototype(i)
		if !ok {
			break
		}
		protos = append(protos, p)
	}

	if err := az.Analyze(container, symbols, protos); err != nil {
		return err
	}
	return nil
}
