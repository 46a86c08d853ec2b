package ncs

import (
	"context"
	"testing"

	"github.com/nwncomm/nwnc/internal/compiler"
)

type fakeCompiler struct {
	protos []compiler.ActionPrototype
}

func (f *fakeCompiler) Compile(ctx context.Context, req compiler.Request) (compiler.Result, error) {
	return compiler.Result{Code: compiler.Success}, nil
}

func (f *fakeCompiler) ActionPrototype(actionID int) (compiler.ActionPrototype, bool) {
	if actionID < 0 || actionID >= len(f.protos) {
		return compiler.ActionPrototype{}, false
	}
	return f.protos[actionID], true
}

type recordingAnalyzer struct {
	gotCode   *Container
	gotProtos []compiler.ActionPrototype
	err       error
}

func (a *recordingAnalyzer) Analyze(code *Container, symbols []byte, prototypes []compiler.ActionPrototype) error {
	a.gotCode = code
	a.gotProtos = prototypes
	return a.err
}

func TestVerifyThreadsPrototypesAndCode(t *testing.T) {
	c8 := &fakeCompiler{protos: []compiler.ActionPrototype{{Name: "Random"}, {Name: "PrintString"}}}
	az := &recordingAnalyzer{}
	bytecode := Write(&Container{Code: []byte{0xaa, 0xbb}})

	if err := Verify(az, c8, bytecode, nil); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(az.gotProtos) != 2 {
		t.Fatalf("len(gotProtos) = %d, want 2", len(az.gotProtos))
	}
	if string(az.gotCode.Code) != "\xaa\xbb" {
		t.Fatalf("gotCode.Code = %x", az.gotCode.Code)
	}
}

func TestVerifyPropagatesScriptError(t *testing.T) {
	c8 := &fakeCompiler{}
	az := &recordingAnalyzer{err: &ScriptError{ProgramCounter: 42, StackIndex: 3, Message: "stack underflow"}}
	bytecode := Write(&Container{Code: []byte{0x01}})

	err := Verify(az, c8, bytecode, nil)
	if err == nil {
		t.Fatal("Verify should propagate the analyzer's error")
	}
	if _, ok := err.(*ScriptError); !ok {
		t.Fatalf("error type = %T, want *ScriptError", err)
	}
}

func TestVerifyRejectsMalformedBytecode(t *testing.T) {
	c8 := &fakeCompiler{}
	az := &recordingAnalyzer{}
	if err := Verify(az, c8, []byte{0x00}, nil); err == nil {
		t.Fatal("Verify should fail to parse malformed bytecode")
	}
}
