package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestStdSinkFormatsLabelsAndPrefix(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdSink(&buf, nil)
	s.Prefix = "foo.nss"
	s.Errorf("unexpected token %q", ";")
	s.Warnf("unreachable code")
	s.Printf("compiling...")

	out := buf.String()
	for _, want := range []string{
		"foo.nss: Error: unexpected token \";\"",
		"foo.nss: WARNING: unreachable code",
		"foo.nss: compiling...",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestStdSinkMirrorsToLogFile(t *testing.T) {
	var stdout, logFile bytes.Buffer
	s := NewStdSink(&stdout, &logFile)
	s.Errorf("boom")
	if !strings.Contains(logFile.String(), "Error: boom") {
		t.Fatalf("log file = %q, want it to contain the emitted line", logFile.String())
	}
}

func TestNullSinkDiscardsEverything(t *testing.T) {
	var s Sink = NullSink{}
	s.Errorf("%s", "should not panic")
	s.Warnf("%s", "should not panic")
	s.Printf("%s", "should not panic")
}
