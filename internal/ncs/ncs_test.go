package ncs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteParseRoundTrip(t *testing.T) {
	c := &Container{Code: []byte{0x01, 0x02, 0x03, 0xff, 0x00}}
	buf := Write(c)

	got, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsWrongFileType(t *testing.T) {
	buf := Write(&Container{Code: []byte{0x00}})
	buf[0] = 'X'
	if _, err := Parse(buf); err == nil {
		t.Fatal("Parse should reject a non-NCS file type tag")
	}
}

func TestParseRejectsBadProgramSize(t *testing.T) {
	buf := Write(&Container{Code: []byte{0x00, 0x00}})
	buf[9] = 0xff // corrupt the size's high byte
	if _, err := Parse(buf); err == nil {
		t.Fatal("Parse should reject a mismatched program size")
	}
}

func TestParseRejectsTruncatedHeader(t *testing.T) {
	if _, err := Parse([]byte{0x4e, 0x43, 0x53}); err == nil {
		t.Fatal("Parse should reject a file shorter than the header")
	}
}
