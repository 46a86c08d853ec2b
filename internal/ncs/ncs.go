// Package ncs frames the compiled-bytecode container the driver writes
// and re-reads for C9 verification (spec §4.5 "<output-base>.ncs" /
// §4.6 "re-opens the just-written bytecode"). The VM instruction set
// itself is explicitly out of scope (spec §1 Non-goals), so this package
// only handles the container framing — a small fixed header, carrying the
// total file size, followed by an opaque code blob — and the C9 hand-off contract to an
// external analyzer, the same "type the boundary, don't implement either
// side" posture internal/compiler takes for C8.
package ncs

import (
	"github.com/nwncomm/nwnc/internal/bytestream"
	"golang.org/x/xerrors"
)

// FileType/Version are the fixed ASCII tags every container carries,
// matching the well-known NWScript bytecode container signature.
const (
	FileType = "NCS "
	Version  = "V1.0"

	// programOpcode marks the single top-level "program size" pseudo-
	// instruction that immediately follows the header: one opcode byte
	// followed by a big-endian uint32 total file size.
	programOpcode = 0x42
)

// Container is a parsed bytecode file: the fixed header plus the raw
// code blob that follows the program-size marker. Code is opaque to this
// package — instruction decoding belongs to the compiler/analyzer, not
// the driver.
type Container struct {
	Code []byte
}

// Parse validates buf's header and program-size marker and returns the
// code that follows. Unlike internal/gff/internal/erf, a malformed
// bytecode container is always a hard failure: there is no shadowing
// provider to fall back to, and §4.6 treats a verification input that
// doesn't even parse as a reportable failure, not a skip.
func Parse(buf []byte) (*Container, error) {
	if len(buf) < 13 {
		return nil, xerrors.Errorf("ncs: file shorter than header")
	}
	br := bytestream.NewReader(buf)
	ft, err := br.ReadExact(4)
	if err != nil {
		return nil, err
	}
	if string(ft) != FileType {
		return nil, xerrors.Errorf("ncs: unexpected file type %q, want %q", ft, FileType)
	}
	ver, err := br.ReadExact(4)
	if err != nil {
		return nil, err
	}
	if string(ver) != Version {
		return nil, xerrors.Errorf("ncs: unsupported version %q, want %q", ver, Version)
	}
	op, err := br.ReadU8()
	if err != nil {
		return nil, err
	}
	if op != programOpcode {
		return nil, xerrors.Errorf("ncs: missing program-size marker (got opcode 0x%02x)", op)
	}
	// The program-size field is big-endian, unlike every other scalar in
	// this toolchain's formats — the VM's own byte order, carried
	// verbatim from the well-known container layout.
	sizeBytes, err := br.ReadExact(4)
	if err != nil {
		return nil, err
	}
	size := uint32(sizeBytes[0])<<24 | uint32(sizeBytes[1])<<16 | uint32(sizeBytes[2])<<8 | uint32(sizeBytes[3])
	if int(size) != len(buf) {
		return nil, xerrors.Errorf("ncs: program size %d does not match file length %d", size, len(buf))
	}
	code, err := br.ReadExact(br.Remaining())
	if err != nil {
		return nil, err
	}
	return &Container{Code: code}, nil
}

// Write re-assembles a Container into its on-disk framing.
func Write(c *Container) []byte {
	total := 13 + len(c.Code)
	w := bytestream.NewWriter()
	w.WriteBytes([]byte(FileType))
	w.WriteBytes([]byte(Version))
	w.WriteU8(programOpcode)
	w.WriteBytes([]byte{
		byte(total >> 24), byte(total >> 16), byte(total >> 8), byte(total),
	})
	w.WriteBytes(c.Code)
	return w.Bytes()
}
