package gff

import (
	"os"

	"github.com/nwncomm/nwnc/internal/bytestream"
	"golang.org/x/xerrors"
)

// Reader is a lazy, random-access parser over a structured-container file.
// The constructor validates the header and the §3 invariants; every other
// accessor seeks to an absolute offset on each call rather than building an
// in-memory tree.
type Reader struct {
	buf      []byte
	header   FileHeader
	root     structEntry
	language Language
	talk     TalkStringSource
}

// TalkStringSource resolves a talk-table STRREF to text for a CExoLocString
// field that has no substring matching the reader's configured language.
// External to this package per spec §6; nil disables the fallback.
type TalkStringSource interface {
	TalkString(strRef uint32) (string, bool)
}

// Open reads the whole file at path and constructs a Reader over it.
func Open(path string) (*Reader, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("gff: open %s: %w", path, err)
	}
	return NewReader(b)
}

// NewReader constructs a Reader over an owned in-memory buffer.
func NewReader(buf []byte) (*Reader, error) {
	r := &Reader{buf: buf, language: LangEnglish}
	if err := r.parse(); err != nil {
		return nil, xerrors.Errorf("%w: %v", ErrParse, err)
	}
	return r, nil
}

// SetDefaultLanguage configures the language used when resolving
// CExoLocString fields.
func (r *Reader) SetDefaultLanguage(lang Language) { r.language = lang }

// DefaultLanguage returns the configured localization language.
func (r *Reader) DefaultLanguage() Language { return r.language }

// SetTalkStringSource installs the STRREF resolver used as the final
// fallback in GetLocString.
func (r *Reader) SetTalkStringSource(src TalkStringSource) { r.talk = src }

// FileType returns the four-character file type tag from the header.
func (r *Reader) FileType() [4]byte { return r.header.FileType }

func (r *Reader) parse() error {
	br := bytestream.NewReader(r.buf)

	readU32 := func() (uint32, error) { return br.ReadU32() }

	var h FileHeader
	var err error
	if n, e := br.ReadExact(4); e != nil {
		return e
	} else {
		copy(h.FileType[:], n)
	}
	if n, e := br.ReadExact(4); e != nil {
		return e
	} else {
		copy(h.FileVersion[:], n)
	}
	fields := []*uint32{
		&h.StructOffset, &h.StructCount,
		&h.FieldOffset, &h.FieldCount,
		&h.LabelOffset, &h.LabelCount,
		&h.FieldDataOffset, &h.FieldDataByteCount,
		&h.FieldIndicesOffset, &h.FieldIndicesByteCount,
		&h.ListIndicesOffset, &h.ListIndicesByteCount,
	}
	for _, f := range fields {
		if *f, err = readU32(); err != nil {
			return err
		}
	}
	if string(h.FileVersion[:]) != Version {
		return xerrors.Errorf("gff: unsupported version %q", h.FileVersion[:])
	}

	size := uint64(len(r.buf))
	checkRegion := func(off, count uint64) error {
		if off > size || count > size || off+count > size {
			return xerrors.New("gff: section out of bounds")
		}
		return nil
	}
	if err := checkRegion(uint64(h.StructOffset), uint64(h.StructCount)*structEntrySize); err != nil {
		return err
	}
	if err := checkRegion(uint64(h.FieldOffset), uint64(h.FieldCount)*fieldEntrySize); err != nil {
		return err
	}
	if err := checkRegion(uint64(h.LabelOffset), uint64(h.LabelCount)*labelSize); err != nil {
		return err
	}
	if err := checkRegion(uint64(h.FieldDataOffset), uint64(h.FieldDataByteCount)); err != nil {
		return err
	}
	if h.FieldIndicesByteCount%4 != 0 {
		return xerrors.New("gff: field indices byte count not a multiple of 4")
	}
	if err := checkRegion(uint64(h.FieldIndicesOffset), uint64(h.FieldIndicesByteCount)); err != nil {
		return err
	}
	if err := checkRegion(uint64(h.ListIndicesOffset), uint64(h.ListIndicesByteCount)); err != nil {
		return err
	}
	if h.StructCount == 0 {
		return xerrors.New("gff: no struct 0")
	}

	r.header = h

	root, err := r.structByIndex(0)
	if err != nil {
		return err
	}
	if root.StructType != RootStructType {
		return xerrors.New("gff: struct 0 is not the root sentinel type")
	}
	if root.FieldCount > 1 {
		if uint64(root.DataOrOffset)*4+uint64(root.FieldCount)*4 > uint64(h.FieldIndicesByteCount) {
			return xerrors.New("gff: root struct field index range out of bounds")
		}
	}
	r.root = root
	return nil
}

func (r *Reader) structByIndex(idx uint32) (structEntry, error) {
	if uint64(idx) >= uint64(r.header.StructCount) {
		return structEntry{}, xerrors.New("gff: illegal struct index")
	}
	off := uint64(idx)*structEntrySize + uint64(r.header.StructOffset)
	br := bytestream.NewReader(r.buf)
	if err := br.SeekAbsolute(int(off)); err != nil {
		return structEntry{}, err
	}
	var e structEntry
	var err error
	if e.StructType, err = br.ReadU32(); err != nil {
		return structEntry{}, err
	}
	if e.DataOrOffset, err = br.ReadU32(); err != nil {
		return structEntry{}, err
	}
	if e.FieldCount, err = br.ReadU32(); err != nil {
		return structEntry{}, err
	}
	return e, nil
}

func (r *Reader) fieldByIndex(idx uint32) (fieldEntry, bool) {
	if uint64(idx) >= uint64(r.header.FieldCount) {
		return fieldEntry{}, false
	}
	off := uint64(idx)*fieldEntrySize + uint64(r.header.FieldOffset)
	br := bytestream.NewReader(r.buf)
	if err := br.SeekAbsolute(int(off)); err != nil {
		return fieldEntry{}, false
	}
	var e fieldEntry
	var err error
	if e.Type, err = br.ReadU32(); err != nil {
		return fieldEntry{}, false
	}
	if e.LabelIndex, err = br.ReadU32(); err != nil {
		return fieldEntry{}, false
	}
	if e.DataOrOffset, err = br.ReadU32(); err != nil {
		return fieldEntry{}, false
	}
	return e, true
}

func (r *Reader) labelByIndex(idx uint32) (Label, bool) {
	if uint64(idx) >= uint64(r.header.LabelCount) {
		return Label{}, false
	}
	off := uint64(idx)*labelSize + uint64(r.header.LabelOffset)
	br := bytestream.NewReader(r.buf)
	if err := br.SeekAbsolute(int(off)); err != nil {
		return Label{}, false
	}
	b, err := br.ReadExact(labelSize)
	if err != nil {
		return Label{}, false
	}
	var l Label
	copy(l[:], b)
	return l, true
}

// fieldIndexInStruct resolves the Index-th field index belonging to s,
// reading through the field-indices section when s has more than one
// field, or treating DataOrOffset as the direct field index otherwise.
func (r *Reader) fieldIndexInStruct(s structEntry, index uint32) (uint32, bool) {
	if index >= s.FieldCount {
		return 0, false
	}
	if s.FieldCount == 1 {
		return s.DataOrOffset, true
	}
	off := uint64(index)*4 + uint64(s.DataOrOffset)
	if off+4 > uint64(r.header.FieldIndicesByteCount) {
		return 0, false
	}
	br := bytestream.NewReader(r.buf)
	if err := br.SeekAbsolute(int(uint64(r.header.FieldIndicesOffset) + off)); err != nil {
		return 0, false
	}
	v, err := br.ReadU32()
	if err != nil {
		return 0, false
	}
	return v, true
}

// getFieldByIndex returns the Index-th field belonging to struct s (not a
// global field-table index — the struct-local ordinal), matching
// GetFieldByIndex(Struct, FieldIndex) in the original reader.
func (r *Reader) getFieldByIndex(s structEntry, index uint32) (fieldEntry, bool) {
	fi, ok := r.fieldIndexInStruct(s, index)
	if !ok {
		return fieldEntry{}, false
	}
	return r.fieldByIndex(fi)
}

func (r *Reader) compareFieldName(fe fieldEntry, name string) bool {
	lbl, ok := r.labelByIndex(fe.LabelIndex)
	if !ok {
		return false
	}
	return lbl == NewLabel(name)
}

// getFieldByName performs a linear scan of s's field list. When s has
// exactly one field, the struct's DataOrOffset is already the field's
// struct-local index, so no field-indices read is needed — the
// single-field fast path mirrored from GetFieldByName.
func (r *Reader) getFieldByName(s structEntry, name string) (fieldEntry, bool) {
	if s.FieldCount == 1 {
		fe, ok := r.fieldByIndex(s.DataOrOffset)
		if !ok {
			return fieldEntry{}, false
		}
		return fe, r.compareFieldName(fe, name)
	}
	for i := uint32(0); i < s.FieldCount; i++ {
		fe, ok := r.getFieldByIndex(s, i)
		if !ok {
			return fieldEntry{}, false
		}
		if r.compareFieldName(fe, name) {
			return fe, true
		}
	}
	return fieldEntry{}, false
}

func (r *Reader) readFieldData(off uint32, n int) ([]byte, bool) {
	if uint64(off) > uint64(r.header.FieldDataByteCount) {
		return nil, false
	}
	base := uint64(off) + uint64(r.header.FieldDataOffset)
	br := bytestream.NewReader(r.buf)
	if err := br.SeekAbsolute(int(base)); err != nil {
		return nil, false
	}
	b, err := br.ReadExact(n)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *Reader) validateFieldDataRange(off uint32, length uint64) bool {
	end := uint64(off) + length
	if end < length { // overflow
		return false
	}
	return end <= uint64(r.header.FieldDataByteCount)
}

func (r *Reader) readListIndices(off uint32, n int) ([]byte, bool) {
	if uint64(off) > uint64(r.header.ListIndicesByteCount) {
		return nil, false
	}
	base := uint64(off) + uint64(r.header.ListIndicesOffset)
	br := bytestream.NewReader(r.buf)
	if err := br.SeekAbsolute(int(base)); err != nil {
		return nil, false
	}
	b, err := br.ReadExact(n)
	if err != nil {
		return nil, false
	}
	return b, true
}

// Struct is a handle to one struct record. It is a thin, copyable
// reference into the owning Reader; all accessors re-seek on every call.
type Struct struct {
	r     *Reader
	entry structEntry
}

// RootStruct returns a handle to struct 0.
func (r *Reader) RootStruct() Struct {
	return Struct{r: r, entry: r.root}
}

// FieldCount returns the number of fields directly attached to s.
func (s Struct) FieldCount() int { return int(s.entry.FieldCount) }

// StructType returns the caller-defined struct type tag (not to be
// confused with the field type enumeration).
func (s Struct) StructType() uint32 { return s.entry.StructType }

// FieldByName performs a linear scan over s's fields, comparing the
// 16-byte zero-padded name. ok is false if no field matches.
func (s Struct) FieldByName(name string) (fieldDescriptor, bool) {
	fe, ok := s.r.getFieldByName(s.entry, name)
	if !ok {
		return fieldDescriptor{}, false
	}
	return fieldDescriptor{r: s.r, entry: fe}, true
}

// FieldByIndex returns the i-th field attached to s, in struct-local
// order.
func (s Struct) FieldByIndex(i int) (fieldDescriptor, bool) {
	if i < 0 {
		return fieldDescriptor{}, false
	}
	fe, ok := s.r.getFieldByIndex(s.entry, uint32(i))
	if !ok {
		return fieldDescriptor{}, false
	}
	return fieldDescriptor{r: s.r, entry: fe}, true
}

// FieldType returns the type of the i-th field, or ok=false if no such
// field exists.
func (s Struct) FieldType(i int) (FieldType, bool) {
	fd, ok := s.FieldByIndex(i)
	if !ok {
		return 0, false
	}
	return fd.Type(), true
}

// FieldName returns the label of the i-th field.
func (s Struct) FieldName(i int) (string, bool) {
	fd, ok := s.FieldByIndex(i)
	if !ok {
		return "", false
	}
	lbl, ok := s.r.labelByIndex(fd.entry.LabelIndex)
	if !ok {
		return "", false
	}
	return lbl.String(), true
}

// fieldDescriptor is a handle to a single field record.
type fieldDescriptor struct {
	r     *Reader
	entry fieldEntry
}

// Type returns the field's declared content type.
func (f fieldDescriptor) Type() FieldType { return FieldType(f.entry.Type) }

func inlineBytes(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// getScalar verifies the field's declared type and returns its inline or
// complex payload bytes.
func (s Struct) getScalar(name string, want FieldType, size int) ([]byte, bool) {
	fe, ok := s.r.getFieldByName(s.entry, name)
	if !ok || FieldType(fe.Type) != want {
		return nil, false
	}
	if !want.IsComplex() {
		b := inlineBytes(fe.DataOrOffset)
		return b[:size], true
	}
	return s.r.readFieldData(fe.DataOrOffset, size)
}

// GetByte reads a BYTE field.
func (s Struct) GetByte(name string) (uint8, bool) {
	b, ok := s.getScalar(name, Byte, 1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

// GetChar reads a CHAR field.
func (s Struct) GetChar(name string) (int8, bool) {
	b, ok := s.getScalar(name, Char, 1)
	if !ok {
		return 0, false
	}
	return int8(b[0]), true
}

// GetWord reads a WORD field.
func (s Struct) GetWord(name string) (uint16, bool) { return s.getWordField(name, Word) }

// GetShort reads a SHORT field.
func (s Struct) GetShort(name string) (int16, bool) {
	v, ok := s.getWordField(name, Short)
	return int16(v), ok
}

func (s Struct) getWordField(name string, want FieldType) (uint16, bool) {
	b, ok := s.getScalar(name, want, 2)
	if !ok {
		return 0, false
	}
	return uint16(b[0]) | uint16(b[1])<<8, true
}

func (s Struct) getDWordField(name string, want FieldType) (uint32, bool) {
	b, ok := s.getScalar(name, want, 4)
	if !ok {
		return 0, false
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, true
}

// GetDWord reads a DWORD field.
func (s Struct) GetDWord(name string) (uint32, bool) { return s.getDWordField(name, DWord) }

// GetInt reads an INT field.
func (s Struct) GetInt(name string) (int32, bool) {
	v, ok := s.getDWordField(name, Int)
	return int32(v), ok
}

// GetFloat reads a FLOAT field.
func (s Struct) GetFloat(name string) (float32, bool) {
	v, ok := s.getDWordField(name, Float)
	if !ok {
		return 0, false
	}
	return float32FromBits(v), true
}

func float32FromBits(v uint32) float32 {
	r := bytestream.NewReader(inlineBytes(v))
	f, _ := r.ReadF32()
	return f
}

func (s Struct) getQWordField(name string, want FieldType) (uint64, bool) {
	b, ok := s.getScalar(name, want, 8)
	if !ok {
		return 0, false
	}
	r := bytestream.NewReader(b)
	v, err := r.ReadU64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// GetDWord64 reads a DWORD64 field.
func (s Struct) GetDWord64(name string) (uint64, bool) { return s.getQWordField(name, DWord64) }

// GetInt64 reads an INT64 field.
func (s Struct) GetInt64(name string) (int64, bool) {
	v, ok := s.getQWordField(name, Int64)
	return int64(v), ok
}

// GetDouble reads a DOUBLE field.
func (s Struct) GetDouble(name string) (float64, bool) {
	b, ok := s.getScalar(name, Double, 8)
	if !ok {
		return 0, false
	}
	r := bytestream.NewReader(b)
	v, err := r.ReadF64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// GetCExoString reads a counted-string field. The length prefix is
// validated against the field-data region before any allocation.
func (s Struct) GetCExoString(name string) (string, bool) {
	fe, ok := s.r.getFieldByName(s.entry, name)
	if !ok || FieldType(fe.Type) != CExoString {
		return "", false
	}
	sizeBytes, ok := s.r.readFieldData(fe.DataOrOffset, 4)
	if !ok {
		return "", false
	}
	size := uint32(sizeBytes[0]) | uint32(sizeBytes[1])<<8 | uint32(sizeBytes[2])<<16 | uint32(sizeBytes[3])<<24
	if !s.r.validateFieldDataRange(fe.DataOrOffset, uint64(4)+uint64(size)) {
		return "", false
	}
	if size == 0 {
		return "", true
	}
	b, ok := s.r.readFieldData(fe.DataOrOffset+4, int(size))
	if !ok {
		return "", false
	}
	return string(b), true
}

// GetResRef reads a RESREF field. The length prefix is a single byte,
// capped at 32 (the 32-byte resref width); an oversized declared length
// fails rather than truncating silently.
func (s Struct) GetResRef(name string) (string, bool) {
	fe, ok := s.r.getFieldByName(s.entry, name)
	if !ok || FieldType(fe.Type) != ResRef {
		return "", false
	}
	sizeB, ok := s.r.readFieldData(fe.DataOrOffset, 1)
	if !ok {
		return "", false
	}
	size := int(sizeB[0])
	if size > 32 {
		return "", false
	}
	if size == 0 {
		return "", true
	}
	b, ok := s.r.readFieldData(fe.DataOrOffset+1, size)
	if !ok {
		return "", false
	}
	return string(b), true
}

// GetVoid reads a byte-blob field. The length prefix is validated against
// the field-data region before any allocation is performed.
func (s Struct) GetVoid(name string) ([]byte, bool) {
	fe, ok := s.r.getFieldByName(s.entry, name)
	if !ok || FieldType(fe.Type) != Void {
		return nil, false
	}
	sizeBytes, ok := s.r.readFieldData(fe.DataOrOffset, 4)
	if !ok {
		return nil, false
	}
	size := uint32(sizeBytes[0]) | uint32(sizeBytes[1])<<8 | uint32(sizeBytes[2])<<16 | uint32(sizeBytes[3])<<24
	if !s.r.validateFieldDataRange(fe.DataOrOffset, uint64(4)+uint64(size)) {
		return nil, false
	}
	if size == 0 {
		return []byte{}, true
	}
	b, ok := s.r.readFieldData(fe.DataOrOffset+4, int(size))
	if !ok {
		return nil, false
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true
}

// Vector3 is a flat 3-component vector, the payload of a VECTOR field.
type Vector3 struct{ X, Y, Z float32 }

// GetVector reads a VECTOR field (3 consecutive little-endian floats).
func (s Struct) GetVector(name string) (Vector3, bool) {
	fe, ok := s.r.getFieldByName(s.entry, name)
	if !ok || FieldType(fe.Type) != Vector {
		return Vector3{}, false
	}
	b, ok := s.r.readFieldData(fe.DataOrOffset, 12)
	if !ok {
		return Vector3{}, false
	}
	r := bytestream.NewReader(b)
	x, _ := r.ReadF32()
	y, _ := r.ReadF32()
	z, _ := r.ReadF32()
	return Vector3{x, y, z}, true
}

// GetStruct reads a STRUCT-typed field. An empty name refers to the
// receiver itself, letting the complex-type getters above be reused when
// s is itself a list element.
func (s Struct) GetStruct(name string) (Struct, bool) {
	if name == "" {
		return s, true
	}
	fe, ok := s.r.getFieldByName(s.entry, name)
	if !ok || FieldType(fe.Type) != Struct {
		return Struct{}, false
	}
	target, err := s.r.structByIndex(fe.DataOrOffset)
	if err != nil {
		return Struct{}, false
	}
	return Struct{r: s.r, entry: target}, true
}

// ListLength returns the number of elements in a LIST-typed field.
func (s Struct) ListLength(name string) (int, bool) {
	fe, ok := s.r.getFieldByName(s.entry, name)
	if !ok || FieldType(fe.Type) != List {
		return 0, false
	}
	sizeB, ok := s.r.readListIndices(fe.DataOrOffset, 4)
	if !ok {
		return 0, false
	}
	r := bytestream.NewReader(sizeB)
	n, err := r.ReadU32()
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// GetListElement reads the i-th struct of a LIST-typed field.
func (s Struct) GetListElement(name string, i int) (Struct, bool) {
	fe, ok := s.r.getFieldByName(s.entry, name)
	if !ok || FieldType(fe.Type) != List {
		return Struct{}, false
	}
	sizeB, ok := s.r.readListIndices(fe.DataOrOffset, 4)
	if !ok {
		return Struct{}, false
	}
	r := bytestream.NewReader(sizeB)
	size, err := r.ReadU32()
	if err != nil || i < 0 || uint32(i) >= size {
		return Struct{}, false
	}
	idxB, ok := s.r.readListIndices(fe.DataOrOffset+uint32(i)*4+4, 4)
	if !ok {
		return Struct{}, false
	}
	r2 := bytestream.NewReader(idxB)
	structIdx, err := r2.ReadU32()
	if err != nil {
		return Struct{}, false
	}
	target, err := s.r.structByIndex(structIdx)
	if err != nil {
		return Struct{}, false
	}
	return Struct{r: s.r, entry: target}, true
}

// GetLocString reads a localized-string field using the two-pass fallback
// described in spec §4.2: the first pass looks for a substring whose
// language matches the reader's configured default language; the second
// pass, if the first found nothing, takes the first substring. If neither
// pass finds a substring and the record carries a non-sentinel string
// reference, the configured TalkStringSource is consulted last.
func (s Struct) GetLocString(name string) (string, bool) {
	fe, ok := s.r.getFieldByName(s.entry, name)
	if !ok || FieldType(fe.Type) != CExoLocString {
		return "", false
	}

	hdrB, ok := s.r.readFieldData(fe.DataOrOffset, 12)
	if !ok {
		return "", false
	}
	hr := bytestream.NewReader(hdrB)
	length, _ := hr.ReadU32()
	strRef, _ := hr.ReadU32()
	subCount, _ := hr.ReadU32()
	if length < 12-4 {
		return "", false
	}

	lang := s.r.language

	for pass := 0; pass < 2; pass++ {
		offset := uint32(12)
		for i := uint32(0); i < subCount; i++ {
			if uint64(offset)+8 > uint64(length)+4 {
				return "", false
			}
			subHdr, ok := s.r.readFieldData(fe.DataOrOffset+offset, 8)
			if !ok {
				return "", false
			}
			sr := bytestream.NewReader(subHdr)
			stringID, _ := sr.ReadU32()
			strLen, _ := sr.ReadU32()
			offset += 8

			if uint64(offset)+uint64(strLen) > uint64(length)+4 {
				return "", false
			}

			if pass == 1 || (stringID>>1) == uint32(lang) {
				if !s.r.validateFieldDataRange(fe.DataOrOffset+offset, uint64(strLen)) {
					return "", false
				}
				if strLen == 0 {
					return "", true
				}
				b, ok := s.r.readFieldData(fe.DataOrOffset+offset, int(strLen))
				if !ok {
					return "", false
				}
				return string(b), true
			}
			offset += strLen
		}
	}

	if strRef != InvalidStrRef && s.r.talk != nil {
		if str, ok := s.r.talk.TalkString(strRef); ok {
			return str, true
		}
	}

	return "", false
}
