// Package gff implements the reader and writer for the structured-container
// file format used for every piece of serialized game data: templates,
// areas, modules, dialogs and character sheets. On disk the format is
// version-tagged "V3.2" and organized as six flat sections (structs,
// fields, labels, field data, field indices, list indices) pointed to by a
// fixed 56-byte header — see FileHeader below.
package gff

import "golang.org/x/xerrors"

// FieldType is the closed enumeration of field content kinds. Byte through
// Int, and Float, are inline in the field record's DataOrOffset word; the
// complex types (see IsComplex: the 64-bit DWord64, Int64 and Double, and
// CExoString, ResRef, CExoLocString, Void and Vector) carry their payload
// in the field-data section, and Struct/List hold a struct index or a
// list-indices offset.
type FieldType uint32

const (
	Byte FieldType = iota
	Char
	Word
	Short
	DWord
	Int
	DWord64
	Int64
	Float
	Double
	CExoString
	ResRef
	CExoLocString
	Void
	Struct
	List
	Reserved
	Vector
)

// IsComplex reports whether the field type stores its payload via an
// offset into an auxiliary section rather than inline in the field record.
func (t FieldType) IsComplex() bool {
	switch t {
	case DWord64, Int64, Double, CExoString, ResRef, CExoLocString, Void, Vector:
		return true
	default:
		return false
	}
}

func (t FieldType) String() string {
	switch t {
	case Byte:
		return "BYTE"
	case Char:
		return "CHAR"
	case Word:
		return "WORD"
	case Short:
		return "SHORT"
	case DWord:
		return "DWORD"
	case Int:
		return "INT"
	case DWord64:
		return "DWORD64"
	case Int64:
		return "INT64"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case CExoString:
		return "CEXOSTRING"
	case ResRef:
		return "RESREF"
	case CExoLocString:
		return "CEXOLOCSTRING"
	case Void:
		return "VOID"
	case Struct:
		return "STRUCT"
	case List:
		return "LIST"
	case Reserved:
		return "RESERVED"
	case Vector:
		return "VECTOR"
	default:
		return "UNKNOWN"
	}
}

// RootStructType is the sentinel StructType every file's struct 0 must
// carry.
const RootStructType uint32 = 0xFFFFFFFF

// InvalidStrRef marks a CExoLocString record with no talk-table reference.
const InvalidStrRef uint32 = 0xFFFFFFFF

// Version is the only on-disk version tag this implementation understands.
const Version = "V3.2"

const headerSize = 56
const labelSize = 16
const structEntrySize = 12
const fieldEntrySize = 12

// FileHeader is the on-disk 56-byte file header. Every offset is relative
// to the start of the file; every count of the field-data, field-index and
// list-index sections is in bytes, not elements.
type FileHeader struct {
	FileType    [4]byte
	FileVersion [4]byte

	StructOffset uint32
	StructCount  uint32

	FieldOffset uint32
	FieldCount  uint32

	LabelOffset uint32
	LabelCount  uint32

	FieldDataOffset    uint32
	FieldDataByteCount uint32

	FieldIndicesOffset    uint32
	FieldIndicesByteCount uint32

	ListIndicesOffset    uint32
	ListIndicesByteCount uint32
}

// structEntry is the on-disk representation of a struct record.
type structEntry struct {
	StructType     uint32
	DataOrOffset   uint32 // field index (FieldCount==1) or byte offset into field indices (FieldCount>1)
	FieldCount     uint32
}

// fieldEntry is the on-disk representation of a field record.
type fieldEntry struct {
	Type         uint32
	LabelIndex   uint32
	DataOrOffset uint32
}

// ErrParse is raised by constructors on malformed input; all other read
// failures return a "not found" zero value instead, per the codec's
// fail-soft contract.
var ErrParse = xerrors.New("gff: parse error")

// ErrTooLarge is raised by the writer when an offset+size computation
// during commit would overflow uint32.
var ErrTooLarge = xerrors.New("gff: file too large")

// ErrDepthExceeded is raised when a recursive copy exceeds its depth
// budget.
var ErrDepthExceeded = xerrors.New("gff: depth exceeded")

// Label is the fixed 16-byte, NUL-padded field name.
type Label [labelSize]byte

// NewLabel truncates (to 16 bytes) and zero-pads s into a Label.
func NewLabel(s string) Label {
	var l Label
	n := len(s)
	if n > labelSize {
		n = labelSize
	}
	copy(l[:], s[:n])
	return l
}

func (l Label) String() string {
	n := 0
	for n < labelSize && l[n] != 0 {
		n++
	}
	return string(l[:n])
}

// Language is the low-order bits of a localized-string substring id; the
// low bit of the id (not included here) separately signals gender.
type Language uint32

const (
	LangEnglish            Language = 0
	LangFrench             Language = 1
	LangGerman             Language = 2
	LangItalian            Language = 3
	LangSpanish            Language = 4
	LangPolish             Language = 5
	LangKorean             Language = 128
	LangChineseTraditional Language = 129
	LangChineseSimplified  Language = 130
	LangJapanese           Language = 131
)

// LocStringHeader is the fixed-size portion of a CExoLocString payload.
type LocStringHeader struct {
	Length        uint32 // total byte length of the record, excluding this field itself
	StringRef     uint32
	SubstringCount uint32
}

// LocSubstring is one language-tagged localized-string entry.
type LocSubstring struct {
	StringID uint32 // low bit: gender; remaining bits: Language
	Text     string
}

// Language returns the language id encoded in StringID.
func (s LocSubstring) Language() Language { return Language(s.StringID >> 1) }

// Gender returns the gender bit encoded in StringID.
func (s LocSubstring) Gender() uint32 { return s.StringID & 1 }
