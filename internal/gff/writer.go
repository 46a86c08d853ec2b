package gff

import (
	"io"

	"github.com/nwncomm/nwnc/internal/bytestream"
	"github.com/orcaman/writerseeker"
	"golang.org/x/xerrors"
)

// CommitFlags controls Writer.Commit behavior.
type CommitFlags uint32

const (
	// Sequential requests the post-commit rearrangement (struct / field /
	// label / field-data / field-indices / list-indices ordering) some
	// consumers require. See Writer.Commit.
	Sequential CommitFlags = 1 << iota
)

// DefaultMaxCopyDepth is the default recursion bound for
// InitializeFromReaderStruct.
const DefaultMaxCopyDepth = 32

// writerField is one field attached to a writerStruct, in insertion order.
type writerField struct {
	label     Label
	fieldType FieldType
	inline    uint32 // valid when !fieldType.IsComplex()
	data      []byte // valid when fieldType.IsComplex(), except Struct/List
	child     *writerStruct
	list      []*writerStruct

	// assigned during commit
	labelIndex   uint32
	fieldDataOff uint32
}

type writerStruct struct {
	structType uint32
	fields     []*writerField

	structIndex  uint32 // assigned during commit
	dataOrOffset uint32 // assigned during commit: inline field index or field-indices byte offset
}

func (s *writerStruct) fieldByName(name string) (*writerField, int) {
	l := NewLabel(name)
	for i, f := range s.fields {
		if f.label == l {
			return f, i
		}
	}
	return nil, -1
}

// Writer builds a structured-container tree in memory and serializes it on
// Commit. The zero value is not usable; use NewWriter.
type Writer struct {
	root *writerStruct
}

// NewWriter returns an empty Writer. The root struct is pre-linked and
// always carries the sentinel root type.
func NewWriter() *Writer {
	return &Writer{root: &writerStruct{structType: RootStructType}}
}

// WStruct is a mutable handle to one struct in a Writer's tree.
type WStruct struct {
	w *Writer
	s *writerStruct
}

// Root returns a handle to the writer's root struct.
func (w *Writer) Root() WStruct { return WStruct{w: w, s: w.root} }

// StructType returns the struct's type tag.
func (s WStruct) StructType() uint32 { return s.s.structType }

// SetStructType sets the struct's caller-defined type tag. Has no effect on
// the root struct, which always keeps the sentinel type.
func (s WStruct) SetStructType(t uint32) {
	if s.s == s.w.root {
		return
	}
	s.s.structType = t
}

func (s WStruct) setInline(name string, ft FieldType, v uint32) {
	f, i := s.s.fieldByName(name)
	if i < 0 {
		f = &writerField{label: NewLabel(name)}
		s.s.fields = append(s.s.fields, f)
	}
	f.fieldType = ft
	f.inline = v
	f.data = nil
}

func (s WStruct) setComplex(name string, ft FieldType, data []byte) {
	f, i := s.s.fieldByName(name)
	if i < 0 {
		f = &writerField{label: NewLabel(name)}
		s.s.fields = append(s.s.fields, f)
	}
	f.fieldType = ft
	f.data = data
	f.child = nil
	f.list = nil
}

// SetByte sets a BYTE-typed scalar field.
func (s WStruct) SetByte(name string, v uint8) { s.setInline(name, Byte, uint32(v)) }

// SetChar sets a CHAR-typed scalar field.
func (s WStruct) SetChar(name string, v int8) { s.setInline(name, Char, uint32(uint8(v))) }

// SetWord sets a WORD-typed scalar field.
func (s WStruct) SetWord(name string, v uint16) { s.setInline(name, Word, uint32(v)) }

// SetShort sets a SHORT-typed scalar field.
func (s WStruct) SetShort(name string, v int16) { s.setInline(name, Short, uint32(uint16(v))) }

// SetDWord sets a DWORD-typed scalar field.
func (s WStruct) SetDWord(name string, v uint32) { s.setInline(name, DWord, v) }

// SetInt sets an INT-typed scalar field.
func (s WStruct) SetInt(name string, v int32) { s.setInline(name, Int, uint32(v)) }

// SetFloat sets a FLOAT-typed scalar field.
func (s WStruct) SetFloat(name string, v float32) {
	w := bytestream.NewWriter()
	w.WriteF32(v)
	b := w.Bytes()
	s.setInline(name, Float, uint32(b[0])|uint32(b[1])<<8|uint32(b[2])<<16|uint32(b[3])<<24)
}

// SetDWord64 sets a DWORD64-typed field.
func (s WStruct) SetDWord64(name string, v uint64) {
	w := bytestream.NewWriter()
	w.WriteU64(v)
	s.setComplex(name, DWord64, w.Bytes())
}

// SetInt64 sets an INT64-typed field.
func (s WStruct) SetInt64(name string, v int64) {
	w := bytestream.NewWriter()
	w.WriteI64(v)
	s.setComplex(name, Int64, w.Bytes())
}

// SetDouble sets a DOUBLE-typed field.
func (s WStruct) SetDouble(name string, v float64) {
	w := bytestream.NewWriter()
	w.WriteF64(v)
	s.setComplex(name, Double, w.Bytes())
}

// SetString sets a counted-string (CExoString) field.
func (s WStruct) SetString(name, v string) {
	w := bytestream.NewWriter()
	w.WriteU32(uint32(len(v)))
	w.WriteBytes([]byte(v))
	s.setComplex(name, CExoString, w.Bytes())
}

// SetResRef sets a resource-reference field. v is truncated to 32 bytes if
// longer.
func (s WStruct) SetResRef(name, v string) {
	if len(v) > 32 {
		v = v[:32]
	}
	w := bytestream.NewWriter()
	w.WriteU8(uint8(len(v)))
	w.WriteBytes([]byte(v))
	s.setComplex(name, ResRef, w.Bytes())
}

// SetBlob sets a byte-blob (VOID) field.
func (s WStruct) SetBlob(name string, v []byte) {
	w := bytestream.NewWriter()
	w.WriteU32(uint32(len(v)))
	w.WriteBytes(v)
	s.setComplex(name, Void, w.Bytes())
}

// SetVector sets a VECTOR field.
func (s WStruct) SetVector(name string, v Vector3) {
	w := bytestream.NewWriter()
	w.WriteF32(v.X)
	w.WriteF32(v.Y)
	w.WriteF32(v.Z)
	s.setComplex(name, Vector, w.Bytes())
}

// SetLocString sets a localized-string field from a talk-table reference
// (InvalidStrRef for none) and a set of language-tagged substrings.
func (s WStruct) SetLocString(name string, strRef uint32, substrings []LocSubstring) {
	w := bytestream.NewWriter()
	w.WriteU32(strRef)
	w.WriteU32(uint32(len(substrings)))
	for _, sub := range substrings {
		w.WriteU32(sub.StringID)
		w.WriteU32(uint32(len(sub.Text)))
		w.WriteBytes([]byte(sub.Text))
	}
	body := w.Bytes()
	hdr := bytestream.NewWriter()
	// Length covers everything after the Length field itself (StringRef +
	// SubstringCount + substrings), matching the reader's LocString.Length
	// semantics.
	hdr.WriteU32(uint32(len(body)))
	hdr.WriteBytes(body)
	s.setComplex(name, CExoLocString, hdr.Bytes())
}

// CreateStruct creates (or replaces) a STRUCT-typed field and returns a
// handle to the new child struct.
func (s WStruct) CreateStruct(name string, structType uint32) WStruct {
	child := &writerStruct{structType: structType}
	f, i := s.s.fieldByName(name)
	if i < 0 {
		f = &writerField{label: NewLabel(name)}
		s.s.fields = append(s.s.fields, f)
	}
	f.fieldType = Struct
	f.child = child
	f.data = nil
	f.list = nil
	return WStruct{w: s.w, s: child}
}

// CreateList creates (or replaces, now empty) a LIST-typed field.
func (s WStruct) CreateList(name string) {
	f, i := s.s.fieldByName(name)
	if i < 0 {
		f = &writerField{label: NewLabel(name)}
		s.s.fields = append(s.s.fields, f)
	}
	f.fieldType = List
	f.list = nil
	f.data = nil
	f.child = nil
}

// AppendListElement appends a new struct to a LIST-typed field and returns
// a handle to it. The field must already have been created with
// CreateList.
func (s WStruct) AppendListElement(name string, structType uint32) (WStruct, bool) {
	f, i := s.s.fieldByName(name)
	if i < 0 || f.fieldType != List {
		return WStruct{}, false
	}
	child := &writerStruct{structType: structType}
	f.list = append(f.list, child)
	return WStruct{w: s.w, s: child}, true
}

// DeleteField removes a field by name, reporting whether it existed.
func (s WStruct) DeleteField(name string) bool {
	l := NewLabel(name)
	for i, f := range s.s.fields {
		if f.label == l {
			s.s.fields = append(s.s.fields[:i], s.s.fields[i+1:]...)
			return true
		}
	}
	return false
}

// InitializeFromReaderStruct deep-copies an entire reader sub-tree onto s,
// replacing s's existing fields. Raw field bytes are copied verbatim
// without interpretation. maxDepth bounds recursion; exceeding it raises
// ErrDepthExceeded and leaves s's target writer with no stray structs
// linked (the copy is only attached to its parent on success).
func (s WStruct) InitializeFromReaderStruct(src Struct, maxDepth int) error {
	copied, err := copyReaderStruct(src, maxDepth)
	if err != nil {
		return err
	}
	s.s.structType = copied.structType
	s.s.fields = copied.fields
	return nil
}

func copyReaderStruct(src Struct, depthBudget int) (*writerStruct, error) {
	if depthBudget < 0 {
		return nil, ErrDepthExceeded
	}
	out := &writerStruct{structType: src.StructType()}
	for i := 0; i < src.FieldCount(); i++ {
		fd, ok := src.FieldByIndex(i)
		if !ok {
			continue
		}
		name, _ := src.FieldName(i)
		wf := &writerField{label: NewLabel(name), fieldType: fd.Type()}
		switch fd.Type() {
		case Struct:
			child, ok := src.GetStruct(name)
			if !ok {
				continue
			}
			cs, err := copyReaderStruct(child, depthBudget-1)
			if err != nil {
				return nil, err
			}
			wf.child = cs
		case List:
			n, _ := src.ListLength(name)
			for li := 0; li < n; li++ {
				elem, ok := src.GetListElement(name, li)
				if !ok {
					continue
				}
				cs, err := copyReaderStruct(elem, depthBudget-1)
				if err != nil {
					return nil, err
				}
				wf.list = append(wf.list, cs)
			}
		default:
			if err := copyRawField(wf, src, name, fd.Type()); err != nil {
				continue
			}
		}
		out.fields = append(out.fields, wf)
	}
	return out, nil
}

func copyRawField(wf *writerField, src Struct, name string, ft FieldType) error {
	switch ft {
	case Byte:
		v, _ := src.GetByte(name)
		wf.inline = uint32(v)
	case Char:
		v, _ := src.GetChar(name)
		wf.inline = uint32(uint8(v))
	case Word:
		v, _ := src.GetWord(name)
		wf.inline = uint32(v)
	case Short:
		v, _ := src.GetShort(name)
		wf.inline = uint32(uint16(v))
	case DWord:
		v, _ := src.GetDWord(name)
		wf.inline = v
	case Int:
		v, _ := src.GetInt(name)
		wf.inline = uint32(v)
	case Float:
		v, _ := src.GetFloat(name)
		w := bytestream.NewWriter()
		w.WriteF32(v)
		b := w.Bytes()
		wf.inline = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	case DWord64:
		v, _ := src.GetDWord64(name)
		w := bytestream.NewWriter()
		w.WriteU64(v)
		wf.data = w.Bytes()
	case Int64:
		v, _ := src.GetInt64(name)
		w := bytestream.NewWriter()
		w.WriteI64(v)
		wf.data = w.Bytes()
	case Double:
		v, _ := src.GetDouble(name)
		w := bytestream.NewWriter()
		w.WriteF64(v)
		wf.data = w.Bytes()
	case CExoString:
		v, _ := src.GetCExoString(name)
		w := bytestream.NewWriter()
		w.WriteU32(uint32(len(v)))
		w.WriteBytes([]byte(v))
		wf.data = w.Bytes()
	case ResRef:
		v, _ := src.GetResRef(name)
		w := bytestream.NewWriter()
		w.WriteU8(uint8(len(v)))
		w.WriteBytes([]byte(v))
		wf.data = w.Bytes()
	case Void:
		v, _ := src.GetVoid(name)
		w := bytestream.NewWriter()
		w.WriteU32(uint32(len(v)))
		w.WriteBytes(v)
		wf.data = w.Bytes()
	case Vector:
		v, _ := src.GetVector(name)
		w := bytestream.NewWriter()
		w.WriteF32(v.X)
		w.WriteF32(v.Y)
		w.WriteF32(v.Z)
		wf.data = w.Bytes()
	case CExoLocString:
		// Copied verbatim from the field-data region rather than
		// re-decoded, to preserve substrings for languages the reader's
		// two-pass lookup would otherwise drop.
		b, ok := rawLocStringBytes(src, name)
		if !ok {
			return xerrors.New("gff: could not copy CExoLocString field")
		}
		wf.data = b
	default:
		return xerrors.Errorf("gff: cannot copy field of type %v", ft)
	}
	return nil
}

// rawLocStringBytes re-reads a CExoLocString field's entire payload
// (header + all substrings) as raw bytes, bypassing the reader's
// language-selecting accessor.
func rawLocStringBytes(src Struct, name string) ([]byte, bool) {
	fe, ok := src.r.getFieldByName(src.entry, name)
	if !ok || FieldType(fe.Type) != CExoLocString {
		return nil, false
	}
	hdrB, ok := src.r.readFieldData(fe.DataOrOffset, 12)
	if !ok {
		return nil, false
	}
	hr := bytestream.NewReader(hdrB)
	length, _ := hr.ReadU32()
	total := int(length) + 4
	b, ok := src.r.readFieldData(fe.DataOrOffset, total)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true
}

// commitCtx accumulates the flattened struct list and byte sections during
// Commit.
type commitCtx struct {
	structs []*writerStruct
	labelOf map[Label]uint32
}

func flattenStructs(root *writerStruct) []*writerStruct {
	var out []*writerStruct
	var walk func(s *writerStruct)
	walk = func(s *writerStruct) {
		out = append(out, s)
		for _, f := range s.fields {
			switch f.fieldType {
			case Struct:
				if f.child != nil {
					walk(f.child)
				}
			case List:
				for _, child := range f.list {
					walk(child)
				}
			}
		}
	}
	walk(root)
	return out
}

func checkedAdd(a, b uint32) (uint32, error) {
	sum := a + b
	if sum < a {
		return 0, ErrTooLarge
	}
	return sum, nil
}

// Commit serializes the writer's tree to sink. fileType overrides the
// caller-chosen four-character tag; a zero value is rejected by the
// caller's validation, not here. The section write order is fixed: labels,
// field data, field indices, structs, list indices, fields, then the
// header is rewritten in place with finalized offsets and counts. When
// Sequential is set, the whole file is additionally read back and
// rewritten with sections ordered header/structs/fields/labels/field-data/
// field-indices/list-indices, for readers that assume that layout. sink
// must support reading back what was just written; callers committing to
// disk should pass an *os.File, and callers building in memory an
// io.ReadWriteSeeker such as writerseeker.WriterSeeker.
func (w *Writer) Commit(sink io.ReadWriteSeeker, fileType [4]byte, flags CommitFlags) error {
	w.root.structType = RootStructType

	ctx := &commitCtx{labelOf: make(map[Label]uint32)}
	ctx.structs = flattenStructs(w.root)
	for i, s := range ctx.structs {
		s.structIndex = uint32(i)
	}

	var h FileHeader
	h.FileType = fileType
	copy(h.FileVersion[:], Version)

	if _, err := sink.Write(make([]byte, headerSize)); err != nil {
		return xerrors.Errorf("gff: write placeholder header: %w", err)
	}

	h.LabelOffset = headerSize
	if err := writeLabels(sink, ctx, &h); err != nil {
		return err
	}

	fdOff, err := checkedAdd(h.LabelOffset, h.LabelCount*labelSize)
	if err != nil {
		return err
	}
	h.FieldDataOffset = fdOff
	if err := writeFieldData(sink, ctx, &h); err != nil {
		return err
	}

	fiOff, err := checkedAdd(h.FieldDataOffset, h.FieldDataByteCount)
	if err != nil {
		return err
	}
	h.FieldIndicesOffset = fiOff
	if err := writeFieldIndices(sink, ctx, &h); err != nil {
		return err
	}

	structOff, err := checkedAdd(h.FieldIndicesOffset, h.FieldIndicesByteCount)
	if err != nil {
		return err
	}
	h.StructOffset = structOff
	if err := writeStructs(sink, ctx, &h); err != nil {
		return err
	}

	listOff, err := checkedAdd(h.StructOffset, h.StructCount*structEntrySize)
	if err != nil {
		return err
	}
	h.ListIndicesOffset = listOff
	if err := writeListIndices(sink, ctx, &h); err != nil {
		return err
	}

	fieldOff, err := checkedAdd(h.ListIndicesOffset, h.ListIndicesByteCount)
	if err != nil {
		return err
	}
	h.FieldOffset = fieldOff
	if err := writeFields(sink, ctx, &h); err != nil {
		return err
	}

	if _, err := sink.Seek(0, io.SeekStart); err != nil {
		return xerrors.Errorf("gff: seek to rewrite header: %w", err)
	}
	if err := writeHeader(sink, h); err != nil {
		return err
	}

	if flags&Sequential != 0 {
		return rewriteSequential(sink, h)
	}
	return nil
}

// memSink adapts writerseeker.WriterSeeker to the io.ReadWriteSeeker
// Commit needs. WriterSeeker itself only implements Write/Seek — it
// hands back its buffered bytes through Reader()/BytesReader() rather
// than Read, since its usual callers (e.g. an encoder that writes once,
// then streams the result out) never need to read mid-write. Commit's
// Sequential rewrite does need that (it reads back sections it already
// wrote), so memSink keeps its own cursor and re-slices BytesReader's
// view of the buffer on every Read.
type memSink struct {
	ws  writerseeker.WriterSeeker
	pos int64
}

func (m *memSink) Write(p []byte) (int, error) { return m.ws.Write(p) }

func (m *memSink) Seek(offset int64, whence int) (int64, error) {
	n, err := m.ws.Seek(offset, whence)
	if err == nil {
		m.pos = n
	}
	return n, err
}

func (m *memSink) Read(p []byte) (int, error) {
	r := m.ws.BytesReader()
	if _, err := r.Seek(m.pos, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := r.Read(p)
	m.pos += int64(n)
	return n, err
}

func (m *memSink) Bytes() []byte {
	b, _ := io.ReadAll(m.ws.BytesReader())
	return b
}

// CommitToMemory runs Commit against an in-memory writerseeker.WriterSeeker
// and returns the committed bytes, for callers that don't need a file on
// disk (e.g. the gff writer used as a rewriter ahead of ERF repacking).
func (w *Writer) CommitToMemory(fileType [4]byte, flags CommitFlags) ([]byte, error) {
	sink := &memSink{}
	if err := w.Commit(sink, fileType, flags); err != nil {
		return nil, err
	}
	return sink.Bytes(), nil
}

func writeHeader(sink io.Writer, h FileHeader) error {
	bw := bytestream.NewWriter()
	bw.WriteBytes(h.FileType[:])
	bw.WriteBytes(h.FileVersion[:])
	for _, v := range []uint32{
		h.StructOffset, h.StructCount,
		h.FieldOffset, h.FieldCount,
		h.LabelOffset, h.LabelCount,
		h.FieldDataOffset, h.FieldDataByteCount,
		h.FieldIndicesOffset, h.FieldIndicesByteCount,
		h.ListIndicesOffset, h.ListIndicesByteCount,
	} {
		bw.WriteU32(v)
	}
	_, err := sink.Write(bw.Bytes())
	return err
}

func writeLabels(sink io.Writer, ctx *commitCtx, h *FileHeader) error {
	for _, s := range ctx.structs {
		for _, f := range s.fields {
			if _, ok := ctx.labelOf[f.label]; ok {
				continue
			}
			if _, err := sink.Write(f.label[:]); err != nil {
				return xerrors.Errorf("gff: write label: %w", err)
			}
			ctx.labelOf[f.label] = h.LabelCount
			h.LabelCount++
		}
	}
	for _, s := range ctx.structs {
		for _, f := range s.fields {
			f.labelIndex = ctx.labelOf[f.label]
		}
	}
	return nil
}

func writeFieldData(sink io.Writer, ctx *commitCtx, h *FileHeader) error {
	for _, s := range ctx.structs {
		for _, f := range s.fields {
			if !f.fieldType.IsComplex() || f.fieldType == Struct || f.fieldType == List {
				continue
			}
			if len(f.data) == 0 {
				continue
			}
			if _, err := sink.Write(f.data); err != nil {
				return xerrors.Errorf("gff: write field data: %w", err)
			}
			f.fieldDataOff = h.FieldDataByteCount
			sum, err := checkedAdd(h.FieldDataByteCount, uint32(len(f.data)))
			if err != nil {
				return err
			}
			h.FieldDataByteCount = sum
		}
	}
	return nil
}

// writeFieldIndices assigns each struct's DataOrOffset (an inline field
// index for single-field structs, or a byte offset into the field-indices
// section otherwise) and, for multi-field structs, writes the section
// bytes. Global field indices are assigned in the same flattened-struct
// order writeFields will later emit field records in, so the two stay in
// lockstep without recomputation.
func writeFieldIndices(sink io.Writer, ctx *commitCtx, h *FileHeader) error {
	fieldIndex := uint32(0)
	for _, s := range ctx.structs {
		switch len(s.fields) {
		case 0:
			s.dataOrOffset = 0
		case 1:
			s.dataOrOffset = fieldIndex
			fieldIndex++
		default:
			s.dataOrOffset = h.FieldIndicesByteCount
			bw := bytestream.NewWriter()
			for range s.fields {
				bw.WriteU32(fieldIndex)
				fieldIndex++
			}
			if _, err := sink.Write(bw.Bytes()); err != nil {
				return xerrors.Errorf("gff: write field indices: %w", err)
			}
			sum, err := checkedAdd(h.FieldIndicesByteCount, uint32(bw.Len()))
			if err != nil {
				return err
			}
			h.FieldIndicesByteCount = sum
		}
	}
	return nil
}

func writeStructs(sink io.Writer, ctx *commitCtx, h *FileHeader) error {
	for _, s := range ctx.structs {
		bw := bytestream.NewWriter()
		bw.WriteU32(s.structType)
		bw.WriteU32(s.dataOrOffset)
		bw.WriteU32(uint32(len(s.fields)))
		if _, err := sink.Write(bw.Bytes()); err != nil {
			return xerrors.Errorf("gff: write struct entry: %w", err)
		}
		h.StructCount++
	}
	return nil
}

func writeListIndices(sink io.Writer, ctx *commitCtx, h *FileHeader) error {
	for _, s := range ctx.structs {
		for _, f := range s.fields {
			if f.fieldType != List {
				continue
			}
			bw := bytestream.NewWriter()
			bw.WriteU32(uint32(len(f.list)))
			for _, child := range f.list {
				bw.WriteU32(child.structIndex)
			}
			if _, err := sink.Write(bw.Bytes()); err != nil {
				return xerrors.Errorf("gff: write list indices: %w", err)
			}
			f.fieldDataOff = h.ListIndicesByteCount
			sum, err := checkedAdd(h.ListIndicesByteCount, uint32(bw.Len()))
			if err != nil {
				return err
			}
			h.ListIndicesByteCount = sum
		}
	}
	return nil
}

func writeFields(sink io.Writer, ctx *commitCtx, h *FileHeader) error {
	for _, s := range ctx.structs {
		for _, f := range s.fields {
			var dataOrOffset uint32
			switch f.fieldType {
			case Struct:
				if f.child != nil {
					dataOrOffset = f.child.structIndex
				}
			case List:
				dataOrOffset = f.fieldDataOff
			default:
				if f.fieldType.IsComplex() {
					dataOrOffset = f.fieldDataOff
				} else {
					dataOrOffset = f.inline
				}
			}
			bw := bytestream.NewWriter()
			bw.WriteU32(uint32(f.fieldType))
			bw.WriteU32(f.labelIndex)
			bw.WriteU32(dataOrOffset)
			if _, err := sink.Write(bw.Bytes()); err != nil {
				return xerrors.Errorf("gff: write field entry: %w", err)
			}
			h.FieldCount++
		}
	}
	return nil
}

// rewriteSequential re-lays the file written by Commit's default section
// order (labels, field data, field indices, structs, list indices, fields)
// into header/structs/fields/labels/field-data/field-indices/list-indices
// order, for consumers that read the sections strictly in that sequence
// rather than following the header's offsets.
func rewriteSequential(sink io.ReadWriteSeeker, h FileHeader) error {
	nh := h
	nh.StructOffset = headerSize
	nh.FieldOffset = nh.StructOffset + nh.StructCount*structEntrySize
	nh.LabelOffset = nh.FieldOffset + nh.FieldCount*fieldEntrySize
	nh.FieldDataOffset = nh.LabelOffset + nh.LabelCount*labelSize
	nh.FieldIndicesOffset = nh.FieldDataOffset + nh.FieldDataByteCount
	nh.ListIndicesOffset = nh.FieldIndicesOffset + nh.FieldIndicesByteCount

	total := nh.ListIndicesOffset + nh.ListIndicesByteCount
	out := make([]byte, total)

	hw := bytestream.NewWriter()
	hw.WriteBytes(nh.FileType[:])
	hw.WriteBytes(nh.FileVersion[:])
	for _, v := range []uint32{
		nh.StructOffset, nh.StructCount,
		nh.FieldOffset, nh.FieldCount,
		nh.LabelOffset, nh.LabelCount,
		nh.FieldDataOffset, nh.FieldDataByteCount,
		nh.FieldIndicesOffset, nh.FieldIndicesByteCount,
		nh.ListIndicesOffset, nh.ListIndicesByteCount,
	} {
		hw.WriteU32(v)
	}
	copy(out, hw.Bytes())

	sections := []struct {
		oldOff, newOff, size uint32
	}{
		{h.StructOffset, nh.StructOffset, h.StructCount * structEntrySize},
		{h.FieldOffset, nh.FieldOffset, h.FieldCount * fieldEntrySize},
		{h.LabelOffset, nh.LabelOffset, h.LabelCount * labelSize},
		{h.FieldDataOffset, nh.FieldDataOffset, h.FieldDataByteCount},
		{h.FieldIndicesOffset, nh.FieldIndicesOffset, h.FieldIndicesByteCount},
		{h.ListIndicesOffset, nh.ListIndicesOffset, h.ListIndicesByteCount},
	}
	for _, sec := range sections {
		if sec.size == 0 {
			continue
		}
		if _, err := sink.Seek(int64(sec.oldOff), io.SeekStart); err != nil {
			return xerrors.Errorf("gff: seek section for sequential rewrite: %w", err)
		}
		if _, err := io.ReadFull(sink, out[sec.newOff:sec.newOff+sec.size]); err != nil {
			return xerrors.Errorf("gff: read section for sequential rewrite: %w", err)
		}
	}

	if _, err := sink.Seek(0, io.SeekStart); err != nil {
		return xerrors.Errorf("gff: seek to write sequential contents: %w", err)
	}
	if _, err := sink.Write(out); err != nil {
		return xerrors.Errorf("gff: write sequential contents: %w", err)
	}
	return nil
}
