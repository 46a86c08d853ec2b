package gff

import "testing"

func TestWriterMinimalRoundTrip(t *testing.T) {
	w := NewWriter()
	root := w.Root()
	root.SetInt("X", -7)
	root.SetString("Name", "hello")

	buf, err := w.CommitToMemory([4]byte{'R', 'E', 'S', ' '}, 0)
	if err != nil {
		t.Fatalf("CommitToMemory: %v", err)
	}

	r, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	rs := r.RootStruct()
	if v, ok := rs.GetInt("X"); !ok || v != -7 {
		t.Fatalf("GetInt(X) = %v, %v; want -7, true", v, ok)
	}
	if v, ok := rs.GetCExoString("Name"); !ok || v != "hello" {
		t.Fatalf("GetCExoString(Name) = %q, %v; want hello, true", v, ok)
	}
}

func TestWriterNestedStructAndList(t *testing.T) {
	w := NewWriter()
	root := w.Root()
	child := root.CreateStruct("Inner", 5)
	child.SetByte("B", 9)

	root.CreateList("Items")
	for i := 0; i < 3; i++ {
		elem, ok := root.AppendListElement("Items", uint32(i))
		if !ok {
			t.Fatalf("AppendListElement(%d) failed", i)
		}
		elem.SetInt("Index", int32(i))
	}

	buf, err := w.CommitToMemory([4]byte{'U', 'T', 'I', ' '}, 0)
	if err != nil {
		t.Fatalf("CommitToMemory: %v", err)
	}

	r, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	rs := r.RootStruct()

	inner, ok := rs.GetStruct("Inner")
	if !ok {
		t.Fatal("GetStruct(Inner) not found")
	}
	if inner.StructType() != 5 {
		t.Fatalf("Inner.StructType() = %d, want 5", inner.StructType())
	}
	if b, ok := inner.GetByte("B"); !ok || b != 9 {
		t.Fatalf("Inner.GetByte(B) = %v, %v; want 9, true", b, ok)
	}

	n, ok := rs.ListLength("Items")
	if !ok || n != 3 {
		t.Fatalf("ListLength(Items) = %d, %v; want 3, true", n, ok)
	}
	for i := 0; i < n; i++ {
		elem, ok := rs.GetListElement("Items", i)
		if !ok {
			t.Fatalf("GetListElement(%d) not found", i)
		}
		if elem.StructType() != uint32(i) {
			t.Fatalf("element %d StructType() = %d, want %d", i, elem.StructType(), i)
		}
		if v, ok := elem.GetInt("Index"); !ok || v != int32(i) {
			t.Fatalf("element %d GetInt(Index) = %v, %v; want %d, true", i, v, ok, i)
		}
	}
}

func TestWriterLocStringFallback(t *testing.T) {
	w := NewWriter()
	root := w.Root()
	root.SetLocString("Description", InvalidStrRef, []LocSubstring{
		{StringID: uint32(LangFrench) << 1, Text: "bonjour"},
		{StringID: uint32(LangGerman) << 1, Text: "hallo"},
	})

	buf, err := w.CommitToMemory([4]byte{'D', 'L', 'G', ' '}, 0)
	if err != nil {
		t.Fatalf("CommitToMemory: %v", err)
	}

	r, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	r.SetDefaultLanguage(LangGerman)
	rs := r.RootStruct()
	if v, ok := rs.GetLocString("Description"); !ok || v != "hallo" {
		t.Fatalf("GetLocString with matching language = %q, %v; want hallo, true", v, ok)
	}

	r2, _ := NewReader(buf)
	r2.SetDefaultLanguage(LangSpanish)
	rs2 := r2.RootStruct()
	if v, ok := rs2.GetLocString("Description"); !ok || v != "bonjour" {
		t.Fatalf("GetLocString with no matching language = %q, %v; want first substring bonjour, true", v, ok)
	}
}

func TestWriterSequentialFlag(t *testing.T) {
	w := NewWriter()
	root := w.Root()
	root.SetDWord("A", 42)
	child := root.CreateStruct("Child", 1)
	child.SetFloat("F", 1.5)

	buf, err := w.CommitToMemory([4]byte{'M', 'O', 'D', ' '}, Sequential)
	if err != nil {
		t.Fatalf("CommitToMemory with Sequential: %v", err)
	}

	r, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader on sequential file: %v", err)
	}
	rs := r.RootStruct()
	if v, ok := rs.GetDWord("A"); !ok || v != 42 {
		t.Fatalf("GetDWord(A) = %v, %v; want 42, true", v, ok)
	}
	inner, ok := rs.GetStruct("Child")
	if !ok {
		t.Fatal("GetStruct(Child) not found after sequential rewrite")
	}
	if v, ok := inner.GetFloat("F"); !ok || v != 1.5 {
		t.Fatalf("Child.GetFloat(F) = %v, %v; want 1.5, true", v, ok)
	}
}

func TestWriterDepthLimit(t *testing.T) {
	src := NewWriter()
	cur := src.Root()
	for i := 0; i < 40; i++ {
		cur = cur.CreateStruct("Next", uint32(i))
	}
	buf, err := src.CommitToMemory([4]byte{'R', 'E', 'S', ' '}, 0)
	if err != nil {
		t.Fatalf("CommitToMemory: %v", err)
	}
	r, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	dst := NewWriter()
	if err := dst.Root().InitializeFromReaderStruct(r.RootStruct(), DefaultMaxCopyDepth); err != ErrDepthExceeded {
		t.Fatalf("InitializeFromReaderStruct with exceeded depth = %v, want ErrDepthExceeded", err)
	}
}

func TestWriterDeleteField(t *testing.T) {
	w := NewWriter()
	root := w.Root()
	root.SetByte("Gone", 1)
	if !root.DeleteField("Gone") {
		t.Fatal("DeleteField(Gone) = false, want true")
	}
	if root.DeleteField("Gone") {
		t.Fatal("second DeleteField(Gone) = true, want false")
	}

	buf, err := w.CommitToMemory([4]byte{'R', 'E', 'S', ' '}, 0)
	if err != nil {
		t.Fatalf("CommitToMemory: %v", err)
	}
	r, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, ok := r.RootStruct().GetByte("Gone"); ok {
		t.Fatal("GetByte(Gone) found a deleted field")
	}
}
