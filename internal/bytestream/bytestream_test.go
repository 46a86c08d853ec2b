package bytestream

import "testing"

func TestReaderScalars(t *testing.T) {
	buf := []byte{
		0x01,                   // u8
		0xFF,                   // i8 == -1
		0x34, 0x12,             // u16 == 0x1234
		0x00, 0x00, 0x80, 0x3F, // f32 == 1.0
	}
	r := NewReader(buf)

	u8, err := r.ReadU8()
	if err != nil || u8 != 1 {
		t.Fatalf("ReadU8 = %v, %v; want 1, nil", u8, err)
	}
	i8, err := r.ReadI8()
	if err != nil || i8 != -1 {
		t.Fatalf("ReadI8 = %v, %v; want -1, nil", i8, err)
	}
	u16, err := r.ReadU16()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("ReadU16 = %v, %v; want 0x1234, nil", u16, err)
	}
	f32, err := r.ReadF32()
	if err != nil || f32 != 1.0 {
		t.Fatalf("ReadF32 = %v, %v; want 1.0, nil", f32, err)
	}
	if rem := r.Remaining(); rem != 0 {
		t.Fatalf("Remaining() = %d, want 0", rem)
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.ReadU32(); err != ErrTruncated {
		t.Fatalf("ReadU32 on 2-byte buffer = %v, want ErrTruncated", err)
	}
}

func TestViewDoesNotCopy(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	r := NewReader(buf)
	v, err := r.View(2)
	if err != nil {
		t.Fatal(err)
	}
	buf[0] = 9
	if v[0] != 9 {
		t.Fatalf("View result did not alias source buffer")
	}
	if r.Pos() != 0 {
		t.Fatalf("View advanced cursor, want unchanged")
	}
}

func TestSeekAbsolute(t *testing.T) {
	r := NewReader(make([]byte, 10))
	if err := r.SeekAbsolute(10); err != nil {
		t.Fatalf("seeking to end: %v", err)
	}
	if err := r.SeekAbsolute(11); err != ErrTruncated {
		t.Fatalf("seeking past end = %v, want ErrTruncated", err)
	}
	if err := r.SeekAbsolute(-1); err != ErrTruncated {
		t.Fatalf("seeking negative = %v, want ErrTruncated", err)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU8(7)
	w.WriteI16(-100)
	w.WriteU32(0xDEADBEEF)
	w.WriteF64(3.5)

	r := NewReader(w.Bytes())
	if v, err := r.ReadU8(); err != nil || v != 7 {
		t.Fatalf("ReadU8 = %v, %v", v, err)
	}
	if v, err := r.ReadI16(); err != nil || v != -100 {
		t.Fatalf("ReadI16 = %v, %v", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadU32 = %v, %v", v, err)
	}
	if v, err := r.ReadF64(); err != nil || v != 3.5 {
		t.Fatalf("ReadF64 = %v, %v", v, err)
	}
}

func TestBitReaderHighToLow(t *testing.T) {
	// 0b10110010
	r := NewBitReader([]byte{0xB2}, HighToLow)
	want := []uint{1, 0, 1, 1, 0, 0, 1, 0}
	for i, w := range want {
		got, err := r.ReadBit()
		if err != nil {
			t.Fatalf("bit %d: %v", i, err)
		}
		if got != w {
			t.Fatalf("bit %d = %d, want %d", i, got, w)
		}
	}
	if _, err := r.ReadBit(); err != ErrTruncated {
		t.Fatalf("read past end = %v, want ErrTruncated", err)
	}
}

func TestBitReaderHighestValidBit(t *testing.T) {
	r := NewBitReader([]byte{0xFF}, HighToLow)
	r.SetHighestValidBit(4)
	if _, err := r.ReadBits(4); err != nil {
		t.Fatalf("reading 4 valid bits: %v", err)
	}
	if _, err := r.ReadBit(); err != ErrTruncated {
		t.Fatalf("reading past highest valid bit = %v, want ErrTruncated", err)
	}
}

func TestBitWriterRoundTrip(t *testing.T) {
	w := NewBitWriter(HighToLow)
	w.WriteBits(0b101, 3)
	w.WriteBits(0b11001, 5)

	r := NewBitReader(w.Bytes(), HighToLow)
	got, err := r.ReadBits(8)
	if err != nil {
		t.Fatal(err)
	}
	if want := uint64(0b10111001); got != want {
		t.Fatalf("got %08b, want %08b", got, want)
	}
}

func TestDecodeSigned(t *testing.T) {
	tests := []struct {
		v    uint64
		bits int
		want int64
	}{
		{0b0010, 4, 2},   // sign=0, magnitude=2
		{0b1010, 4, -2},  // sign=1, magnitude=2
		{0b1111, 4, -8},  // all-ones magnitude -> smallest negative
		{0b0000, 4, 0},
	}
	for _, tt := range tests {
		if got := DecodeSigned(tt.v, tt.bits); got != tt.want {
			t.Errorf("DecodeSigned(%b, %d) = %d, want %d", tt.v, tt.bits, got, tt.want)
		}
	}
}

func TestQuantizeRoundTrip(t *testing.T) {
	q := QuantizeFloat(0.5, 0, 1, 8)
	got := DequantizeFloat(q, 0, 1, 8)
	if diff := got - 0.5; diff > 0.01 || diff < -0.01 {
		t.Fatalf("round trip quantize(0.5) -> %v, want ~0.5", got)
	}
}
