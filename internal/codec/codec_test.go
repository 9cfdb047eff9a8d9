package codec

import (
	"bytes"
	"testing"
)

func TestUint128RoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 2, 100, 1 << 40, ^uint64(0)}
	for _, c := range cases {
		u := NewUint128(c)
		b := u.BytesLE()
		got := Uint128FromBytesLE(b[:])
		if got.Cmp(u) != 0 {
			t.Fatalf("round trip mismatch for %d: got %s", c, got)
		}
	}
}

func TestUint128LittleEndianLayout(t *testing.T) {
	u := NewUint128(1)
	b := u.BytesLE()
	want := [16]byte{1}
	if b != want {
		t.Fatalf("expected low byte set, got %v", b)
	}
}

func TestUint128ArithmeticAndOverflow(t *testing.T) {
	a := NewUint128(170)
	b := NewUint128(30)
	sum, overflow := a.Add(b)
	if overflow || sum.Cmp(NewUint128(200)) != 0 {
		t.Fatalf("expected 200, got %s overflow=%v", sum, overflow)
	}

	diff, underflow := a.Sub(b)
	if underflow || diff.Cmp(NewUint128(140)) != 0 {
		t.Fatalf("expected 140, got %s underflow=%v", diff, underflow)
	}

	_, underflow = b.Sub(a)
	if !underflow {
		t.Fatalf("expected underflow when subtracting a larger value")
	}
}

func TestUint128StringRoundTrip(t *testing.T) {
	u := NewUint128(123456789)
	parsed, err := ParseUint128(u.String())
	if err != nil {
		t.Fatalf("ParseUint128: %v", err)
	}
	if parsed.Cmp(u) != 0 {
		t.Fatalf("parsed value mismatch: %s != %s", parsed, u)
	}
}

func TestEncoderDecoderRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.WriteUint32(42)
	e.WriteUint128(NewUint128(100))
	e.WriteFixed([]byte{1, 2, 3, 4})
	e.WriteBytesLP([]byte("hello"))
	e.WriteString("zenchain")

	d := NewDecoder(e.Bytes())
	n, err := d.ReadUint32()
	if err != nil || n != 42 {
		t.Fatalf("ReadUint32: %v %d", err, n)
	}
	amount, err := d.ReadUint128()
	if err != nil || amount.Cmp(NewUint128(100)) != 0 {
		t.Fatalf("ReadUint128: %v %s", err, amount)
	}
	fixed, err := d.ReadFixed(4)
	if err != nil || !bytes.Equal(fixed, []byte{1, 2, 3, 4}) {
		t.Fatalf("ReadFixed: %v %v", err, fixed)
	}
	lp, err := d.ReadBytesLP()
	if err != nil || string(lp) != "hello" {
		t.Fatalf("ReadBytesLP: %v %s", err, lp)
	}
	s, err := d.ReadString()
	if err != nil || s != "zenchain" {
		t.Fatalf("ReadString: %v %s", err, s)
	}
	if d.Remaining() != 0 {
		t.Fatalf("expected no remaining bytes, got %d", d.Remaining())
	}
}

func TestDecoderErrorsOnTruncatedInput(t *testing.T) {
	d := NewDecoder([]byte{1, 2, 3})
	if _, err := d.ReadUint32(); err == nil {
		t.Fatal("expected error reading uint32 from 3 bytes")
	}
}

func TestEncodingIsDeterministic(t *testing.T) {
	build := func() []byte {
		e := NewEncoder()
		e.WriteUint128(NewUint128(7))
		e.WriteString("zen")
		return e.Bytes()
	}
	a := build()
	b := build()
	if !bytes.Equal(a, b) {
		t.Fatal("expected identical encodings across runs")
	}
}
