package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Encoder accumulates a byte-deterministic encoding. The same logical value
// always produces the same bytes, which is required since block hashing
// operates on the encoded form.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns a fresh Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the accumulated encoding.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// WriteUint32 writes a 4-byte little-endian integer.
func (e *Encoder) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

// WriteUint128 writes a 16-byte little-endian integer.
func (e *Encoder) WriteUint128(v Uint128) {
	b := v.BytesLE()
	e.buf.Write(b[:])
}

// WriteFixed writes a fixed-length byte array inline, with no length prefix.
func (e *Encoder) WriteFixed(b []byte) {
	e.buf.Write(b)
}

// WriteBytesLP writes a 4-byte little-endian length followed by b.
func (e *Encoder) WriteBytesLP(b []byte) {
	e.WriteUint32(uint32(len(b)))
	e.buf.Write(b)
}

// WriteString writes a length-prefixed UTF-8 string.
func (e *Encoder) WriteString(s string) {
	e.WriteBytesLP([]byte(s))
}

// Decoder reads values out of a byte-deterministic encoding produced by
// Encoder, returning an error instead of panicking on malformed input.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder wraps data for sequential reads.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining reports how many bytes are left unread.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.pos
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.data) {
		return nil, fmt.Errorf("codec: unexpected end of input reading %d bytes (have %d)", n, d.Remaining())
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadUint32 reads a 4-byte little-endian integer.
func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint128 reads a 16-byte little-endian integer.
func (d *Decoder) ReadUint128() (Uint128, error) {
	b, err := d.take(16)
	if err != nil {
		return Uint128{}, err
	}
	return Uint128FromBytesLE(b), nil
}

// ReadFixed reads n raw bytes.
func (d *Decoder) ReadFixed(n int) ([]byte, error) {
	return d.take(n)
}

// ReadBytesLP reads a 4-byte little-endian length followed by that many bytes.
func (d *Decoder) ReadBytesLP() ([]byte, error) {
	n, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}
	return d.take(int(n))
}

// ReadString reads a length-prefixed UTF-8 string.
func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadBytesLP()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
