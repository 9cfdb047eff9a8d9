package wireproto

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single frame's payload so a malformed or hostile
// peer cannot make a read allocate unbounded memory. 16 MiB comfortably
// covers a large Chain response while rejecting garbage lengths.
const MaxFrameSize = 16 << 20

// WriteFrame writes payload to w as a 4-byte little-endian length followed
// by payload itself.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("wireproto: write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wireproto: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads a length-prefixed frame from r. It rejects frames larger
// than MaxFrameSize without attempting to allocate or read them.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("wireproto: read frame length: %w", err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("wireproto: frame length %d exceeds maximum %d", n, MaxFrameSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("wireproto: read frame payload: %w", err)
	}
	return payload, nil
}
