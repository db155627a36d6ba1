// Package bitstream provides MSB-first bit cursors over byte slices.
// Bit 0 of a buffer is the most significant bit of byte 0, and bit positions
// run continuously across byte boundaries.
package bitstream

import (
	"errors"
	"fmt"
)

// ErrOverflow is returned when a read or write would run past the buffer end.
var ErrOverflow = errors.New("bitstream: out of bounds")

func bitAt(buf []byte, pos int) byte {
	return (buf[pos>>3] >> (7 - uint(pos&7))) & 1
}

func setBit(buf []byte, pos int, bit byte) {
	mask := byte(1) << (7 - uint(pos&7))
	if bit != 0 {
		buf[pos>>3] |= mask
	} else {
		buf[pos>>3] &^= mask
	}
}

func checkCount(n int) error {
	if n < 0 || n > 64 {
		return fmt.Errorf("bitstream: invalid bit count %d", n)
	}
	return nil
}

// Writer writes bits into a fixed buffer, starting at bit 0.
type Writer struct {
	buf []byte
	pos int
}

// NewWriter returns a Writer over buf. The buffer is written in place.
func NewWriter(buf []byte) *Writer { return &Writer{buf: buf} }

// Pos returns the number of bits written so far.
func (w *Writer) Pos() int { return w.pos }

// Remaining returns the number of bits left before the end of the buffer.
func (w *Writer) Remaining() int { return len(w.buf)*8 - w.pos }

// Bytes returns the underlying buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// WriteBits writes the low n bits of v, most significant first.
func (w *Writer) WriteBits(v uint64, n int) error {
	if err := checkCount(n); err != nil {
		return err
	}
	if n > w.Remaining() {
		return fmt.Errorf("%w: write %d bits at %d of %d", ErrOverflow, n, w.pos, len(w.buf)*8)
	}
	for i := n - 1; i >= 0; i-- {
		setBit(w.buf, w.pos, byte(v>>uint(i)&1))
		w.pos++
	}
	return nil
}

// WriteFrom copies the leading n bits of src.
func (w *Writer) WriteFrom(src []byte, n int) error {
	if n < 0 || n > len(src)*8 {
		return fmt.Errorf("%w: source holds %d bits, want %d", ErrOverflow, len(src)*8, n)
	}
	if n > w.Remaining() {
		return fmt.Errorf("%w: write %d bits at %d of %d", ErrOverflow, n, w.pos, len(w.buf)*8)
	}
	for i := 0; i < n; i++ {
		setBit(w.buf, w.pos, bitAt(src, i))
		w.pos++
	}
	return nil
}

// WriteZeros writes n zero bits.
func (w *Writer) WriteZeros(n int) error {
	if n < 0 || n > w.Remaining() {
		return fmt.Errorf("%w: write %d bits at %d of %d", ErrOverflow, n, w.pos, len(w.buf)*8)
	}
	for i := 0; i < n; i++ {
		setBit(w.buf, w.pos, 0)
		w.pos++
	}
	return nil
}

// Reader reads bits from a buffer, starting at bit 0.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader over buf. The buffer is not copied.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Pos returns the number of bits consumed so far.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int { return len(r.buf)*8 - r.pos }

// ReadBits reads n bits and returns them right-aligned in a uint64.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if err := checkCount(n); err != nil {
		return 0, err
	}
	if n > r.Remaining() {
		return 0, fmt.Errorf("%w: read %d bits at %d of %d", ErrOverflow, n, r.pos, len(r.buf)*8)
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<1 | uint64(bitAt(r.buf, r.pos))
		r.pos++
	}
	return v, nil
}

// ReadInto reads n bits into dst, left-justified. Bits of dst past n are
// left untouched, so callers pass a zeroed slice to get a zero tail.
func (r *Reader) ReadInto(dst []byte, n int) error {
	if n < 0 || n > len(dst)*8 {
		return fmt.Errorf("%w: destination holds %d bits, want %d", ErrOverflow, len(dst)*8, n)
	}
	if n > r.Remaining() {
		return fmt.Errorf("%w: read %d bits at %d of %d", ErrOverflow, n, r.pos, len(r.buf)*8)
	}
	for i := 0; i < n; i++ {
		setBit(dst, i, bitAt(r.buf, r.pos))
		r.pos++
	}
	return nil
}
