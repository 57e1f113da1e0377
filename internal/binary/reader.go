// Package binary provides the low-level byte I/O used by the container format.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// UndefinedAddress marks an address field that points nowhere, such as the
// index slot of a chunk that has never been written.
const UndefinedAddress = ^uint64(0)

// ErrShortBuffer is returned by a Decoder that runs past the end of its input.
var ErrShortBuffer = errors.New("binary: short buffer")

// Order is the byte order of every multi-byte field in a container file.
var Order = binary.LittleEndian

// Reader reads fixed-width little-endian fields from an io.ReaderAt.
type Reader struct {
	r   io.ReaderAt
	pos int64
}

// NewReader creates a reader positioned at offset zero.
func NewReader(r io.ReaderAt) *Reader {
	return &Reader{r: r}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{r: r.r, pos: offset}
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadFull fills buf from the current position.
// A short read at end of file is reported as io.ErrUnexpectedEOF.
func (r *Reader) ReadFull(buf []byte) error {
	n, err := r.r.ReadAt(buf, r.pos)
	r.pos += int64(n)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("reading %d bytes at %d: %w", len(buf), r.pos-int64(n), io.ErrUnexpectedEOF)
	}
	return err
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return Order.Uint32(buf), nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return Order.Uint64(buf), nil
}

// Decoder walks an in-memory block field by field. The first failure sticks:
// later reads return zero values and Err reports the original error.
type Decoder struct {
	buf []byte
	off int
	err error
}

// NewDecoder creates a decoder over buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.buf) {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, d.off, len(d.buf)-d.off)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

// Uint8 decodes one byte.
func (d *Decoder) Uint8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

// Uint16 decodes an unsigned 16-bit integer.
func (d *Decoder) Uint16() uint16 {
	if b := d.take(2); b != nil {
		return Order.Uint16(b)
	}
	return 0
}

// Uint32 decodes an unsigned 32-bit integer.
func (d *Decoder) Uint32() uint32 {
	if b := d.take(4); b != nil {
		return Order.Uint32(b)
	}
	return 0
}

// Uint64 decodes an unsigned 64-bit integer.
func (d *Decoder) Uint64() uint64 {
	if b := d.take(8); b != nil {
		return Order.Uint64(b)
	}
	return 0
}

// Bytes returns the next n bytes. The slice aliases the decoder's input.
func (d *Decoder) Bytes(n int) []byte {
	return d.take(n)
}

// Signature consumes len(want) bytes and fails unless they equal want.
func (d *Decoder) Signature(want string) {
	b := d.take(len(want))
	if b != nil && string(b) != want {
		d.err = fmt.Errorf("bad signature %q, expected %q", b, want)
	}
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.off
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

// Err returns the first decoding error, if any.
func (d *Decoder) Err() error {
	return d.err
}
