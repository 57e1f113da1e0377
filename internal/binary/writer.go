package binary

import (
	"io"
)

// Writer writes byte blocks to an io.WriterAt at a tracked position.
type Writer struct {
	w   io.WriterAt
	pos int64
}

// NewWriter creates a writer positioned at offset zero.
func NewWriter(w io.WriterAt) *Writer {
	return &Writer{w: w}
}

// At returns a new writer positioned at the given offset.
// The new writer shares the underlying io.WriterAt but has independent position.
func (w *Writer) At(offset int64) *Writer {
	return &Writer{w: w.w, pos: offset}
}

// Pos returns the current write position.
func (w *Writer) Pos() int64 {
	return w.pos
}

// WriteBytes writes the given bytes at the current position.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.WriteAt(data, w.pos)
	w.pos += int64(n)
	return err
}

// Encoder builds a metadata block in memory so that it can be checksummed
// before it is written out.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with room for sizeHint bytes.
func NewEncoder(sizeHint int) *Encoder {
	return &Encoder{buf: make([]byte, 0, sizeHint)}
}

// PutUint8 appends one byte.
func (e *Encoder) PutUint8(v uint8) {
	e.buf = append(e.buf, v)
}

// PutUint16 appends an unsigned 16-bit integer.
func (e *Encoder) PutUint16(v uint16) {
	e.buf = Order.AppendUint16(e.buf, v)
}

// PutUint32 appends an unsigned 32-bit integer.
func (e *Encoder) PutUint32(v uint32) {
	e.buf = Order.AppendUint32(e.buf, v)
}

// PutUint64 appends an unsigned 64-bit integer.
func (e *Encoder) PutUint64(v uint64) {
	e.buf = Order.AppendUint64(e.buf, v)
}

// PutBytes appends raw bytes.
func (e *Encoder) PutBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// PutString appends a string as-is; signatures are written this way.
func (e *Encoder) PutString(s string) {
	e.buf = append(e.buf, s...)
}

// Seal appends the checksum of everything written so far and returns the
// finished block.
func (e *Encoder) Seal() []byte {
	e.PutUint32(Checksum(e.buf))
	return e.buf
}

// Len returns the number of bytes encoded so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Bytes returns the encoded block without a checksum.
func (e *Encoder) Bytes() []byte {
	return e.buf
}
