package matrix

import "fmt"

// Dense is a matrix held in a column-major buffer. It is both a reader and,
// when built with NewDenseOutput, a writer.
type Dense[T Element] struct {
	dims Dims
	buf  []T
}

// NewDense copies a column-major host array.
func NewDense[T Element](d DenseData) (*Dense[T], error) {
	dims := d.Shape()
	if err := dims.Valid(); err != nil {
		return nil, err
	}
	values, err := castValues[T]("values", d.Values)
	if err != nil {
		return nil, err
	}
	if len(values) != dims.Len() {
		return nil, fmt.Errorf("%w: %d values for %s matrix", ErrMalformedInput, len(values), dims)
	}
	return &Dense[T]{dims: dims, buf: append([]T(nil), values...)}, nil
}

// NewDenseOutput returns a zero-filled dense matrix for writing.
func NewDenseOutput[T Element](nrow, ncol int) (*Dense[T], error) {
	dims := Dims{nrow, ncol}
	if err := dims.Valid(); err != nil {
		return nil, err
	}
	return &Dense[T]{dims: dims, buf: make([]T, dims.Len())}, nil
}

func (m *Dense[T]) Dims() Dims { return m.dims }

func (m *Dense[T]) Get(r, c int) (T, error) {
	if err := m.dims.CellBounds(r, c); err != nil {
		var zero T
		return zero, err
	}
	return m.buf[r+c*m.dims.Nrow], nil
}

func (m *Dense[T]) GetRow(r, first, last int, dst []T) error {
	if err := m.dims.RowBounds(r, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(dst), last-first); err != nil {
		return err
	}
	off := r + first*m.dims.Nrow
	for k := range last - first {
		dst[k] = m.buf[off]
		off += m.dims.Nrow
	}
	return nil
}

func (m *Dense[T]) GetCol(c, first, last int, dst []T) error {
	if err := m.dims.ColBounds(c, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(dst), last-first); err != nil {
		return err
	}
	off := c * m.dims.Nrow
	copy(dst, m.buf[off+first:off+last])
	return nil
}

func (m *Dense[T]) Set(r, c int, v T) error {
	if err := m.dims.CellBounds(r, c); err != nil {
		return err
	}
	m.buf[r+c*m.dims.Nrow] = v
	return nil
}

func (m *Dense[T]) SetRow(r, first, last int, src []T) error {
	if err := m.dims.RowBounds(r, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(src), last-first); err != nil {
		return err
	}
	off := r + first*m.dims.Nrow
	for k := range last - first {
		m.buf[off] = src[k]
		off += m.dims.Nrow
	}
	return nil
}

func (m *Dense[T]) SetCol(c, first, last int, src []T) error {
	if err := m.dims.ColBounds(c, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(src), last-first); err != nil {
		return err
	}
	off := c * m.dims.Nrow
	copy(m.buf[off+first:off+last], src[:last-first])
	return nil
}

// Finalize returns a copy of the contents.
func (m *Dense[T]) Finalize() (Descriptor, error) {
	return DenseData{Nrow: m.dims.Nrow, Ncol: m.dims.Ncol, Values: append([]T(nil), m.buf...)}, nil
}
