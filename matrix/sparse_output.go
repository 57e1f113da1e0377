package matrix

import (
	"fmt"
	"slices"
)

// sparseColumn holds the entries of one column with strictly increasing
// rows. Zero values are never stored.
type sparseColumn[T Element] struct {
	rows []int
	vals []T
}

// find returns the position of row r, or where it would be inserted.
func (col *sparseColumn[T]) find(r int) (int, bool) {
	return slices.BinarySearch(col.rows, r)
}

// put stores v at row r, deleting the entry when v is zero.
func (col *sparseColumn[T]) put(r int, v T) {
	var zero T
	k, ok := col.find(r)
	switch {
	case ok && v == zero:
		col.rows = slices.Delete(col.rows, k, k+1)
		col.vals = slices.Delete(col.vals, k, k+1)
	case ok:
		col.vals[k] = v
	case v != zero:
		col.rows = slices.Insert(col.rows, k, r)
		col.vals = slices.Insert(col.vals, k, v)
	}
}

// replace rebuilds the column with the rows [first, last) taken from src.
// Entries outside the range are kept as they are.
func (col *sparseColumn[T]) replace(first, last int, src []T) {
	var zero T
	lo, _ := col.find(first)
	hi, _ := col.find(last)

	n := 0
	for _, v := range src[:last-first] {
		if v != zero {
			n++
		}
	}
	rows := make([]int, 0, lo+n+len(col.rows)-hi)
	vals := make([]T, 0, cap(rows))
	rows = append(rows, col.rows[:lo]...)
	vals = append(vals, col.vals[:lo]...)
	for k, v := range src[:last-first] {
		if v != zero {
			rows = append(rows, first+k)
			vals = append(vals, v)
		}
	}
	rows = append(rows, col.rows[hi:]...)
	vals = append(vals, col.vals[hi:]...)
	col.rows, col.vals = rows, vals
}

// SparseOutput builds a CSC matrix incrementally in any order. Writing a
// zero removes an existing entry.
type SparseOutput[T Element] struct {
	dims Dims
	cols []sparseColumn[T]
}

// NewSparseOutput returns an empty sparse builder. String values are not
// supported.
func NewSparseOutput[T Element](nrow, ncol int) (*SparseOutput[T], error) {
	if KindOf[T]() == String {
		return nil, fmt.Errorf("%w: sparse storage of string values", ErrUnsupportedEncoding)
	}
	dims := Dims{nrow, ncol}
	if err := dims.Valid(); err != nil {
		return nil, err
	}
	return &SparseOutput[T]{dims: dims, cols: make([]sparseColumn[T], ncol)}, nil
}

func (m *SparseOutput[T]) Dims() Dims { return m.dims }

// NonZero returns the number of entries currently stored.
func (m *SparseOutput[T]) NonZero() int {
	n := 0
	for _, col := range m.cols {
		n += len(col.rows)
	}
	return n
}

func (m *SparseOutput[T]) Get(r, c int) (T, error) {
	var zero T
	if err := m.dims.CellBounds(r, c); err != nil {
		return zero, err
	}
	col := &m.cols[c]
	if k, ok := col.find(r); ok {
		return col.vals[k], nil
	}
	return zero, nil
}

func (m *SparseOutput[T]) GetRow(r, first, last int, dst []T) error {
	if err := m.dims.RowBounds(r, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(dst), last-first); err != nil {
		return err
	}
	var zero T
	for c := first; c < last; c++ {
		col := &m.cols[c]
		if k, ok := col.find(r); ok {
			dst[c-first] = col.vals[k]
		} else {
			dst[c-first] = zero
		}
	}
	return nil
}

func (m *SparseOutput[T]) GetCol(c, first, last int, dst []T) error {
	if err := m.dims.ColBounds(c, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(dst), last-first); err != nil {
		return err
	}
	clear(dst[:last-first])
	col := &m.cols[c]
	lo, _ := col.find(first)
	for k := lo; k < len(col.rows) && col.rows[k] < last; k++ {
		dst[col.rows[k]-first] = col.vals[k]
	}
	return nil
}

// Set is a single-column SetRow.
func (m *SparseOutput[T]) Set(r, c int, v T) error {
	return m.SetRow(r, c, c+1, []T{v})
}

func (m *SparseOutput[T]) SetRow(r, first, last int, src []T) error {
	if err := m.dims.RowBounds(r, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(src), last-first); err != nil {
		return err
	}
	for c := first; c < last; c++ {
		m.cols[c].put(r, src[c-first])
	}
	return nil
}

func (m *SparseOutput[T]) SetCol(c, first, last int, src []T) error {
	if err := m.dims.ColBounds(c, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(src), last-first); err != nil {
		return err
	}
	m.cols[c].replace(first, last, src)
	return nil
}

// Finalize flattens the columns into CSC arrays. The builder stays usable.
func (m *SparseOutput[T]) Finalize() (Descriptor, error) {
	nnz := m.NonZero()
	out := CSCData{
		Nrow: m.dims.Nrow,
		Ncol: m.dims.Ncol,
		P:    make([]int, m.dims.Ncol+1),
		I:    make([]int, 0, nnz),
	}
	x := make([]T, 0, nnz)
	for c, col := range m.cols {
		out.P[c+1] = out.P[c] + len(col.rows)
		out.I = append(out.I, col.rows...)
		x = append(x, col.vals...)
	}
	out.X = x
	return out, nil
}
