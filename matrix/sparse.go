package matrix

import (
	"fmt"
	"slices"
)

// Sparse is a compressed sparse column matrix. Cells without an entry read
// as the zero value of T.
//
// Row access goes through an incremental cursor, so a Sparse is not safe
// for concurrent use even when only reading.
type Sparse[T Element] struct {
	dims   Dims
	p      []int
	i      []int
	x      []T
	cursor sparseCursor
}

// NewSparse validates and copies CSC arrays. String values are not
// supported.
func NewSparse[T Element](d CSCData) (*Sparse[T], error) {
	if KindOf[T]() == String {
		return nil, fmt.Errorf("%w: sparse storage of string values", ErrUnsupportedEncoding)
	}
	dims := d.Shape()
	if err := dims.Valid(); err != nil {
		return nil, err
	}
	x, err := castValues[T]("x", d.X)
	if err != nil {
		return nil, err
	}
	if err := validateCSC(dims, d.P, d.I, len(x)); err != nil {
		return nil, err
	}
	return &Sparse[T]{
		dims: dims,
		p:    slices.Clone(d.P),
		i:    slices.Clone(d.I),
		x:    slices.Clone(x),
	}, nil
}

func validateCSC(dims Dims, p, i []int, nx int) error {
	if len(p) != dims.Ncol+1 {
		return fmt.Errorf("%w: p has length %d, want ncol+1 = %d", ErrMalformedInput, len(p), dims.Ncol+1)
	}
	if p[0] != 0 {
		return fmt.Errorf("%w: p[0] = %d, want 0", ErrMalformedInput, p[0])
	}
	if nnz := p[dims.Ncol]; nnz != len(i) || nnz != nx {
		return fmt.Errorf("%w: p[ncol] = %d, i has %d entries, x has %d", ErrMalformedInput, nnz, len(i), nx)
	}
	nnz := len(i)
	for c := range dims.Ncol {
		if p[c+1] < p[c] {
			return fmt.Errorf("%w: column pointers decrease at column %d", ErrMalformedInput, c)
		}
		if p[c+1] > nnz {
			return fmt.Errorf("%w: p[%d] = %d exceeds %d entries", ErrMalformedInput, c+1, p[c+1], nnz)
		}
	}
	for c := range dims.Ncol {
		prev := -1
		for k := p[c]; k < p[c+1]; k++ {
			r := i[k]
			if r < 0 || r >= dims.Nrow {
				return fmt.Errorf("%w: row index %d in column %d outside [0, %d)", ErrMalformedInput, r, c, dims.Nrow)
			}
			if r <= prev {
				return fmt.Errorf("%w: row indices not strictly increasing in column %d", ErrMalformedInput, c)
			}
			prev = r
		}
	}
	return nil
}

func (m *Sparse[T]) Dims() Dims { return m.dims }

// NonZero returns the number of stored entries.
func (m *Sparse[T]) NonZero() int { return len(m.x) }

func (m *Sparse[T]) Get(r, c int) (T, error) {
	var zero T
	if err := m.dims.CellBounds(r, c); err != nil {
		return zero, err
	}
	start, end := m.p[c], m.p[c+1]
	if k, ok := slices.BinarySearch(m.i[start:end], r); ok {
		return m.x[start+k], nil
	}
	return zero, nil
}

func (m *Sparse[T]) GetCol(c, first, last int, dst []T) error {
	if err := m.dims.ColBounds(c, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(dst), last-first); err != nil {
		return err
	}
	clear(dst[:last-first])
	rows := m.i[m.p[c]:m.p[c+1]]
	lo, _ := slices.BinarySearch(rows, first)
	hi, _ := slices.BinarySearch(rows, last)
	vals := m.x[m.p[c]:m.p[c+1]]
	for k := lo; k < hi; k++ {
		dst[rows[k]-first] = vals[k]
	}
	return nil
}

func (m *Sparse[T]) GetRow(r, first, last int, dst []T) error {
	if err := m.dims.RowBounds(r, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(dst), last-first); err != nil {
		return err
	}
	m.cursor.moveTo(m.p, m.i, r, first, last)
	var zero T
	for k, pos := range m.cursor.index {
		c := first + k
		if pos < m.p[c+1] && m.i[pos] == r {
			dst[k] = m.x[pos]
		} else {
			dst[k] = zero
		}
	}
	return nil
}

// Describe returns a descriptor of copies of the stored arrays.
func (m *Sparse[T]) Describe() CSCData {
	return CSCData{
		Nrow: m.dims.Nrow,
		Ncol: m.dims.Ncol,
		P:    slices.Clone(m.p),
		I:    slices.Clone(m.i),
		X:    slices.Clone(m.x),
	}
}
