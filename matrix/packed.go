package matrix

import "fmt"

// Packed is a symmetric matrix of which only one triangle is stored, packed
// column by column.
//
// For the upper triangle, cell (r, c) with M = max(r, c) and m = min(r, c)
// lives at M(M+1)/2 + m. For the lower triangle it lives at
// n*m - m(m-1)/2 + (M-m).
type Packed[T Element] struct {
	n     int
	upper bool
	buf   []T
}

// NewPacked copies a packed triangle.
func NewPacked[T Element](d PackedData) (*Packed[T], error) {
	if d.N < 0 {
		return nil, fmt.Errorf("%w: negative order %d", ErrMalformedInput, d.N)
	}
	var upper bool
	switch d.Uplo {
	case 'U', 'u':
		upper = true
	case 'L', 'l':
	default:
		return nil, fmt.Errorf("%w: uplo %q, want 'U' or 'L'", ErrMalformedInput, d.Uplo)
	}
	values, err := castValues[T]("x", d.X)
	if err != nil {
		return nil, err
	}
	if want := d.N * (d.N + 1) / 2; len(values) != want {
		return nil, fmt.Errorf("%w: packed buffer of %d values, order %d needs %d", ErrMalformedInput, len(values), d.N, want)
	}
	return &Packed[T]{n: d.N, upper: upper, buf: append([]T(nil), values...)}, nil
}

func (m *Packed[T]) Dims() Dims { return Dims{m.n, m.n} }

// Upper reports whether the upper triangle is stored.
func (m *Packed[T]) Upper() bool { return m.upper }

func (m *Packed[T]) offset(r, c int) int {
	hi, lo := max(r, c), min(r, c)
	if m.upper {
		return hi*(hi+1)/2 + lo
	}
	return m.n*lo - lo*(lo-1)/2 + (hi - lo)
}

func (m *Packed[T]) Get(r, c int) (T, error) {
	if err := m.Dims().CellBounds(r, c); err != nil {
		var zero T
		return zero, err
	}
	return m.buf[m.offset(r, c)], nil
}

func (m *Packed[T]) GetRow(r, first, last int, dst []T) error {
	if err := m.Dims().RowBounds(r, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(dst), last-first); err != nil {
		return err
	}
	m.extract(r, first, last, dst)
	return nil
}

// GetCol returns the same values as GetRow: column c equals row c.
func (m *Packed[T]) GetCol(c, first, last int, dst []T) error {
	if err := m.Dims().ColBounds(c, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(dst), last-first); err != nil {
		return err
	}
	m.extract(c, first, last, dst)
	return nil
}

// extract walks row i over [first, last). One side of the diagonal is
// contiguous in the buffer; on the other side the stride grows by one per
// step (upper) or shrinks by one (lower).
func (m *Packed[T]) extract(i, first, last int, dst []T) {
	if first >= last {
		return
	}
	k := 0
	if m.upper {
		// j < i: stored in column i, contiguous.
		if first < i {
			off := m.offset(i, first)
			for j := first; j < min(i, last); j++ {
				dst[k] = m.buf[off]
				off++
				k++
			}
		}
		// j >= i: row i of column j, column j starts j+1 after column j-1.
		j := max(first, i)
		if j < last {
			off := m.offset(i, j)
			for ; j < last; j++ {
				dst[k] = m.buf[off]
				off += j + 1
				k++
			}
		}
		return
	}

	// j <= i: row i of column j, column j holds n-j values.
	if first <= i {
		off := m.offset(i, first)
		for j := first; j < min(i+1, last); j++ {
			dst[k] = m.buf[off]
			off += m.n - j - 1
			k++
		}
	}
	// j > i: stored in column i, contiguous.
	j := max(first, i+1)
	if j < last {
		off := m.offset(i, j)
		for ; j < last; j++ {
			dst[k] = m.buf[off]
			off++
			k++
		}
	}
}
