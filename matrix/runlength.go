package matrix

import (
	"fmt"
	"slices"
)

// RunLength is a matrix stored as column-major runs of repeated values.
type RunLength[T Element] struct {
	dims   Dims
	values []T
	ends   []int // exclusive end position of each run

	// Row access cursor: run index of each column in the window at row.
	row   int
	first int
	last  int
	runs  []int
	valid bool
}

// NewRunLength validates and copies run-length arrays.
func NewRunLength[T Element](d RunLengthData) (*RunLength[T], error) {
	dims := d.Shape()
	if err := dims.Valid(); err != nil {
		return nil, err
	}
	values, err := castValues[T]("values", d.Values)
	if err != nil {
		return nil, err
	}
	if len(values) != len(d.Lengths) {
		return nil, fmt.Errorf("%w: %d values for %d run lengths", ErrMalformedInput, len(values), len(d.Lengths))
	}

	// Empty runs carry no cells and are dropped.
	m := &RunLength[T]{dims: dims}
	total := 0
	for k, n := range d.Lengths {
		if n < 0 {
			return nil, fmt.Errorf("%w: run %d has negative length %d", ErrMalformedInput, k, n)
		}
		if n == 0 {
			continue
		}
		if n > dims.Len()-total {
			return nil, fmt.Errorf("%w: run %d of length %d overruns %s matrix", ErrMalformedInput, k, n, dims)
		}
		total += n
		m.values = append(m.values, values[k])
		m.ends = append(m.ends, total)
	}
	if total != dims.Len() {
		return nil, fmt.Errorf("%w: runs cover %d cells of %s matrix", ErrMalformedInput, total, dims)
	}
	return m, nil
}

func (m *RunLength[T]) Dims() Dims { return m.dims }

// runAt returns the index of the run holding column-major position pos.
func (m *RunLength[T]) runAt(pos int) int {
	k, ok := slices.BinarySearch(m.ends, pos)
	if ok {
		k++
	}
	return k
}

func (m *RunLength[T]) Get(r, c int) (T, error) {
	if err := m.dims.CellBounds(r, c); err != nil {
		var zero T
		return zero, err
	}
	return m.values[m.runAt(r+c*m.dims.Nrow)], nil
}

func (m *RunLength[T]) GetCol(c, first, last int, dst []T) error {
	if err := m.dims.ColBounds(c, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(dst), last-first); err != nil {
		return err
	}
	if first == last {
		return nil
	}
	base := c * m.dims.Nrow
	k := m.runAt(base + first)
	for pos := base + first; pos < base+last; pos++ {
		for m.ends[k] <= pos {
			k++
		}
		dst[pos-base-first] = m.values[k]
	}
	return nil
}

func (m *RunLength[T]) GetRow(r, first, last int, dst []T) error {
	if err := m.dims.RowBounds(r, first, last); err != nil {
		return err
	}
	if err := checkBuffer(len(dst), last-first); err != nil {
		return err
	}

	sequential := m.valid && first == m.first && last == m.last && r >= m.row
	if !sequential {
		m.first, m.last = first, last
		m.runs = slices.Grow(m.runs[:0], last-first)[:last-first]
		m.valid = true
	}
	for k := range m.runs {
		pos := r + (first+k)*m.dims.Nrow
		if sequential {
			for m.ends[m.runs[k]] <= pos {
				m.runs[k]++
			}
		} else {
			m.runs[k] = m.runAt(pos)
		}
		dst[k] = m.values[m.runs[k]]
	}
	m.row = r
	return nil
}
