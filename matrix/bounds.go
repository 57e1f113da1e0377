package matrix

import "fmt"

// Dims is the shape of a matrix. Both extents are non-negative and fixed for
// the lifetime of a backend.
type Dims struct {
	Nrow int
	Ncol int
}

// Valid reports an error if either extent is negative.
func (d Dims) Valid() error {
	if d.Nrow < 0 || d.Ncol < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrMalformedInput, d.Nrow, d.Ncol)
	}
	return nil
}

// Len returns Nrow*Ncol.
func (d Dims) Len() int {
	return d.Nrow * d.Ncol
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%d", d.Nrow, d.Ncol)
}

// RowBounds validates access to row r over the columns [first, last).
func (d Dims) RowBounds(r, first, last int) error {
	if r < 0 || r >= d.Nrow {
		return fmt.Errorf("%w: row %d of %s matrix", ErrOutOfRange, r, d)
	}
	return checkRange("column", first, last, d.Ncol)
}

// ColBounds validates access to column c over the rows [first, last).
func (d Dims) ColBounds(c, first, last int) error {
	if c < 0 || c >= d.Ncol {
		return fmt.Errorf("%w: column %d of %s matrix", ErrOutOfRange, c, d)
	}
	return checkRange("row", first, last, d.Nrow)
}

// CellBounds validates access to cell (r, c).
func (d Dims) CellBounds(r, c int) error {
	if r < 0 || r >= d.Nrow {
		return fmt.Errorf("%w: row %d of %s matrix", ErrOutOfRange, r, d)
	}
	if c < 0 || c >= d.Ncol {
		return fmt.Errorf("%w: column %d of %s matrix", ErrOutOfRange, c, d)
	}
	return nil
}

func checkRange(what string, first, last, extent int) error {
	switch {
	case first < 0:
		return fmt.Errorf("%w: %s range starts at %d", ErrOutOfRange, what, first)
	case last < first:
		return fmt.Errorf("%w: %s range [%d, %d) ends before it starts", ErrOutOfRange, what, first, last)
	case last > extent:
		return fmt.Errorf("%w: %s range [%d, %d) exceeds %d", ErrOutOfRange, what, first, last, extent)
	}
	return nil
}

// checkBuffer validates that a caller buffer holds at least n values.
func checkBuffer(have, n int) error {
	if have < n {
		return fmt.Errorf("%w: buffer holds %d values, range needs %d", ErrOutOfRange, have, n)
	}
	return nil
}
