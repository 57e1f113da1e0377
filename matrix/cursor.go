package matrix

import "slices"

// sparseCursor tracks, for a window of columns [first, last), the position
// of the first entry of each column whose row is at least row (or the end
// of the column). Consecutive row requests move it by one step per column;
// other jumps fall back to a binary search bounded by the old position.
type sparseCursor struct {
	row   int
	first int
	last  int
	index []int
	valid bool
}

// reset points every column of the new window at its first entry.
func (cur *sparseCursor) reset(p []int, first, last int) {
	cur.first, cur.last = first, last
	cur.row = 0
	cur.index = slices.Grow(cur.index[:0], last-first)[:last-first]
	for k := range cur.index {
		cur.index[k] = p[first+k]
	}
	cur.valid = true
}

// moveTo brings the cursor to row r over the window [first, last).
func (cur *sparseCursor) moveTo(p, rows []int, r, first, last int) {
	if !cur.valid || first != cur.first || last != cur.last {
		cur.reset(p, first, last)
	}

	switch {
	case r == cur.row:
		return

	case r == cur.row+1:
		for k, pos := range cur.index {
			if pos < p[first+k+1] && rows[pos] < r {
				cur.index[k] = pos + 1
			}
		}

	case r == cur.row-1:
		for k, pos := range cur.index {
			if pos > p[first+k] && rows[pos-1] >= r {
				cur.index[k] = pos - 1
			}
		}

	case r > cur.row:
		for k, pos := range cur.index {
			end := p[first+k+1]
			off, _ := slices.BinarySearch(rows[pos:end], r)
			cur.index[k] = pos + off
		}

	default:
		for k, pos := range cur.index {
			start := p[first+k]
			off, _ := slices.BinarySearch(rows[start:pos], r)
			cur.index[k] = start + off
		}
	}
	cur.row = r
}
