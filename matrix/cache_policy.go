package matrix

import "fmt"

// CachePolicy decides when a chunked backend must reopen its file with a
// chunk cache sized for one full stripe of chunks.
//
// A row stripe is every chunk crossed by one matrix row; a column stripe is
// every chunk crossed by one column. A stripe fits when its cost is at most
// the cache limit. While one mode is active, access in the other direction
// is served without a reopen if its stripe costs no more than the active
// one.
type CachePolicy struct {
	Contiguous bool
	RowCost    int64 // bytes of one row stripe
	ColCost    int64 // bytes of one column stripe
	RowFits    bool
	ColFits    bool
	RowCheaper bool
	ColCheaper bool

	onRow bool
	onCol bool
}

// ContiguousPolicy returns the policy of contiguous storage, where both
// directions are always served.
func ContiguousPolicy() CachePolicy {
	return CachePolicy{
		Contiguous: true,
		RowFits:    true,
		ColFits:    true,
		RowCheaper: true,
		ColCheaper: true,
		onRow:      true,
		onCol:      true,
	}
}

// NewCachePolicy computes the policy for a chunked nrow×ncol dataset. It
// fails with ErrCacheLimitExceeded when neither stripe fits. The initial
// mode is the cheapest stripe that fits.
func NewCachePolicy(dims Dims, chunks ChunkDims, elemSize int, limit int64) (CachePolicy, error) {
	if chunks.Rows <= 0 || chunks.Cols <= 0 {
		return CachePolicy{}, fmt.Errorf("%w: chunk dimensions %s", ErrMalformedInput, chunks)
	}
	chunkBytes := int64(chunks.Rows) * int64(chunks.Cols) * int64(elemSize)
	p := CachePolicy{
		RowCost: int64(ceilDiv(dims.Ncol, chunks.Cols)) * chunkBytes,
		ColCost: int64(ceilDiv(dims.Nrow, chunks.Rows)) * chunkBytes,
	}
	p.RowFits = p.RowCost <= limit
	p.ColFits = p.ColCost <= limit
	p.RowCheaper = p.RowCost <= p.ColCost
	p.ColCheaper = p.ColCost <= p.RowCost

	switch {
	case p.RowFits && (p.RowCheaper || !p.ColFits):
		p.onRow = true
	case p.ColFits:
		p.onCol = true
	default:
		return p, fmt.Errorf("%w: row stripe of %d bytes and column stripe of %d bytes exceed limit %d with %s chunks",
			ErrCacheLimitExceeded, p.RowCost, p.ColCost, limit, chunks)
	}
	return p, nil
}

// OnRow reports whether the cache is sized for row stripes.
func (p CachePolicy) OnRow() bool { return p.onRow }

// OnCol reports whether the cache is sized for column stripes.
func (p CachePolicy) OnCol() bool { return p.onCol }

// Cost returns the stripe cost of the active mode.
func (p CachePolicy) Cost() int64 {
	switch {
	case p.Contiguous:
		return 0
	case p.onRow:
		return p.RowCost
	default:
		return p.ColCost
	}
}

// Serves reports whether access in the given direction works with the
// cache as it is.
func (p CachePolicy) Serves(byRow bool) bool {
	if byRow {
		return p.onRow || (p.onCol && p.RowCheaper)
	}
	return p.onCol || (p.onRow && p.ColCheaper)
}

// Plan returns whether access in the given direction needs a reopen, and
// the cache size to reopen with. It fails with ErrCacheLimitExceeded when
// the stripe does not fit.
func (p CachePolicy) Plan(byRow bool) (reopen bool, cacheBytes int64, err error) {
	if p.Serves(byRow) {
		return false, 0, nil
	}
	if byRow {
		if !p.RowFits {
			return false, 0, fmt.Errorf("%w: row access needs %d bytes of cache; repack with wider chunks", ErrCacheLimitExceeded, p.RowCost)
		}
		return true, p.RowCost, nil
	}
	if !p.ColFits {
		return false, 0, fmt.Errorf("%w: column access needs %d bytes of cache; repack with taller chunks", ErrCacheLimitExceeded, p.ColCost)
	}
	return true, p.ColCost, nil
}

// Switch marks the given direction as the active mode.
func (p *CachePolicy) Switch(byRow bool) {
	if p.Contiguous {
		return
	}
	p.onRow, p.onCol = byRow, !byRow
}
