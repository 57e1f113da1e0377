package layout

// overlap returns the intersection of the slab with the chunk starting at
// origin, clipped to the dataset dims.
func overlap(s Slab, origin, chunk, dims [2]uint64) (lo, hi [2]uint64, ok bool) {
	end := s.End()
	for d := 0; d < 2; d++ {
		lo[d] = max(s.Start[d], origin[d])
		hi[d] = min(end[d], origin[d]+chunk[d], dims[d])
		if lo[d] >= hi[d] {
			return lo, hi, false
		}
	}
	return lo, hi, true
}

// CopyOut copies the part of a decoded chunk that overlaps the slab into
// dst, which holds the slab row-major.
func (g Grid) CopyOut(dst []byte, s Slab, chunk []byte, idx, elemSize uint64) {
	origin := g.Origin(idx)
	lo, hi, ok := overlap(s, origin, g.Chunk, g.Dims)
	if !ok {
		return
	}
	n := (hi[1] - lo[1]) * elemSize
	for i := lo[0]; i < hi[0]; i++ {
		src := ((i-origin[0])*g.Chunk[1] + (lo[1] - origin[1])) * elemSize
		out := ((i-s.Start[0])*s.Count[1] + (lo[1] - s.Start[1])) * elemSize
		copy(dst[out:out+n], chunk[src:src+n])
	}
}

// CopyIn is the inverse of CopyOut: it copies the slab's overlap with the
// chunk from src into the chunk buffer.
func (g Grid) CopyIn(chunk []byte, s Slab, src []byte, idx, elemSize uint64) {
	origin := g.Origin(idx)
	lo, hi, ok := overlap(s, origin, g.Chunk, g.Dims)
	if !ok {
		return
	}
	n := (hi[1] - lo[1]) * elemSize
	for i := lo[0]; i < hi[0]; i++ {
		dst := ((i-origin[0])*g.Chunk[1] + (lo[1] - origin[1])) * elemSize
		in := ((i-s.Start[0])*s.Count[1] + (lo[1] - s.Start[1])) * elemSize
		copy(chunk[dst:dst+n], src[in:in+n])
	}
}

// ContiguousRuns calls fn once per contiguous run that the slab occupies in
// row-major storage of dims. fileOff and bufOff are byte offsets into the
// stored data and the row-major slab buffer; n is the run length in bytes.
// Runs on adjacent rows merge when the slab spans full rows.
func ContiguousRuns(dims [2]uint64, s Slab, elemSize uint64, fn func(fileOff, bufOff, n uint64) error) error {
	if s.Len() == 0 {
		return nil
	}
	if s.Count[1] == dims[1] {
		return fn(s.Start[0]*dims[1]*elemSize, 0, s.Len()*elemSize)
	}
	n := s.Count[1] * elemSize
	for i := uint64(0); i < s.Count[0]; i++ {
		fileOff := ((s.Start[0]+i)*dims[1] + s.Start[1]) * elemSize
		if err := fn(fileOff, i*n, n); err != nil {
			return err
		}
	}
	return nil
}
