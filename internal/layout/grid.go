package layout

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// Slab is a rectangular selection: Count elements along each dimension
// starting at Start.
type Slab struct {
	Start [2]uint64
	Count [2]uint64
}

// End returns the exclusive end of the slab along each dimension.
func (s Slab) End() [2]uint64 {
	return [2]uint64{s.Start[0] + s.Count[0], s.Start[1] + s.Count[1]}
}

// Len returns the number of elements in the slab.
func (s Slab) Len() uint64 {
	return s.Count[0] * s.Count[1]
}

// Within checks that the slab lies inside dims.
func (s Slab) Within(dims [2]uint64) error {
	for d := 0; d < 2; d++ {
		if s.Start[d] > dims[d] || s.Count[d] > dims[d]-s.Start[d] {
			return fmt.Errorf("slab out of bounds: dimension %d, start=%d, count=%d, size=%d",
				d, s.Start[d], s.Count[d], dims[d])
		}
	}
	return nil
}

// Grid is the chunk tiling of a dataset.
type Grid struct {
	Dims  [2]uint64
	Chunk [2]uint64
}

// NewGrid validates a chunk shape against the dataset dims.
// Chunk numbers must fit in 32 bits.
func NewGrid(dims, chunk [2]uint64) (Grid, error) {
	g := Grid{Dims: dims, Chunk: chunk}
	for d := 0; d < 2; d++ {
		if chunk[d] == 0 {
			return Grid{}, fmt.Errorf("chunk dimension %d is zero", d)
		}
		if dims[d] > 0 && chunk[d] > dims[d] {
			return Grid{}, fmt.Errorf("chunk dimension %d (%d) exceeds dataset dimension (%d)", d, chunk[d], dims[d])
		}
	}
	if g.NumChunks() > math.MaxUint32 {
		return Grid{}, fmt.Errorf("%d chunks exceed the index limit", g.NumChunks())
	}
	return g, nil
}

// Counts returns the number of chunks along each dimension.
func (g Grid) Counts() [2]uint64 {
	return [2]uint64{ceilDiv(g.Dims[0], g.Chunk[0]), ceilDiv(g.Dims[1], g.Chunk[1])}
}

// NumChunks returns the total number of chunks.
func (g Grid) NumChunks() uint64 {
	c := g.Counts()
	return c[0] * c[1]
}

// ChunkElements returns the number of elements in one (padded) chunk.
func (g Grid) ChunkElements() uint64 {
	return g.Chunk[0] * g.Chunk[1]
}

// Index returns the linear number of the chunk at chunk coordinates c.
func (g Grid) Index(c [2]uint64) uint64 {
	return c[0]*g.Counts()[1] + c[1]
}

// Origin returns the element coordinates of the first element of chunk idx.
func (g Grid) Origin(idx uint64) [2]uint64 {
	n := g.Counts()[1]
	return [2]uint64{(idx / n) * g.Chunk[0], (idx % n) * g.Chunk[1]}
}

// Range returns the chunk-coordinate box [lo, hi) overlapping the slab.
// An empty slab yields an empty box.
func (g Grid) Range(s Slab) (lo, hi [2]uint64) {
	if s.Len() == 0 {
		return lo, lo
	}
	end := s.End()
	for d := 0; d < 2; d++ {
		lo[d] = s.Start[d] / g.Chunk[d]
		hi[d] = ceilDiv(end[d], g.Chunk[d])
	}
	return lo, hi
}

// Overlapping calls fn with the number of each chunk overlapping the slab,
// in ascending order. Iteration stops at the first error.
func (g Grid) Overlapping(s Slab, fn func(idx uint64) error) error {
	lo, hi := g.Range(s)
	for c0 := lo[0]; c0 < hi[0]; c0++ {
		for c1 := lo[1]; c1 < hi[1]; c1++ {
			if err := fn(g.Index([2]uint64{c0, c1})); err != nil {
				return err
			}
		}
	}
	return nil
}

// Chunks returns the set of chunk numbers overlapping the slab.
func (g Grid) Chunks(s Slab) *roaring.Bitmap {
	set := roaring.New()
	lo, hi := g.Range(s)
	for c0 := lo[0]; c0 < hi[0]; c0++ {
		first := g.Index([2]uint64{c0, lo[1]})
		set.AddRange(first, first+hi[1]-lo[1])
	}
	return set
}

// Covers reports whether the slab covers every in-bounds element of chunk idx.
func (g Grid) Covers(s Slab, idx uint64) bool {
	origin := g.Origin(idx)
	end := s.End()
	for d := 0; d < 2; d++ {
		chunkEnd := min(origin[d]+g.Chunk[d], g.Dims[d])
		if s.Start[d] > origin[d] || end[d] < chunkEnd {
			return false
		}
	}
	return true
}

func ceilDiv(a, b uint64) uint64 {
	if a == 0 {
		return 0
	}
	return (a-1)/b + 1
}
