package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatami-inc/beachmat-go/internal/binary"
)

func TestGridGeometry(t *testing.T) {
	g, err := NewGrid([2]uint64{10, 7}, [2]uint64{4, 3})
	require.NoError(t, err)

	assert.Equal(t, [2]uint64{3, 3}, g.Counts())
	assert.Equal(t, uint64(9), g.NumChunks())
	assert.Equal(t, uint64(12), g.ChunkElements())
	assert.Equal(t, uint64(5), g.Index([2]uint64{1, 2}))
	assert.Equal(t, [2]uint64{4, 6}, g.Origin(5))

	var seen []uint64
	require.NoError(t, g.Overlapping(Slab{Start: [2]uint64{3, 2}, Count: [2]uint64{2, 2}}, func(idx uint64) error {
		seen = append(seen, idx)
		return nil
	}))
	assert.Equal(t, []uint64{0, 1, 3, 4}, seen)
}

func TestGridValidation(t *testing.T) {
	_, err := NewGrid([2]uint64{10, 10}, [2]uint64{0, 1})
	assert.Error(t, err)
	_, err = NewGrid([2]uint64{10, 10}, [2]uint64{11, 1})
	assert.Error(t, err)
	g, err := NewGrid([2]uint64{0, 10}, [2]uint64{5, 5})
	require.NoError(t, err)
	assert.Zero(t, g.NumChunks())
}

func TestSlabWithin(t *testing.T) {
	dims := [2]uint64{5, 5}
	assert.NoError(t, Slab{Start: [2]uint64{0, 0}, Count: [2]uint64{5, 5}}.Within(dims))
	assert.NoError(t, Slab{Start: [2]uint64{5, 0}, Count: [2]uint64{0, 5}}.Within(dims))
	assert.Error(t, Slab{Start: [2]uint64{4, 0}, Count: [2]uint64{2, 1}}.Within(dims))
	assert.Error(t, Slab{Start: [2]uint64{6, 0}, Count: [2]uint64{0, 1}}.Within(dims))
}

func TestCovers(t *testing.T) {
	g, err := NewGrid([2]uint64{5, 5}, [2]uint64{2, 2})
	require.NoError(t, err)
	all := Slab{Count: [2]uint64{5, 5}}
	for idx := uint64(0); idx < g.NumChunks(); idx++ {
		assert.True(t, g.Covers(all, idx))
	}
	// The edge chunk only needs its in-bounds element.
	assert.True(t, g.Covers(Slab{Start: [2]uint64{4, 4}, Count: [2]uint64{1, 1}}, 8))
	assert.False(t, g.Covers(Slab{Start: [2]uint64{0, 0}, Count: [2]uint64{1, 2}}, 0))
}

// fill returns a row-major buffer of dims where element (i, j) holds i*10+j.
func fill(dims [2]uint64) []byte {
	out := make([]byte, dims[0]*dims[1])
	for i := uint64(0); i < dims[0]; i++ {
		for j := uint64(0); j < dims[1]; j++ {
			out[i*dims[1]+j] = byte(i*10 + j)
		}
	}
	return out
}

func TestCopyRoundTripThroughChunks(t *testing.T) {
	dims := [2]uint64{7, 5}
	g, err := NewGrid(dims, [2]uint64{3, 2})
	require.NoError(t, err)

	full := Slab{Count: dims}
	src := fill(dims)

	chunks := make([][]byte, g.NumChunks())
	for idx := range chunks {
		chunks[idx] = make([]byte, g.ChunkElements())
		g.CopyIn(chunks[idx], full, src, uint64(idx), 1)
	}

	sel := Slab{Start: [2]uint64{2, 1}, Count: [2]uint64{4, 3}}
	got := make([]byte, sel.Len())
	require.NoError(t, g.Overlapping(sel, func(idx uint64) error {
		g.CopyOut(got, sel, chunks[idx], idx, 1)
		return nil
	}))

	want := make([]byte, 0, sel.Len())
	for i := uint64(2); i < 6; i++ {
		for j := uint64(1); j < 4; j++ {
			want = append(want, byte(i*10+j))
		}
	}
	assert.Equal(t, want, got)
}

func TestContiguousRuns(t *testing.T) {
	dims := [2]uint64{4, 6}
	type run struct{ file, buf, n uint64 }

	var runs []run
	collect := func(f, b, n uint64) error {
		runs = append(runs, run{f, b, n})
		return nil
	}

	require.NoError(t, ContiguousRuns(dims, Slab{Start: [2]uint64{1, 2}, Count: [2]uint64{2, 3}}, 8, collect))
	assert.Equal(t, []run{{(6 + 2) * 8, 0, 24}, {(12 + 2) * 8, 24, 24}}, runs)

	runs = nil
	require.NoError(t, ContiguousRuns(dims, Slab{Start: [2]uint64{1, 0}, Count: [2]uint64{3, 6}}, 8, collect))
	assert.Equal(t, []run{{48, 0, 144}}, runs)
}

func TestIndexEncodeDecode(t *testing.T) {
	x := NewIndex(4)
	assert.Zero(t, x.Allocated())
	assert.False(t, x.Get(2).Defined())

	x.Set(2, Entry{Addr: 4096, Size: 100, Mask: 1})
	x.Set(0, Entry{Addr: 8192, Size: 50})
	assert.Equal(t, uint64(2), x.Allocated())

	block := x.Encode()
	assert.Len(t, block, int(EncodedSize(4)))

	y, err := DecodeIndex(block, 4)
	require.NoError(t, err)
	assert.Equal(t, x.Get(2), y.Get(2))
	assert.Equal(t, uint64(2), y.Allocated())
	assert.Equal(t, binary.UndefinedAddress, y.Get(1).Addr)

	_, err = DecodeIndex(block, 5)
	assert.Error(t, err)

	block[10] ^= 1
	_, err = DecodeIndex(block, 4)
	assert.ErrorIs(t, err, binary.ErrChecksum)
}

func TestIndexAnyAllocated(t *testing.T) {
	g, err := NewGrid([2]uint64{6, 6}, [2]uint64{2, 2})
	require.NoError(t, err)
	x := NewIndex(g.NumChunks())
	x.Set(g.Index([2]uint64{1, 2}), Entry{Addr: 64, Size: 4})

	assert.True(t, x.AnyAllocated(g, Slab{Start: [2]uint64{2, 0}, Count: [2]uint64{2, 6}}))
	assert.False(t, x.AnyAllocated(g, Slab{Start: [2]uint64{0, 0}, Count: [2]uint64{2, 6}}))
	assert.True(t, x.AnyAllocated(g, Slab{Start: [2]uint64{3, 5}, Count: [2]uint64{1, 1}}))
	assert.False(t, x.AnyAllocated(g, Slab{Start: [2]uint64{0, 0}, Count: [2]uint64{6, 4}}))
	assert.False(t, x.AnyAllocated(g, Slab{}))

	x.Set(g.Index([2]uint64{1, 2}), Entry{Addr: binary.UndefinedAddress})
	assert.Zero(t, x.Allocated())
}

func TestGridChunks(t *testing.T) {
	g, err := NewGrid([2]uint64{6, 6}, [2]uint64{2, 2})
	require.NoError(t, err)
	set := g.Chunks(Slab{Start: [2]uint64{1, 3}, Count: [2]uint64{2, 3}})
	assert.Equal(t, []uint32{1, 2, 4, 5}, set.ToArray())
	assert.True(t, g.Chunks(Slab{}).IsEmpty())
}
