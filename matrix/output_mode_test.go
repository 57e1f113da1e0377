package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChooseOutputMode(t *testing.T) {
	cases := []struct {
		enc          Encoding
		simplify     bool
		preserveZero bool
		want         OutputMode
	}{
		{EncodingSimple, false, false, OutputDense},
		{EncodingSimple, false, true, OutputDense},
		{EncodingChunked, true, false, OutputChunked},
		{EncodingCSC, true, true, OutputDense},
		{EncodingCSC, false, true, OutputSparse},
		{EncodingCSC, false, false, OutputChunked},
		{EncodingPacked, false, true, OutputChunked},
		{EncodingRunLength, true, false, OutputDense},
	}
	for _, tc := range cases {
		got := ChooseOutputMode(tc.enc, tc.simplify, tc.preserveZero)
		assert.Equal(t, tc.want, got, "%s simplify=%v preserveZero=%v", tc.enc, tc.simplify, tc.preserveZero)
	}
}

func TestDefaultChunkDims(t *testing.T) {
	assert.Equal(t, ChunkDims{32, 32}, DefaultChunkDims(1000, 1000))
	assert.Equal(t, ChunkDims{3163, 4}, DefaultChunkDims(10000, 10))
	assert.Equal(t, ChunkDims{4, 3163}, DefaultChunkDims(10, 10000))
	assert.Equal(t, ChunkDims{1, 1}, DefaultChunkDims(0, 5))
	assert.Equal(t, ChunkDims{1, 1}, DefaultChunkDims(1, 1))

	for _, dims := range [][2]int{{1, 1}, {7, 3}, {500, 2}, {2, 500}, {12345, 678}, {1, 100000}} {
		d := DefaultChunkDims(dims[0], dims[1])
		assert.GreaterOrEqual(t, d.Rows, 1)
		assert.GreaterOrEqual(t, d.Cols, 1)
		assert.LessOrEqual(t, d.Rows, dims[0])
		assert.LessOrEqual(t, d.Cols, dims[1])
		assert.LessOrEqual(t, ceilDiv(dims[0], d.Rows), d.Cols, "%v", dims)
		assert.LessOrEqual(t, ceilDiv(dims[1], d.Cols), d.Rows, "%v", dims)
	}
}
