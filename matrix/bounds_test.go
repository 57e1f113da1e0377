package matrix

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimsBounds(t *testing.T) {
	d := Dims{Nrow: 3, Ncol: 4}

	assert.NoError(t, d.RowBounds(2, 0, 4))
	assert.NoError(t, d.RowBounds(0, 2, 2))
	assert.NoError(t, d.ColBounds(3, 1, 3))
	assert.NoError(t, d.CellBounds(2, 3))

	bad := []error{
		d.RowBounds(3, 0, 1),
		d.RowBounds(-1, 0, 1),
		d.RowBounds(0, 3, 2),
		d.RowBounds(0, -1, 2),
		d.RowBounds(0, 0, 5),
		d.ColBounds(4, 0, 1),
		d.ColBounds(0, 0, 4),
		d.CellBounds(3, 0),
		d.CellBounds(0, 4),
		d.CellBounds(0, -1),
	}
	for i, err := range bad {
		assert.ErrorIs(t, err, ErrOutOfRange, "case %d", i)
	}

	assert.ErrorIs(t, Dims{-1, 2}.Valid(), ErrMalformedInput)
}

// backends returns every reader over the same 4×3 matrix
//
//	1 0 0
//	0 2 0
//	0 0 3
//	4 0 0
func backends(t *testing.T) map[string]Reader[float64] {
	t.Helper()
	dense := []float64{1, 0, 0, 4, 0, 2, 0, 0, 0, 0, 3, 0}
	out := make(map[string]Reader[float64])

	d, err := NewDense[float64](DenseData{Nrow: 4, Ncol: 3, Values: dense})
	require.NoError(t, err)
	out["dense"] = d

	s, err := NewSparse[float64](CSCData{Nrow: 4, Ncol: 3, P: []int{0, 2, 3, 4}, I: []int{0, 3, 1, 2}, X: []float64{1, 4, 2, 3}})
	require.NoError(t, err)
	out["sparse"] = s

	so, err := NewSparseOutput[float64](4, 3)
	require.NoError(t, err)
	require.NoError(t, so.SetCol(0, 0, 4, []float64{1, 0, 0, 4}))
	require.NoError(t, so.Set(1, 1, 2))
	require.NoError(t, so.Set(2, 2, 3))
	out["sparse-output"] = so

	rl, err := NewRunLength[float64](RunLengthData{Nrow: 4, Ncol: 3,
		Values: []float64{1, 0, 4, 0, 2, 0, 3, 0}, Lengths: []int{1, 2, 1, 1, 1, 4, 1, 1}})
	require.NoError(t, err)
	out["rle"] = rl

	path := filepath.Join(t.TempDir(), "m.chk")
	w, err := NewChunkedOutput[float64](path, "m", 4, 3, WithChunkDims(ChunkDims{2, 2}))
	require.NoError(t, err)
	for c := range 3 {
		require.NoError(t, w.SetCol(c, 0, 4, dense[c*4:(c+1)*4]))
	}
	desc, err := w.Finalize()
	require.NoError(t, err)
	ch, err := NewReader[float64](desc)
	require.NoError(t, err)
	t.Cleanup(func() { ch.(*Chunked[float64]).Close() })
	out["chunked"] = ch

	return out
}

func TestBackendsAgree(t *testing.T) {
	want := [][]float64{{1, 0, 0}, {0, 2, 0}, {0, 0, 3}, {4, 0, 0}}
	for name, m := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, Dims{4, 3}, m.Dims())
			row := make([]float64, 3)
			for r := range 4 {
				require.NoError(t, m.GetRow(r, 0, 3, row))
				assert.Equal(t, want[r], row)
			}
			col := make([]float64, 2)
			require.NoError(t, m.GetCol(0, 2, 4, col))
			assert.Equal(t, []float64{0, 4}, col)
			v, err := m.Get(2, 2)
			require.NoError(t, err)
			assert.Equal(t, 3.0, v)
		})
	}
}

func TestBackendsOutOfRange(t *testing.T) {
	for name, m := range backends(t) {
		t.Run(name, func(t *testing.T) {
			buf := make([]float64, 8)
			_, err := m.Get(4, 0)
			assert.ErrorIs(t, err, ErrOutOfRange)
			_, err = m.Get(0, 3)
			assert.ErrorIs(t, err, ErrOutOfRange)
			assert.ErrorIs(t, m.GetRow(4, 0, 3, buf), ErrOutOfRange)
			assert.ErrorIs(t, m.GetRow(0, 0, 4, buf), ErrOutOfRange)
			assert.ErrorIs(t, m.GetRow(0, 2, 1, buf), ErrOutOfRange)
			assert.ErrorIs(t, m.GetCol(3, 0, 4, buf), ErrOutOfRange)
			assert.ErrorIs(t, m.GetCol(0, 0, 5, buf), ErrOutOfRange)
			assert.ErrorIs(t, m.GetCol(0, 0, 4, buf[:3]), ErrOutOfRange)
		})
	}
}
