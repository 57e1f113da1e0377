package matrix

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseOutputCells(t *testing.T) {
	m, err := NewSparseOutput[float64](3, 1)
	require.NoError(t, err)
	require.NoError(t, m.Set(2, 0, 5))
	require.NoError(t, m.Set(0, 0, 3))
	require.NoError(t, m.Set(1, 0, 0))

	desc, err := m.Finalize()
	require.NoError(t, err)
	assert.Equal(t, CSCData{Nrow: 3, Ncol: 1, P: []int{0, 2}, I: []int{0, 2}, X: []float64{3, 5}}, desc)
}

func TestSparseOutputMerge(t *testing.T) {
	m, err := NewSparseOutput[int32](6, 2)
	require.NoError(t, err)
	require.NoError(t, m.SetCol(0, 0, 6, []int32{1, 2, 0, 4, 5, 6}))

	// Replace the middle: row 1 deleted, row 2 added, row 3 changed.
	require.NoError(t, m.SetCol(0, 1, 4, []int32{0, 9, 8}))
	col := make([]int32, 6)
	require.NoError(t, m.GetCol(0, 0, 6, col))
	assert.Equal(t, []int32{1, 0, 9, 8, 5, 6}, col)

	require.NoError(t, m.SetRow(4, 0, 2, []int32{0, 7}))
	row := make([]int32, 2)
	require.NoError(t, m.GetRow(4, 0, 2, row))
	assert.Equal(t, []int32{0, 7}, row)
	assert.Equal(t, 5, m.NonZero())

	desc, err := m.Finalize()
	require.NoError(t, err)
	assert.Equal(t, CSCData{Nrow: 6, Ncol: 2, P: []int{0, 4, 5}, I: []int{0, 2, 3, 5, 4}, X: []int32{1, 9, 8, 6, 7}}, desc)

	// Output of Finalize is valid input to a sparse reader.
	back, err := NewReader[int32](desc)
	require.NoError(t, err)
	v, err := back.Get(3, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(8), v)
}

func TestSparseOutputRandomWrites(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const nrow, ncol = 12, 9
	ref, err := NewDenseOutput[float64](nrow, ncol)
	require.NoError(t, err)
	m, err := NewSparseOutput[float64](nrow, ncol)
	require.NoError(t, err)

	value := func() float64 {
		if rng.Intn(2) == 0 {
			return 0
		}
		return float64(rng.Intn(9) + 1)
	}
	for range 300 {
		switch rng.Intn(3) {
		case 0:
			r, c, v := rng.Intn(nrow), rng.Intn(ncol), value()
			require.NoError(t, ref.Set(r, c, v))
			require.NoError(t, m.Set(r, c, v))
		case 1:
			r := rng.Intn(nrow)
			first := rng.Intn(ncol)
			last := first + rng.Intn(ncol-first+1)
			src := make([]float64, last-first)
			for k := range src {
				src[k] = value()
			}
			require.NoError(t, ref.SetRow(r, first, last, src))
			require.NoError(t, m.SetRow(r, first, last, src))
		default:
			c := rng.Intn(ncol)
			first := rng.Intn(nrow)
			last := first + rng.Intn(nrow-first+1)
			src := make([]float64, last-first)
			for k := range src {
				src[k] = value()
			}
			require.NoError(t, ref.SetCol(c, first, last, src))
			require.NoError(t, m.SetCol(c, first, last, src))
		}
	}

	desc, err := m.Finalize()
	require.NoError(t, err)
	back, err := NewSparse[float64](desc.(CSCData))
	require.NoError(t, err)
	want, got := make([]float64, ncol), make([]float64, ncol)
	for r := range nrow {
		require.NoError(t, ref.GetRow(r, 0, ncol, want))
		require.NoError(t, back.GetRow(r, 0, ncol, got))
		assert.Equal(t, want, got, "row %d", r)
	}
}

func TestSparseOutputErrors(t *testing.T) {
	_, err := NewSparseOutput[string](1, 1)
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)

	m, err := NewSparseOutput[bool](2, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Set(2, 0, true), ErrOutOfRange)
	assert.ErrorIs(t, m.SetCol(0, 0, 2, []bool{true}), ErrOutOfRange)
	assert.ErrorIs(t, m.SetRow(0, 1, 3, []bool{true, true}), ErrOutOfRange)
}
