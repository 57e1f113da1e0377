package matrix

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLengthRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const nrow, ncol = 7, 5

	dense := make([]int32, 0, nrow*ncol)
	var values []int32
	var lengths []int
	for len(dense) < nrow*ncol {
		n := min(rng.Intn(6), nrow*ncol-len(dense))
		v := int32(rng.Intn(3))
		values = append(values, v)
		lengths = append(lengths, n)
		for range n {
			dense = append(dense, v)
		}
	}

	ref, err := NewDense[int32](DenseData{Nrow: nrow, Ncol: ncol, Values: dense})
	require.NoError(t, err)
	m, err := NewRunLength[int32](RunLengthData{Nrow: nrow, Ncol: ncol, Values: values, Lengths: lengths})
	require.NoError(t, err)

	want, got := make([]int32, ncol), make([]int32, ncol)
	rows := []int{0, 1, 2, 3, 4, 5, 6, 3, 3, 0, 6, 5}
	for _, r := range rows {
		require.NoError(t, ref.GetRow(r, 1, ncol, want))
		require.NoError(t, m.GetRow(r, 1, ncol, got))
		assert.Equal(t, want[:ncol-1], got[:ncol-1], "row %d", r)
	}
	for c := range ncol {
		w := make([]int32, nrow-2)
		g := make([]int32, nrow-2)
		require.NoError(t, ref.GetCol(c, 2, nrow, w))
		require.NoError(t, m.GetCol(c, 2, nrow, g))
		assert.Equal(t, w, g)
	}
}

func TestRunLengthMalformed(t *testing.T) {
	_, err := NewRunLength[int32](RunLengthData{Nrow: 2, Ncol: 2, Values: []int32{1}, Lengths: []int{3}})
	assert.ErrorIs(t, err, ErrMalformedInput)
	_, err = NewRunLength[int32](RunLengthData{Nrow: 1, Ncol: 1, Values: []int32{1, 2}, Lengths: []int{2, -1}})
	assert.ErrorIs(t, err, ErrMalformedInput)
	_, err = NewRunLength[int32](RunLengthData{Nrow: 1, Ncol: 1, Values: []int32{1}, Lengths: []int{1, 1}})
	assert.ErrorIs(t, err, ErrMalformedInput)

	// These lengths wrap around to a total of exactly 4.
	_, err = NewRunLength[int32](RunLengthData{Nrow: 2, Ncol: 2, Values: []int32{1, 2, 3, 4},
		Lengths: []int{2, math.MaxInt, math.MaxInt, 4}})
	assert.ErrorIs(t, err, ErrMalformedInput)
}
