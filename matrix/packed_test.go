package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackedSymmetry(t *testing.T) {
	m, err := NewPacked[string](PackedData{N: 3, X: []string{"a", "b", "c", "d", "e", "f"}, Uplo: 'U'})
	require.NoError(t, err)

	lower, err := m.Get(2, 0)
	require.NoError(t, err)
	upper, err := m.Get(0, 2)
	require.NoError(t, err)
	assert.Equal(t, "d", lower)
	assert.Equal(t, "d", upper)

	row := make([]string, 3)
	require.NoError(t, m.GetRow(1, 0, 3, row))
	assert.Equal(t, []string{"b", "c", "e"}, row)
}

// fullSymmetric returns an n×n symmetric matrix with distinct values on
// and above the diagonal, and both packed forms of it.
func fullSymmetric(n int) (full [][]int32, upper, lower []int32) {
	full = make([][]int32, n)
	for r := range full {
		full[r] = make([]int32, n)
	}
	v := int32(1)
	for c := range n {
		for r := 0; r <= c; r++ {
			full[r][c], full[c][r] = v, v
			v++
		}
	}
	for c := range n {
		for r := 0; r <= c; r++ {
			upper = append(upper, full[r][c])
		}
	}
	for c := range n {
		for r := c; r < n; r++ {
			lower = append(lower, full[r][c])
		}
	}
	return full, upper, lower
}

func TestPackedExtraction(t *testing.T) {
	const n = 6
	full, upper, lower := fullSymmetric(n)

	for _, tc := range []struct {
		uplo byte
		x    []int32
	}{{'U', upper}, {'L', lower}} {
		m, err := NewPacked[int32](PackedData{N: n, X: tc.x, Uplo: tc.uplo})
		require.NoError(t, err)
		assert.Equal(t, tc.uplo == 'U', m.Upper())

		for i := range n {
			for first := 0; first <= n; first++ {
				for last := first; last <= n; last++ {
					got := make([]int32, last-first)
					require.NoError(t, m.GetRow(i, first, last, got))
					assert.Equal(t, full[i][first:last], got, "uplo=%c row=%d [%d,%d)", tc.uplo, i, first, last)

					require.NoError(t, m.GetCol(i, first, last, got))
					assert.Equal(t, full[i][first:last], got)
				}
			}
			for j := range n {
				v, err := m.Get(i, j)
				require.NoError(t, err)
				assert.Equal(t, full[i][j], v)
			}
		}
	}
}

func TestPackedMalformed(t *testing.T) {
	_, err := NewPacked[int32](PackedData{N: 3, X: []int32{1, 2, 3}, Uplo: 'U'})
	assert.ErrorIs(t, err, ErrMalformedInput)
	_, err = NewPacked[int32](PackedData{N: 1, X: []int32{1}, Uplo: 'X'})
	assert.ErrorIs(t, err, ErrMalformedInput)
	_, err = NewPacked[int32](PackedData{N: 1, X: []bool{true}, Uplo: 'L'})
	assert.ErrorIs(t, err, ErrMalformedInput)
}
