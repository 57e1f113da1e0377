package matrix

import (
	"fmt"
	"math"
)

// OutputMode is the kind of output a computation should produce.
type OutputMode uint8

const (
	OutputDense OutputMode = iota
	OutputSparse
	OutputChunked
)

func (m OutputMode) String() string {
	switch m {
	case OutputDense:
		return "dense"
	case OutputSparse:
		return "sparse"
	case OutputChunked:
		return "chunked"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ChooseOutputMode picks the output for a result derived from an input of
// the given encoding. Untagged inputs stay in memory, file-backed inputs
// stay on disk; simplify forces dense output and preserveZero keeps CSC
// inputs sparse. Everything else goes to a chunked file.
func ChooseOutputMode(enc Encoding, simplify, preserveZero bool) OutputMode {
	switch {
	case enc == EncodingSimple:
		return OutputDense
	case enc == EncodingChunked:
		return OutputChunked
	case simplify:
		return OutputDense
	case preserveZero && enc == EncodingCSC:
		return OutputSparse
	default:
		return OutputChunked
	}
}

// ChunkDims is a chunk shape in matrix orientation.
type ChunkDims struct {
	Rows int
	Cols int
}

func (d ChunkDims) String() string {
	return fmt.Sprintf("%dx%d", d.Rows, d.Cols)
}

// DefaultChunkDims picks chunk dimensions for an nrow×ncol matrix. It aims
// at a chunk stripe of about max·sqrt(min) elements in either direction and
// then widens whichever side would otherwise produce more chunks along one
// axis than the other side's chunk extent.
func DefaultChunkDims(nrow, ncol int) ChunkDims {
	if nrow <= 0 || ncol <= 0 {
		return ChunkDims{Rows: 1, Cols: 1}
	}
	big, small := float64(max(nrow, ncol)), float64(min(nrow, ncol))
	target := big * math.Sqrt(small)

	rows := clamp(int(math.Ceil(target/float64(ncol))), 1, nrow)
	cols := clamp(int(math.Ceil(target/float64(nrow))), 1, ncol)
	if ceilDiv(nrow, rows) > cols {
		rows = ceilDiv(nrow, cols)
	}
	if ceilDiv(ncol, cols) > rows {
		cols = ceilDiv(ncol, rows)
	}
	return ChunkDims{Rows: rows, Cols: cols}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func ceilDiv(a, b int) int {
	if a == 0 {
		return 0
	}
	return (a-1)/b + 1
}
