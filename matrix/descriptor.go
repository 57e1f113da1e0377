package matrix

import "fmt"

// Encoding tags the storage of a host descriptor.
type Encoding uint8

const (
	EncodingSimple    Encoding = iota // untagged column-major array
	EncodingCSC                       // compressed sparse column
	EncodingPacked                    // packed symmetric triangle
	EncodingRunLength                 // column-major runs
	EncodingChunked                   // chunkstore dataset
)

func (e Encoding) String() string {
	switch e {
	case EncodingSimple:
		return "simple"
	case EncodingCSC:
		return "csc"
	case EncodingPacked:
		return "packed"
	case EncodingRunLength:
		return "rle"
	case EncodingChunked:
		return "chunked"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// Descriptor describes host data from which a backend is constructed, and
// is what output builders produce on Finalize.
type Descriptor interface {
	Encoding() Encoding
	Shape() Dims
}

// DenseData is a column-major array. Values holds Nrow*Ncol elements as
// []bool, []int32, []float64 or []string.
type DenseData struct {
	Nrow   int
	Ncol   int
	Values any
}

func (DenseData) Encoding() Encoding { return EncodingSimple }
func (d DenseData) Shape() Dims      { return Dims{d.Nrow, d.Ncol} }

// CSCData is a compressed sparse column matrix. P has Ncol+1 column pointers
// into the parallel I (row index) and X (value) arrays.
type CSCData struct {
	Nrow int
	Ncol int
	I    []int
	P    []int
	X    any
}

func (CSCData) Encoding() Encoding { return EncodingCSC }
func (d CSCData) Shape() Dims      { return Dims{d.Nrow, d.Ncol} }

// PackedData is one triangle of an N×N symmetric matrix, packed by columns.
// Uplo is 'U' for the upper triangle or 'L' for the lower.
type PackedData struct {
	N    int
	X    any
	Uplo byte
}

func (PackedData) Encoding() Encoding { return EncodingPacked }
func (d PackedData) Shape() Dims      { return Dims{d.N, d.N} }

// RunLengthData is a column-major sequence of runs: Lengths[k] copies of
// Values[k]. The lengths sum to Nrow*Ncol.
type RunLengthData struct {
	Nrow    int
	Ncol    int
	Values  any
	Lengths []int
}

func (RunLengthData) Encoding() Encoding { return EncodingRunLength }
func (d RunLengthData) Shape() Dims      { return Dims{d.Nrow, d.Ncol} }

// ChunkedData names a dataset in a chunkstore file. The dataset is declared
// on disk as (Ncol, Nrow).
type ChunkedData struct {
	Path string
	Name string
	Nrow int
	Ncol int
	Kind Kind
}

func (ChunkedData) Encoding() Encoding { return EncodingChunked }
func (d ChunkedData) Shape() Dims      { return Dims{d.Nrow, d.Ncol} }
