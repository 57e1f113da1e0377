package matrix

import "fmt"

// Reader is read access to a matrix. Ranges are half-open. GetRow and
// GetCol fill dst[:last-first].
type Reader[T Element] interface {
	Dims() Dims
	Get(r, c int) (T, error)
	GetRow(r, first, last int, dst []T) error
	GetCol(c, first, last int, dst []T) error
}

// Writer is a matrix output. Finalize ends writing and describes the result.
type Writer[T Element] interface {
	Reader[T]
	Set(r, c int, v T) error
	SetRow(r, first, last int, src []T) error
	SetCol(c, first, last int, src []T) error
	Finalize() (Descriptor, error)
}

// NewReader constructs the backend matching the descriptor's encoding.
// Host buffers are copied, never aliased.
func NewReader[T Element](desc Descriptor, opts ...Option) (Reader[T], error) {
	var (
		m   Reader[T]
		err error
	)
	switch d := desc.(type) {
	case DenseData:
		m, err = NewDense[T](d)
	case CSCData:
		m, err = NewSparse[T](d)
	case PackedData:
		m, err = NewPacked[T](d)
	case RunLengthData:
		m, err = NewRunLength[T](d)
	case ChunkedData:
		m, err = NewChunked[T](d, opts...)
	case *DenseData, *CSCData, *PackedData, *RunLengthData, *ChunkedData:
		return newFromPointer[T](d, opts)
	case nil:
		return nil, fmt.Errorf("%w: nil descriptor", ErrMalformedInput)
	default:
		return nil, fmt.Errorf("%w: %s descriptor %T", ErrUnsupportedEncoding, desc.Encoding(), desc)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newFromPointer[T Element](desc Descriptor, opts []Option) (Reader[T], error) {
	switch d := desc.(type) {
	case *DenseData:
		if d != nil {
			return NewReader[T](*d, opts...)
		}
	case *CSCData:
		if d != nil {
			return NewReader[T](*d, opts...)
		}
	case *PackedData:
		if d != nil {
			return NewReader[T](*d, opts...)
		}
	case *RunLengthData:
		if d != nil {
			return NewReader[T](*d, opts...)
		}
	case *ChunkedData:
		if d != nil {
			return NewReader[T](*d, opts...)
		}
	}
	return nil, fmt.Errorf("%w: nil %T descriptor", ErrMalformedInput, desc)
}

// NewOutput constructs a writer for the given output mode. Chunked outputs
// need WithFile.
func NewOutput[T Element](mode OutputMode, nrow, ncol int, opts ...Option) (Writer[T], error) {
	var (
		w   Writer[T]
		err error
	)
	switch mode {
	case OutputDense:
		w, err = NewDenseOutput[T](nrow, ncol)
	case OutputSparse:
		w, err = NewSparseOutput[T](nrow, ncol)
	case OutputChunked:
		o := newOptions(opts)
		if o.path == "" {
			return nil, fmt.Errorf("%w: chunked output needs a file", ErrMalformedInput)
		}
		w, err = NewChunkedOutput[T](o.path, o.name, nrow, ncol, opts...)
	default:
		return nil, fmt.Errorf("%w: output mode %s", ErrUnsupportedEncoding, mode)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}
