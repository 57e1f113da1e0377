package dtype

import (
	"bytes"
	"fmt"
	"math"

	"github.com/tatami-inc/beachmat-go/internal/binary"
)

// Element is the set of Go types a dataset element converts to.
type Element interface {
	bool | int32 | float64 | string
}

// ClassOf returns the storage class matching T.
func ClassOf[T Element]() Class {
	var zero T
	switch any(zero).(type) {
	case bool:
		return ClassLogical
	case int32:
		return ClassInteger
	case float64:
		return ClassFloat
	default:
		return ClassString
	}
}

// Encode writes src into dst using dt. dst must hold len(src)*dt.Size bytes.
func Encode[T Element](dt Datatype, src []T, dst []byte) error {
	if want := len(src) * int(dt.Size); len(dst) < want {
		return fmt.Errorf("encode %d %s values: buffer of %d bytes, need %d", len(src), dt, len(dst), want)
	}
	if got := ClassOf[T](); got != dt.Class {
		return fmt.Errorf("%w: cannot encode %s values as %s", ErrInvalid, got, dt)
	}

	switch vals := any(src).(type) {
	case []int32:
		for i, v := range vals {
			binary.Order.PutUint32(dst[4*i:], uint32(v))
		}
	case []float64:
		for i, v := range vals {
			binary.Order.PutUint64(dst[8*i:], math.Float64bits(v))
		}
	case []bool:
		for i, v := range vals {
			var u uint32
			if v {
				u = 1
			}
			binary.Order.PutUint32(dst[4*i:], u)
		}
	case []string:
		w := int(dt.Size)
		for i, v := range vals {
			if len(v) >= w {
				return fmt.Errorf("%w: string of length %d does not fit width %d", ErrInvalid, len(v), w)
			}
			cell := dst[i*w : (i+1)*w]
			n := copy(cell, v)
			clear(cell[n:])
		}
	}
	return nil
}

// Decode reads len(dst) values of type dt from src.
func Decode[T Element](dt Datatype, src []byte, dst []T) error {
	if want := len(dst) * int(dt.Size); len(src) < want {
		return fmt.Errorf("decode %d %s values: buffer of %d bytes, need %d", len(dst), dt, len(src), want)
	}
	if got := ClassOf[T](); got != dt.Class {
		return fmt.Errorf("%w: cannot decode %s as %s values", ErrInvalid, dt, got)
	}

	switch vals := any(dst).(type) {
	case []int32:
		for i := range vals {
			vals[i] = int32(binary.Order.Uint32(src[4*i:]))
		}
	case []float64:
		for i := range vals {
			vals[i] = math.Float64frombits(binary.Order.Uint64(src[8*i:]))
		}
	case []bool:
		for i := range vals {
			vals[i] = binary.Order.Uint32(src[4*i:]) != 0
		}
	case []string:
		w := int(dt.Size)
		for i := range vals {
			cell := src[i*w : (i+1)*w]
			if n := bytes.IndexByte(cell, 0); n >= 0 {
				cell = cell[:n]
			}
			vals[i] = string(cell)
		}
	}
	return nil
}

// EncodeScalar returns the byte form of a single value, as used for fill
// values.
func EncodeScalar[T Element](dt Datatype, v T) ([]byte, error) {
	out := make([]byte, dt.Size)
	if err := Encode(dt, []T{v}, out); err != nil {
		return nil, err
	}
	return out, nil
}
