package matrix

import (
	"fmt"

	"github.com/tatami-inc/beachmat-go/chunkstore"
	"github.com/tatami-inc/beachmat-go/internal/dtype"
)

// Element is the set of value types a matrix can hold.
type Element = dtype.Element

// Kind names the value type of a matrix.
type Kind uint8

const (
	Logical Kind = iota + 1 // bool
	Integer                 // int32
	Numeric                 // float64
	String                  // string
)

func (k Kind) String() string {
	switch k {
	case Logical:
		return "logical"
	case Integer:
		return "integer"
	case Numeric:
		return "numeric"
	case String:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// KindOf returns the Kind of T.
func KindOf[T Element]() Kind {
	switch dtype.ClassOf[T]() {
	case dtype.ClassLogical:
		return Logical
	case dtype.ClassInteger:
		return Integer
	case dtype.ClassFloat:
		return Numeric
	default:
		return String
	}
}

// kindOfClass maps a stored datatype class to a Kind.
func kindOfClass(c chunkstore.Class) (Kind, bool) {
	switch c {
	case chunkstore.ClassLogical:
		return Logical, true
	case chunkstore.ClassInteger:
		return Integer, true
	case chunkstore.ClassFloat:
		return Numeric, true
	case chunkstore.ClassString:
		return String, true
	}
	return 0, false
}

// datatypeFor returns the on-disk datatype for kind. width is the string
// field width, terminator included, and is ignored for other kinds.
func datatypeFor(kind Kind, width int) chunkstore.Datatype {
	switch kind {
	case Logical:
		return chunkstore.Logical()
	case Integer:
		return chunkstore.Int32()
	case Numeric:
		return chunkstore.Float64()
	default:
		return chunkstore.FixedString(width)
	}
}

// StringWidth returns the fixed field width needed to store values: the
// longest string plus a terminator.
func StringWidth(values []string) int {
	return dtype.StringWidth(values)
}

// castValues asserts that a descriptor field holds []T.
func castValues[T Element](field string, v any) ([]T, error) {
	out, ok := v.([]T)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, want %s values", ErrMalformedInput, field, v, KindOf[T]())
	}
	return out, nil
}
