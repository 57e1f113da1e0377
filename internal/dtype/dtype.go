// Package dtype describes the element types a container dataset can hold
// and converts between Go slices and their on-disk byte form.
//
// Four classes exist: 32-bit signed integers, 64-bit floats, logicals
// (stored as 32-bit 0/1 integers) and fixed-width null-padded strings.
// All multi-byte values are little-endian.
package dtype

import (
	"errors"
	"fmt"
)

// Class is the storage class of a datatype.
type Class uint8

const (
	ClassInteger Class = 1
	ClassFloat   Class = 2
	ClassLogical Class = 3
	ClassString  Class = 4
)

func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "integer"
	case ClassFloat:
		return "float"
	case ClassLogical:
		return "logical"
	case ClassString:
		return "string"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// ErrInvalid is returned for malformed datatype descriptions.
var ErrInvalid = errors.New("dtype: invalid datatype")

// Datatype is a storage class plus element width in bytes.
type Datatype struct {
	Class Class
	Size  uint32
}

// Integer returns the 32-bit signed integer datatype.
func Integer() Datatype { return Datatype{Class: ClassInteger, Size: 4} }

// Float returns the 64-bit floating point datatype.
func Float() Datatype { return Datatype{Class: ClassFloat, Size: 8} }

// Logical returns the logical datatype.
func Logical() Datatype { return Datatype{Class: ClassLogical, Size: 4} }

// String returns a fixed-width string datatype. The width includes room for
// a terminating null, so it must be at least 1.
func String(width int) Datatype {
	return Datatype{Class: ClassString, Size: uint32(width)}
}

// Validate checks that the size matches the class.
func (d Datatype) Validate() error {
	switch d.Class {
	case ClassInteger, ClassLogical:
		if d.Size != 4 {
			return fmt.Errorf("%w: %s of size %d", ErrInvalid, d.Class, d.Size)
		}
	case ClassFloat:
		if d.Size != 8 {
			return fmt.Errorf("%w: %s of size %d", ErrInvalid, d.Class, d.Size)
		}
	case ClassString:
		if d.Size == 0 {
			return fmt.Errorf("%w: zero-width string", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalid, d.Class)
	}
	return nil
}

func (d Datatype) String() string {
	if d.Class == ClassString {
		return fmt.Sprintf("string[%d]", d.Size)
	}
	return d.Class.String()
}

// StringWidth returns the datatype width needed to hold every value:
// the longest string plus a terminating null.
func StringWidth(values []string) int {
	width := 0
	for _, s := range values {
		width = max(width, len(s))
	}
	return width + 1
}
