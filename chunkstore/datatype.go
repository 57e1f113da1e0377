package chunkstore

import (
	"github.com/tatami-inc/beachmat-go/internal/dtype"
	"github.com/tatami-inc/beachmat-go/internal/filter"
)

// Datatype describes the elements of a dataset.
type Datatype = dtype.Datatype

// Class is the storage class of a Datatype.
type Class = dtype.Class

const (
	ClassInteger = dtype.ClassInteger
	ClassFloat   = dtype.ClassFloat
	ClassLogical = dtype.ClassLogical
	ClassString  = dtype.ClassString
)

// Int32 returns the 32-bit signed integer datatype.
func Int32() Datatype { return dtype.Integer() }

// Float64 returns the 64-bit float datatype.
func Float64() Datatype { return dtype.Float() }

// Logical returns the logical (0/1) datatype.
func Logical() Datatype { return dtype.Logical() }

// FixedString returns a null-padded string datatype of the given width,
// terminator included.
func FixedString(width int) Datatype { return dtype.String(width) }

// FilterInfo describes one stage of a dataset's filter pipeline.
type FilterInfo = filter.Info
