// Package filter implements the chunk filter pipeline.
//
// Filters run in declaration order when a chunk is written and in reverse
// order when it is read. Each chunk records a mask of filters that were
// skipped for it, so an optional compressor that fails to shrink a chunk
// leaves that chunk untouched.
package filter

import (
	"errors"
	"fmt"
)

// Filter identifiers as stored in dataset headers.
const (
	IDDeflate    uint16 = 1
	IDShuffle    uint16 = 2
	IDFletcher32 uint16 = 3
	IDLZ4        uint16 = 32004
	IDZstd       uint16 = 32015
)

// FlagOptional marks a filter that may be skipped for individual chunks.
const FlagOptional uint16 = 0x0001

// ErrUnknownFilter is returned when a header names a filter this package
// does not implement.
var ErrUnknownFilter = errors.New("filter: unknown filter")

// Filter is a reversible chunk transformation.
type Filter interface {
	// ID returns the filter identifier.
	ID() uint16

	// Encode transforms raw chunk bytes into their stored form.
	Encode(input []byte) ([]byte, error)

	// Decode reverses Encode.
	Decode(input []byte) ([]byte, error)
}

// Info describes one pipeline stage as persisted in a dataset header.
type Info struct {
	ID         uint16
	Flags      uint16
	ClientData []uint32
}

// Optional reports whether the stage may be skipped per chunk.
func (i Info) Optional() bool {
	return i.Flags&FlagOptional != 0
}

// Name returns a human-readable filter name.
func (i Info) Name() string {
	if name, ok := names[i.ID]; ok {
		return name
	}
	return fmt.Sprintf("filter-%d", i.ID)
}

var names = map[uint16]string{
	IDDeflate:    "deflate",
	IDShuffle:    "shuffle",
	IDFletcher32: "fletcher32",
	IDLZ4:        "lz4",
	IDZstd:       "zstd",
}

// Registry maps filter IDs to constructors taking the stage's client data.
var Registry = map[uint16]func([]uint32) Filter{
	IDDeflate:    func(cd []uint32) Filter { return NewDeflate(cd) },
	IDShuffle:    func(cd []uint32) Filter { return NewShuffle(cd) },
	IDFletcher32: func(cd []uint32) Filter { return NewFletcher32(cd) },
	IDLZ4:        func(cd []uint32) Filter { return NewLZ4(cd) },
	IDZstd:       func(cd []uint32) Filter { return NewZstd(cd) },
}

// New creates the filter described by info.
func New(info Info) (Filter, error) {
	ctor, ok := Registry[info.ID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownFilter, info.ID)
	}
	return ctor(info.ClientData), nil
}
