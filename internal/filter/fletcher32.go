package filter

import (
	"fmt"

	"github.com/tatami-inc/beachmat-go/internal/binary"
)

// Fletcher32 appends a Fletcher-32 checksum on encode and verifies and
// strips it on decode.
type Fletcher32 struct{}

// NewFletcher32 creates a Fletcher-32 filter. It takes no client data.
func NewFletcher32([]uint32) *Fletcher32 {
	return &Fletcher32{}
}

func (f *Fletcher32) ID() uint16 { return IDFletcher32 }

func (f *Fletcher32) Encode(input []byte) ([]byte, error) {
	out := make([]byte, len(input), len(input)+4)
	copy(out, input)
	return binary.Order.AppendUint32(out, binary.Fletcher32(input)), nil
}

func (f *Fletcher32) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("fletcher32: %d bytes is too short for a checksum", len(input))
	}
	data := input[:len(input)-4]
	stored := binary.Order.Uint32(input[len(input)-4:])
	if got := binary.Fletcher32(data); got != stored {
		return nil, fmt.Errorf("fletcher32: %w (stored 0x%08x, computed 0x%08x)", binary.ErrChecksum, stored, got)
	}
	return data, nil
}
