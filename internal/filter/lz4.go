package filter

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/tatami-inc/beachmat-go/internal/binary"
)

// LZ4 is LZ4 block compression. The stored form is the uncompressed length
// as a uint32 followed by the compressed block.
type LZ4 struct{}

// NewLZ4 creates an LZ4 filter. It takes no client data.
func NewLZ4([]uint32) *LZ4 {
	return &LZ4{}
}

func (f *LZ4) ID() uint16 { return IDLZ4 }

func (f *LZ4) Encode(input []byte) ([]byte, error) {
	out := make([]byte, 4+lz4.CompressBlockBound(len(input)))
	binary.Order.PutUint32(out, uint32(len(input)))
	if len(input) == 0 {
		return out[:4], nil
	}
	// A destination of CompressBlockBound bytes always receives a valid block.
	n, err := lz4.CompressBlock(input, out[4:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return out[:4+n], nil
}

func (f *LZ4) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("lz4: %d bytes is too short for a header", len(input))
	}
	size := binary.Order.Uint32(input)
	out := make([]byte, size)
	if size == 0 {
		return out, nil
	}
	n, err := lz4.UncompressBlock(input[4:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n != int(size) {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, header says %d", n, size)
	}
	return out, nil
}
