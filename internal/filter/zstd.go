package filter

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var zstdDecoderPool sync.Pool

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// Zstd is Zstandard compression. Encoders are pooled per filter instance
// since they are tied to a level.
type Zstd struct {
	level    zstd.EncoderLevel
	encoders sync.Pool
}

// NewZstd creates a zstd filter. Client data: [0] = level (1-22).
func NewZstd(clientData []uint32) *Zstd {
	level := zstd.SpeedDefault
	if len(clientData) > 0 && clientData[0] > 0 {
		level = zstd.EncoderLevelFromZstd(int(clientData[0]))
	}
	return &Zstd{level: level}
}

func (f *Zstd) ID() uint16 { return IDZstd }

func (f *Zstd) Encode(input []byte) ([]byte, error) {
	var enc *zstd.Encoder
	if v := f.encoders.Get(); v != nil {
		enc = v.(*zstd.Encoder)
	} else {
		var err error
		enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(f.level))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
	}
	defer f.encoders.Put(enc)
	return enc.EncodeAll(input, nil), nil
}

func (f *Zstd) Decode(input []byte) ([]byte, error) {
	dec, err := getZstdDecoder()
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer zstdDecoderPool.Put(dec)
	out, err := dec.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
