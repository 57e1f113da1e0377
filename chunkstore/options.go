package chunkstore

import (
	"fmt"
	"strings"
)

// DefaultChunkCache is the per-dataset chunk cache capacity in bytes.
const DefaultChunkCache = 1 << 20

// FileOption configures how a file is opened or created.
type FileOption func(*fileOptions)

type fileOptions struct {
	chunkCache int64
	mmap       bool
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{chunkCache: DefaultChunkCache}
}

// WithChunkCache sets the chunk cache capacity, in bytes, of every dataset
// opened through the file. Zero disables caching.
func WithChunkCache(bytes int64) FileOption {
	return func(o *fileOptions) {
		if bytes >= 0 {
			o.chunkCache = bytes
		}
	}
}

// WithMmap memory-maps a file opened read-only with Open. Platforms without
// mmap fall back to plain reads.
func WithMmap() FileOption {
	return func(o *fileOptions) {
		o.mmap = true
	}
}

// Codec is a chunk compression filter.
type Codec uint8

const (
	CodecDeflate Codec = iota
	CodecZstd
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return "deflate"
	}
}

// ParseCodec accepts "deflate" (or "gzip"), "zstd" and "lz4".
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deflate", "gzip", "zlib":
		return CodecDeflate, nil
	case "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	}
	return 0, fmt.Errorf("%w: codec %q", ErrUnsupported, s)
}

// DatasetOption configures dataset creation.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	chunks     []uint64
	deflate    int
	shuffle    bool
	fletcher32 bool
	lz4        bool
	zstd       int
	fill       []byte
}

func defaultDatasetOptions() *datasetOptions {
	return &datasetOptions{}
}

// WithChunks sets the chunk dimensions. Without it the dataset is stored
// contiguously and no filters may be used.
func WithChunks(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.chunks = dims
	}
}

// WithCompression sets the deflate level (1-9, 0 = none).
func WithCompression(level int) DatasetOption {
	return func(o *datasetOptions) {
		if level >= 0 && level <= 9 {
			o.deflate = level
		}
	}
}

// WithCodec compresses chunks with codec at level 1-9. Level 0 leaves
// chunks uncompressed; lz4 has no levels and is on for any positive level.
func WithCodec(c Codec, level int) DatasetOption {
	return func(o *datasetOptions) {
		if level <= 0 || level > 9 {
			return
		}
		switch c {
		case CodecZstd:
			o.zstd = level
		case CodecLZ4:
			o.lz4 = true
		default:
			o.deflate = level
		}
	}
}

// WithShuffle enables the shuffle filter (improves compression).
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) {
		o.shuffle = true
	}
}

// WithFletcher32 enables Fletcher32 checksum validation.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) {
		o.fletcher32 = true
	}
}

// WithLZ4 enables LZ4 block compression.
func WithLZ4() DatasetOption {
	return func(o *datasetOptions) {
		o.lz4 = true
	}
}

// WithZstd enables Zstandard compression at the given level (1-22).
func WithZstd(level int) DatasetOption {
	return func(o *datasetOptions) {
		if level >= 1 && level <= 22 {
			o.zstd = level
		}
	}
}

// WithFillValue sets the raw bytes of the value reported for elements that
// were never written. It must be exactly one element wide.
func WithFillValue(raw []byte) DatasetOption {
	return func(o *datasetOptions) {
		o.fill = append([]byte(nil), raw...)
	}
}
