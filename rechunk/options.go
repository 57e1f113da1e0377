package rechunk

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tatami-inc/beachmat-go/chunkstore"
	"github.com/tatami-inc/beachmat-go/matrix"
)

// Orientation is the direction in which the input is streamed.
type Orientation uint8

const (
	// ByRow streams stripes of rows and produces row-shaped output chunks.
	ByRow Orientation = iota
	// ByColumn streams stripes of columns and produces column-shaped chunks.
	ByColumn
)

func (o Orientation) String() string {
	if o == ByColumn {
		return "column"
	}
	return "row"
}

// ParseOrientation accepts "row" or "col"/"column".
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "row", "rows":
		return ByRow, nil
	case "col", "cols", "column", "columns":
		return ByColumn, nil
	}
	return 0, fmt.Errorf("%w: orientation %q, want row or col", matrix.ErrMalformedInput, s)
}

// Option configures a rechunk.
type Option func(*options)

type options struct {
	chunks      matrix.ChunkDims
	memoryLimit int64
	ioLimit     int64
	codec       chunkstore.Codec
	shuffle     bool
	checksum    bool
	mmap        bool
	logger      *slog.Logger
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithChunkDims overrides the output chunk dimensions. They are clamped to
// the matrix dimensions.
func WithChunkDims(dims matrix.ChunkDims) Option {
	return func(o *options) {
		o.chunks = dims
	}
}

// WithMemoryLimit bounds the bytes held at once for one tile and the input
// chunk cache. Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		if bytes >= 0 {
			o.memoryLimit = bytes
		}
	}
}

// WithIOLimit paces reads to the given bytes per second. Zero means
// unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		if bytesPerSec >= 0 {
			o.ioLimit = bytesPerSec
		}
	}
}

// WithCodec sets the output compression codec. The level passed to Rechunk
// applies to it. The default is deflate.
func WithCodec(c chunkstore.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithShuffle byte-shuffles output chunks before compression.
func WithShuffle() Option {
	return func(o *options) {
		o.shuffle = true
	}
}

// WithChecksum stores a Fletcher-32 checksum with every output chunk.
func WithChecksum() Option {
	return func(o *options) {
		o.checksum = true
	}
}

// WithMmap memory-maps the input file when it differs from the output.
func WithMmap() Option {
	return func(o *options) {
		o.mmap = true
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
