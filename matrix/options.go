package matrix

import (
	"log/slog"

	"github.com/tatami-inc/beachmat-go/chunkstore"
)

// DefaultCacheLimit is the default ceiling, in bytes, on the chunk cache a
// chunked backend may allocate for one stripe.
const DefaultCacheLimit int64 = 2_000_000_000

// DefaultCompression is the deflate level of new chunked outputs.
const DefaultCompression = 6

// Option configures a backend.
type Option func(*options)

type options struct {
	cacheLimit  int64
	chunks      ChunkDims
	compression int
	codec       chunkstore.Codec
	shuffle     bool
	mmap        bool
	stringWidth int
	path        string
	name        string
	logger      *slog.Logger
	metrics     MetricsCollector
}

func newOptions(opts []Option) *options {
	o := &options{
		cacheLimit:  DefaultCacheLimit,
		compression: DefaultCompression,
		logger:      slog.New(slog.DiscardHandler),
		metrics:     NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCacheLimit sets the chunk cache ceiling in bytes.
func WithCacheLimit(bytes int64) Option {
	return func(o *options) {
		if bytes >= 0 {
			o.cacheLimit = bytes
		}
	}
}

// WithChunkDims sets the chunk shape of a new chunked output. The default
// is DefaultChunkDims.
func WithChunkDims(dims ChunkDims) Option {
	return func(o *options) {
		o.chunks = dims
	}
}

// WithCompression sets the deflate level (0-9, 0 = none) of a new chunked
// output.
func WithCompression(level int) Option {
	return func(o *options) {
		if level >= 0 && level <= 9 {
			o.compression = level
		}
	}
}

// WithCodec sets the compression codec of a new chunked output. The level
// set by WithCompression applies to it.
func WithCodec(c chunkstore.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithShuffle byte-shuffles the chunks of a new chunked output before
// compression.
func WithShuffle() Option {
	return func(o *options) {
		o.shuffle = true
	}
}

// WithMmap memory-maps chunked inputs opened for reading.
func WithMmap() Option {
	return func(o *options) {
		o.mmap = true
	}
}

// WithStringWidth sets the longest string a chunked string output can hold.
func WithStringWidth(maxLen int) Option {
	return func(o *options) {
		if maxLen >= 0 {
			o.stringWidth = maxLen + 1
		}
	}
}

// WithFile names the file and dataset of a chunked output built by
// NewOutput.
func WithFile(path, name string) Option {
	return func(o *options) {
		o.path, o.name = path, name
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

// WithMetrics sets the metrics collector.
func WithMetrics(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metrics = mc
		}
	}
}
