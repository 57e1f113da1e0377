package matrix

import "errors"

var (
	// ErrMalformedInput reports a descriptor whose fields are missing, of the
	// wrong type or length, or violate a storage invariant.
	ErrMalformedInput = errors.New("matrix: malformed input")

	// ErrOutOfRange reports an index or range outside the matrix dimensions,
	// or a caller buffer too short for the requested range.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrCacheLimitExceeded reports that an access pattern needs a chunk cache
	// larger than the configured limit. Repack the file with other chunk
	// dimensions.
	ErrCacheLimitExceeded = errors.New("matrix: chunk cache limit exceeded")

	// ErrUnsupportedEncoding reports a backend and element type combination
	// that has no implementation.
	ErrUnsupportedEncoding = errors.New("matrix: unsupported encoding")
)
