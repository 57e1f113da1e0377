// Package chunkstore is a pure Go container for named two-dimensional
// datasets, stored contiguously or in compressed chunks.
package chunkstore

import (
	"errors"

	"github.com/tatami-inc/beachmat-go/internal/binary"
	"github.com/tatami-inc/beachmat-go/internal/superblock"
)

// Common errors
var (
	ErrNotContainer = superblock.ErrNotContainer
	ErrChecksum     = binary.ErrChecksum
	ErrNotFound     = errors.New("dataset not found")
	ErrExists       = errors.New("dataset already exists")
	ErrClosed       = errors.New("file is closed")
	ErrReadOnly     = errors.New("file is read-only")
	ErrUnsupported  = errors.New("unsupported feature")
)
