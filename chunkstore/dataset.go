package chunkstore

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/tatami-inc/beachmat-go/internal/cache"
	"github.com/tatami-inc/beachmat-go/internal/dtype"
	"github.com/tatami-inc/beachmat-go/internal/filter"
	"github.com/tatami-inc/beachmat-go/internal/layout"
	"github.com/tatami-inc/beachmat-go/internal/object"
)

// Dataset is a two-dimensional array of fixed-size elements.
type Dataset struct {
	mu     sync.Mutex
	file   *File
	name   string
	header *object.Header
	closed bool

	elemSize  uint64
	fillValue []byte

	// Chunked storage only
	grid       layout.Grid
	index      *layout.Index
	indexDirty bool
	pipeline   *filter.Pipeline
	chunks     *cache.LRU
	fillChunk  []byte
	pending    *roaring.Bitmap
}

func newDataset(f *File, name string, header *object.Header) (*Dataset, error) {
	ds := &Dataset{
		file:      f,
		name:      name,
		header:    header,
		elemSize:  uint64(header.Datatype.Size),
		fillValue: header.Fill,
	}
	if len(ds.fillValue) == 0 {
		ds.fillValue = make([]byte, ds.elemSize)
	}
	if header.Layout.Class != object.LayoutChunked {
		return ds, nil
	}

	grid, err := layout.NewGrid(header.Dims, header.Layout.Chunk)
	if err != nil {
		return nil, err
	}
	ds.grid = grid

	block, err := f.reader.At(int64(header.Layout.Addr)).ReadBytes(int(header.Layout.Size))
	if err != nil {
		return nil, fmt.Errorf("reading chunk index: %w", err)
	}
	ds.index, err = layout.DecodeIndex(block, grid.NumChunks())
	if err != nil {
		return nil, err
	}

	ds.pipeline, err = filter.NewPipeline(header.Filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	ds.fillChunk = bytes.Repeat(ds.fillValue, int(grid.ChunkElements()))
	ds.pending = roaring.New()
	ds.chunks = cache.NewLRU(f.opts.chunkCache, ds.writeChunk)
	return ds, nil
}

// Name returns the dataset name.
func (ds *Dataset) Name() string {
	return ds.name
}

// Shape returns the dataset dimensions.
func (ds *Dataset) Shape() [2]uint64 {
	return ds.header.Dims
}

// Datatype returns the element datatype.
func (ds *Dataset) Datatype() Datatype {
	return ds.header.Datatype
}

// IsChunked returns true if the dataset is stored in chunks.
func (ds *Dataset) IsChunked() bool {
	return ds.header.Layout.Class == object.LayoutChunked
}

// ChunkDims returns the chunk dimensions, or nil for contiguous storage.
func (ds *Dataset) ChunkDims() []uint64 {
	if !ds.IsChunked() {
		return nil
	}
	return []uint64{ds.grid.Chunk[0], ds.grid.Chunk[1]}
}

// Filters returns the filter pipeline of a chunked dataset.
func (ds *Dataset) Filters() []FilterInfo {
	return ds.header.Filters
}

// FillValue returns the raw bytes reported for unwritten elements.
func (ds *Dataset) FillValue() []byte {
	return append([]byte(nil), ds.fillValue...)
}

// CacheStats returns the chunk cache hit and miss counts.
func (ds *Dataset) CacheStats() (hits, misses uint64) {
	if ds.chunks == nil {
		return 0, 0
	}
	s := ds.chunks.Stats()
	return uint64(s.Hits), uint64(s.Misses)
}

// AllocatedChunks returns the number of chunks that hold written data.
// Contiguous datasets report zero.
func (ds *Dataset) AllocatedChunks() uint64 {
	if !ds.IsChunked() {
		return 0
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return roaring.Or(ds.index.Bitmap(), ds.pending).GetCardinality()
}

// Allocated reports whether any element of the selection may hold written
// data. Contiguous datasets always report true.
func (ds *Dataset) Allocated(start, count [2]uint64) (bool, error) {
	s := layout.Slab{Start: start, Count: count}
	if err := s.Within(ds.header.Dims); err != nil {
		return false, err
	}
	if !ds.IsChunked() {
		return true, nil
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.index.AnyAllocated(ds.grid, s) {
		return true, nil
	}
	return ds.pending.Intersects(ds.grid.Chunks(s)), nil
}

// ReadSlice reads a selection into dst, which receives count[0]*count[1]
// elements in row-major order.
func (ds *Dataset) ReadSlice(start, count [2]uint64, dst []byte) error {
	s := layout.Slab{Start: start, Count: count}
	if err := s.Within(ds.header.Dims); err != nil {
		return err
	}
	if want := s.Len() * ds.elemSize; uint64(len(dst)) != want {
		return fmt.Errorf("buffer holds %d bytes, selection needs %d", len(dst), want)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return ErrClosed
	}

	if !ds.IsChunked() {
		base := ds.header.Layout.Addr
		return layout.ContiguousRuns(ds.header.Dims, s, ds.elemSize, func(fileOff, bufOff, n uint64) error {
			return ds.file.reader.At(int64(base+fileOff)).ReadFull(dst[bufOff : bufOff+n])
		})
	}

	return ds.grid.Overlapping(s, func(idx uint64) error {
		chunk, err := ds.loadChunk(idx, false)
		if err != nil {
			return err
		}
		ds.grid.CopyOut(dst, s, chunk, idx, ds.elemSize)
		return nil
	})
}

// WriteSlice writes a selection from src, laid out as for ReadSlice.
func (ds *Dataset) WriteSlice(start, count [2]uint64, src []byte) error {
	if !ds.file.writable {
		return ErrReadOnly
	}
	s := layout.Slab{Start: start, Count: count}
	if err := s.Within(ds.header.Dims); err != nil {
		return err
	}
	if want := s.Len() * ds.elemSize; uint64(len(src)) != want {
		return fmt.Errorf("buffer holds %d bytes, selection needs %d", len(src), want)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return ErrClosed
	}

	if !ds.IsChunked() {
		base := ds.header.Layout.Addr
		return layout.ContiguousRuns(ds.header.Dims, s, ds.elemSize, func(fileOff, bufOff, n uint64) error {
			return ds.file.writer.At(int64(base + fileOff)).WriteBytes(src[bufOff : bufOff+n])
		})
	}

	return ds.grid.Overlapping(s, func(idx uint64) error {
		var chunk []byte
		if cached, ok := ds.chunks.Get(idx); ok {
			chunk = cached
		} else if ds.grid.Covers(s, idx) {
			chunk = append([]byte(nil), ds.fillChunk...)
		} else {
			var err error
			if chunk, err = ds.loadChunk(idx, true); err != nil {
				return err
			}
		}
		ds.grid.CopyIn(chunk, s, src, idx, ds.elemSize)
		ds.pending.Add(uint32(idx))
		return ds.chunks.Put(idx, chunk, true)
	})
}

// loadChunk returns the decoded contents of chunk idx. Unless forWrite is
// set, the returned slice may be shared and must not be modified.
func (ds *Dataset) loadChunk(idx uint64, forWrite bool) ([]byte, error) {
	if !forWrite {
		if chunk, ok := ds.chunks.Get(idx); ok {
			return chunk, nil
		}
	}

	entry := ds.index.Get(idx)
	if !entry.Defined() {
		if forWrite {
			return append([]byte(nil), ds.fillChunk...), nil
		}
		return ds.fillChunk, nil
	}

	stored, err := ds.file.reader.At(int64(entry.Addr)).ReadBytes(int(entry.Size))
	if err != nil {
		return nil, fmt.Errorf("reading chunk %d: %w", idx, err)
	}
	chunk, err := ds.pipeline.Decode(stored, entry.Mask)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", idx, err)
	}
	if want := ds.grid.ChunkElements() * ds.elemSize; uint64(len(chunk)) != want {
		return nil, fmt.Errorf("chunk %d decoded to %d bytes, expected %d", idx, len(chunk), want)
	}
	if !forWrite {
		if err := ds.chunks.Put(idx, chunk, false); err != nil {
			return nil, err
		}
	}
	return chunk, nil
}

// writeChunk encodes a dirty chunk and stores it, reusing the chunk's old
// extent when the new encoding fits.
func (ds *Dataset) writeChunk(idx uint64, chunk []byte) error {
	stored, mask, err := ds.pipeline.Encode(chunk)
	if err != nil {
		return fmt.Errorf("chunk %d: %w", idx, err)
	}
	size := uint64(len(stored))
	alloc := ds.file.allocator

	old := ds.index.Get(idx)
	var addr uint64
	switch {
	case old.Defined() && size <= old.Size:
		addr = old.Addr
		if size < old.Size {
			if err := alloc.Free(old.Addr+size, old.Size-size); err != nil {
				return err
			}
		}
	default:
		if old.Defined() {
			if err := alloc.Free(old.Addr, old.Size); err != nil {
				return err
			}
		}
		addr = alloc.Alloc(size)
	}

	if err := ds.file.writer.At(int64(addr)).WriteBytes(stored); err != nil {
		return fmt.Errorf("writing chunk %d: %w", idx, err)
	}
	ds.index.Set(idx, layout.Entry{Addr: addr, Size: size, Mask: mask})
	ds.indexDirty = true
	return nil
}

// flushLocked writes dirty chunks and the chunk index. The caller holds the
// file lock.
func (ds *Dataset) flushLocked() error {
	if !ds.IsChunked() {
		return nil
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.chunks.Flush(); err != nil {
		return err
	}
	ds.pending.Clear()
	if !ds.indexDirty {
		return nil
	}
	if err := ds.file.writer.At(int64(ds.header.Layout.Addr)).WriteBytes(ds.index.Encode()); err != nil {
		return fmt.Errorf("writing chunk index: %w", err)
	}
	ds.indexDirty = false
	return nil
}

func (ds *Dataset) markClosed() {
	ds.mu.Lock()
	ds.closed = true
	ds.mu.Unlock()
}

// Read reads a selection as typed values.
func Read[T dtype.Element](ds *Dataset, start, count [2]uint64) ([]T, error) {
	out := make([]T, count[0]*count[1])
	if err := ReadInto(ds, start, count, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadInto reads a selection into dst, which must hold exactly
// count[0]*count[1] values.
func ReadInto[T dtype.Element](ds *Dataset, start, count [2]uint64, dst []T) error {
	dt := ds.header.Datatype
	if got := dtype.ClassOf[T](); got != dt.Class {
		return fmt.Errorf("%w: cannot read %s dataset %q as %s", dtype.ErrInvalid, dt, ds.name, got)
	}
	raw := make([]byte, uint64(len(dst))*ds.elemSize)
	if err := ds.ReadSlice(start, count, raw); err != nil {
		return err
	}
	return dtype.Decode(dt, raw, dst)
}

// Write writes typed values to a selection.
func Write[T dtype.Element](ds *Dataset, start, count [2]uint64, src []T) error {
	dt := ds.header.Datatype
	raw := make([]byte, uint64(len(src))*ds.elemSize)
	if err := dtype.Encode(dt, src, raw); err != nil {
		return err
	}
	return ds.WriteSlice(start, count, raw)
}
