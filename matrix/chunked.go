package matrix

import (
	"errors"
	"fmt"
	"os"

	"github.com/tatami-inc/beachmat-go/chunkstore"
)

// Chunked reads and writes a matrix stored in a chunkstore dataset. The
// dataset is declared on disk as (ncol, nrow), so matrix cell (r, c) is
// dataset element [c][r].
//
// Row and column access need a chunk cache that holds a full stripe of
// chunks. The backend tracks which stripe its cache is sized for and
// reopens the file with a different cache when the access pattern changes
// direction; see CachePolicy.
type Chunked[T Element] struct {
	dims     Dims
	path     string
	name     string
	writable bool
	opts     *options
	policy   CachePolicy

	file   *chunkstore.File
	ds     *chunkstore.Dataset
	broken error // set when a reopen failed
}

// NewChunked opens an existing dataset for reading. The stored shape and
// element type must match the descriptor and T.
func NewChunked[T Element](d ChunkedData, opts ...Option) (*Chunked[T], error) {
	dims := d.Shape()
	if err := dims.Valid(); err != nil {
		return nil, err
	}
	if d.Path == "" || d.Name == "" {
		return nil, fmt.Errorf("%w: chunked descriptor needs a path and a dataset name", ErrMalformedInput)
	}
	if d.Kind != 0 && d.Kind != KindOf[T]() {
		return nil, fmt.Errorf("%w: descriptor holds %s values, reading as %s", ErrMalformedInput, d.Kind, KindOf[T]())
	}

	m := &Chunked[T]{dims: dims, path: d.Path, name: d.Name, opts: newOptions(opts)}
	if err := m.open(chunkstore.DefaultChunkCache); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		m.file.Close()
		return nil, err
	}

	policy, err := m.probePolicy()
	if err != nil {
		m.file.Close()
		return nil, err
	}
	m.policy = policy
	if !policy.Contiguous {
		if err := m.file.Close(); err != nil {
			return nil, err
		}
		if err := m.open(policy.Cost()); err != nil {
			return nil, err
		}
	}
	m.opts.logger.Debug("opened chunked matrix",
		"path", m.path, "dataset", m.name, "dims", dims.String(),
		"row_cost", policy.RowCost, "col_cost", policy.ColCost, "on_row", policy.OnRow())
	return m, nil
}

// NewChunkedOutput creates a new chunked dataset for writing. The file is
// created if it does not exist. Every cell starts as the zero value.
func NewChunkedOutput[T Element](path, name string, nrow, ncol int, opts ...Option) (*Chunked[T], error) {
	dims := Dims{nrow, ncol}
	if err := dims.Valid(); err != nil {
		return nil, err
	}
	if path == "" || name == "" {
		return nil, fmt.Errorf("%w: chunked output needs a path and a dataset name", ErrMalformedInput)
	}
	o := newOptions(opts)
	kind := KindOf[T]()
	if kind == String && o.stringWidth == 0 {
		return nil, fmt.Errorf("%w: string output needs WithStringWidth", ErrMalformedInput)
	}
	dt := datatypeFor(kind, o.stringWidth)

	chunks := o.chunks
	if chunks.Rows <= 0 || chunks.Cols <= 0 {
		chunks = DefaultChunkDims(nrow, ncol)
	}
	chunks.Rows = clamp(chunks.Rows, 1, max(nrow, 1))
	chunks.Cols = clamp(chunks.Cols, 1, max(ncol, 1))
	policy, err := NewCachePolicy(dims, chunks, int(dt.Size), o.cacheLimit)
	if err != nil {
		return nil, err
	}

	fopts := []chunkstore.FileOption{chunkstore.WithChunkCache(policy.Cost())}
	var file *chunkstore.File
	if _, statErr := os.Stat(path); statErr == nil {
		file, err = chunkstore.OpenReadWrite(path, fopts...)
	} else {
		file, err = chunkstore.Create(path, fopts...)
	}
	if err != nil {
		return nil, err
	}

	dopts := []chunkstore.DatasetOption{
		chunkstore.WithChunks(uint64(chunks.Cols), uint64(chunks.Rows)),
		chunkstore.WithCodec(o.codec, o.compression),
	}
	if o.shuffle {
		dopts = append(dopts, chunkstore.WithShuffle())
	}
	ds, err := file.CreateDataset(name, dt, [2]uint64{uint64(ncol), uint64(nrow)}, dopts...)
	if err != nil {
		return nil, errors.Join(err, file.Close())
	}

	o.logger.Debug("created chunked matrix",
		"path", path, "dataset", name, "dims", dims.String(), "chunks", chunks.String())
	return &Chunked[T]{
		dims:     dims,
		path:     path,
		name:     name,
		writable: true,
		opts:     o,
		policy:   policy,
		file:     file,
		ds:       ds,
	}, nil
}

func (m *Chunked[T]) open(cacheBytes int64) error {
	fopts := []chunkstore.FileOption{chunkstore.WithChunkCache(cacheBytes)}
	var (
		file *chunkstore.File
		err  error
	)
	switch {
	case m.writable:
		file, err = chunkstore.OpenReadWrite(m.path, fopts...)
	case m.opts.mmap:
		file, err = chunkstore.Open(m.path, append(fopts, chunkstore.WithMmap())...)
	default:
		file, err = chunkstore.Open(m.path, fopts...)
	}
	if err != nil {
		return err
	}
	ds, err := file.OpenDataset(m.name)
	if err != nil {
		return errors.Join(err, file.Close())
	}
	m.file, m.ds = file, ds
	return nil
}

func (m *Chunked[T]) validate() error {
	want := [2]uint64{uint64(m.dims.Ncol), uint64(m.dims.Nrow)}
	if got := m.ds.Shape(); got != want {
		return fmt.Errorf("%w: dataset %q has shape %v, expected (ncol, nrow) = %v", ErrMalformedInput, m.name, got, want)
	}
	kind, ok := kindOfClass(m.ds.Datatype().Class)
	if !ok || kind != KindOf[T]() {
		return fmt.Errorf("%w: dataset %q holds %s values, reading as %s", ErrMalformedInput, m.name, m.ds.Datatype(), KindOf[T]())
	}
	return nil
}

func (m *Chunked[T]) probePolicy() (CachePolicy, error) {
	if !m.ds.IsChunked() {
		return ContiguousPolicy(), nil
	}
	cd := m.ds.ChunkDims()
	chunks := ChunkDims{Rows: int(cd[1]), Cols: int(cd[0])}
	return NewCachePolicy(m.dims, chunks, int(m.ds.Datatype().Size), m.opts.cacheLimit)
}

// usable reports an error once the backend has been closed or broken.
func (m *Chunked[T]) usable() error {
	if m.file != nil {
		return nil
	}
	if m.broken != nil {
		return m.broken
	}
	return fmt.Errorf("matrix: %s:%s: %w", m.path, m.name, chunkstore.ErrClosed)
}

// prepare makes sure the cache serves access in the given direction,
// reopening the file if needed.
func (m *Chunked[T]) prepare(byRow bool) error {
	if err := m.usable(); err != nil {
		return err
	}
	reopen, cacheBytes, err := m.policy.Plan(byRow)
	if err != nil {
		m.opts.metrics.RecordCacheLimit(byRow)
		return fmt.Errorf("%s:%s: %w", m.path, m.name, err)
	}
	if !reopen {
		return nil
	}

	m.opts.logger.Debug("reopening chunked matrix",
		"path", m.path, "dataset", m.name, "by_row", byRow, "cache_bytes", cacheBytes)
	err = m.reopen(cacheBytes)
	m.opts.metrics.RecordReopen(byRow, cacheBytes, err)
	if err != nil {
		return err
	}
	m.policy.Switch(byRow)
	return nil
}

// reopen closes the file, flushing pending writes, and opens it again with
// a new cache size. On failure the backend becomes unusable.
func (m *Chunked[T]) reopen(cacheBytes int64) error {
	err := m.file.Close()
	m.file, m.ds = nil, nil
	if err == nil {
		err = m.open(cacheBytes)
	}
	if err != nil {
		m.broken = fmt.Errorf("matrix: %s:%s unusable after failed reopen: %w", m.path, m.name, chunkstore.ErrClosed)
		return fmt.Errorf("reopening %s: %w", m.path, err)
	}
	return nil
}

func (m *Chunked[T]) Dims() Dims { return m.dims }

// Policy returns the current cache policy.
func (m *Chunked[T]) Policy() CachePolicy { return m.policy }

func (m *Chunked[T]) read(start, count [2]uint64, dst []T) error {
	if err := chunkstore.ReadInto(m.ds, start, count, dst); err != nil {
		return fmt.Errorf("reading %s:%s: %w", m.path, m.name, err)
	}
	m.opts.metrics.RecordSelection(false, len(dst))
	return nil
}

func (m *Chunked[T]) write(start, count [2]uint64, src []T) error {
	if err := chunkstore.Write(m.ds, start, count, src); err != nil {
		return fmt.Errorf("writing %s:%s: %w", m.path, m.name, err)
	}
	m.opts.metrics.RecordSelection(true, len(src))
	return nil
}

// Get reads one cell. It never changes the cache mode.
func (m *Chunked[T]) Get(r, c int) (T, error) {
	var out [1]T
	if err := m.dims.CellBounds(r, c); err != nil {
		return out[0], err
	}
	if err := m.usable(); err != nil {
		return out[0], err
	}
	err := m.read([2]uint64{uint64(c), uint64(r)}, [2]uint64{1, 1}, out[:])
	return out[0], err
}

func (m *Chunked[T]) GetRow(r, first, last int, dst []T) error {
	if err := m.dims.RowBounds(r, first, last); err != nil {
		return err
	}
	n := last - first
	if err := checkBuffer(len(dst), n); err != nil {
		return err
	}
	if err := m.prepare(true); err != nil {
		return err
	}
	return m.read([2]uint64{uint64(first), uint64(r)}, [2]uint64{uint64(n), 1}, dst[:n])
}

func (m *Chunked[T]) GetCol(c, first, last int, dst []T) error {
	if err := m.dims.ColBounds(c, first, last); err != nil {
		return err
	}
	n := last - first
	if err := checkBuffer(len(dst), n); err != nil {
		return err
	}
	if err := m.prepare(false); err != nil {
		return err
	}
	return m.read([2]uint64{uint64(c), uint64(first)}, [2]uint64{1, uint64(n)}, dst[:n])
}

// Set writes one cell. It never changes the cache mode.
func (m *Chunked[T]) Set(r, c int, v T) error {
	if err := m.dims.CellBounds(r, c); err != nil {
		return err
	}
	if err := m.usable(); err != nil {
		return err
	}
	return m.write([2]uint64{uint64(c), uint64(r)}, [2]uint64{1, 1}, []T{v})
}

func (m *Chunked[T]) SetRow(r, first, last int, src []T) error {
	if err := m.dims.RowBounds(r, first, last); err != nil {
		return err
	}
	n := last - first
	if err := checkBuffer(len(src), n); err != nil {
		return err
	}
	if err := m.prepare(true); err != nil {
		return err
	}
	return m.write([2]uint64{uint64(first), uint64(r)}, [2]uint64{uint64(n), 1}, src[:n])
}

func (m *Chunked[T]) SetCol(c, first, last int, src []T) error {
	if err := m.dims.ColBounds(c, first, last); err != nil {
		return err
	}
	n := last - first
	if err := checkBuffer(len(src), n); err != nil {
		return err
	}
	if err := m.prepare(false); err != nil {
		return err
	}
	return m.write([2]uint64{uint64(c), uint64(first)}, [2]uint64{1, uint64(n)}, src[:n])
}

// Close releases the file, flushing pending writes. It is idempotent.
func (m *Chunked[T]) Close() error {
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file, m.ds = nil, nil
	return err
}

// Finalize closes the file and describes the dataset.
func (m *Chunked[T]) Finalize() (Descriptor, error) {
	if m.broken != nil {
		return nil, m.broken
	}
	if err := m.Close(); err != nil {
		return nil, err
	}
	return ChunkedData{Path: m.path, Name: m.name, Nrow: m.dims.Nrow, Ncol: m.dims.Ncol, Kind: KindOf[T]()}, nil
}
