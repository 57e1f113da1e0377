package chunkstore

import (
	"bytes"
	"fmt"

	"github.com/tatami-inc/beachmat-go/internal/binary"
	"github.com/tatami-inc/beachmat-go/internal/filter"
	"github.com/tatami-inc/beachmat-go/internal/layout"
	"github.com/tatami-inc/beachmat-go/internal/object"
)

// fillBlock bounds the buffer used to write a contiguous fill pattern.
const fillBlock = 1 << 16

// CreateDataset creates a new dataset of the given datatype and dimensions.
// Every element initially reads as the fill value.
func (f *File) CreateDataset(name string, dt Datatype, dims [2]uint64, opts ...DatasetOption) (*Dataset, error) {
	if !f.writable {
		return nil, ErrReadOnly
	}
	if name == "" {
		return nil, fmt.Errorf("dataset name cannot be empty")
	}
	if err := dt.Validate(); err != nil {
		return nil, err
	}

	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.fill != nil && len(options.fill) != int(dt.Size) {
		return nil, fmt.Errorf("fill value of %d bytes for %s elements", len(options.fill), dt)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if _, ok := f.catalog.Lookup(name); ok {
		return nil, fmt.Errorf("%w: %q", ErrExists, name)
	}

	header := &object.Header{Dims: dims, Datatype: dt, Fill: options.fill}
	if bytes.Count(header.Fill, []byte{0}) == len(header.Fill) {
		header.Fill = nil
	}

	var err error
	if options.chunks != nil {
		header.Layout, header.Filters, err = f.createChunked(dims, uint64(dt.Size), options)
	} else {
		header.Layout, err = f.createContiguous(dims, uint64(dt.Size), options)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}

	block := header.Encode()
	addr, err := f.writeBlock(block)
	if err != nil {
		return nil, fmt.Errorf("writing dataset header: %w", err)
	}
	entry := object.Entry{Name: name, HeaderAddr: addr, HeaderSize: uint64(len(block))}
	if err := f.catalog.Add(entry); err != nil {
		return nil, err
	}
	if err := f.writeCatalogLocked(); err != nil {
		return nil, err
	}

	ds, err := newDataset(f, name, header)
	if err != nil {
		return nil, err
	}
	f.datasets[name] = ds
	return ds, nil
}

func (f *File) createContiguous(dims [2]uint64, elemSize uint64, options *datasetOptions) (object.Layout, error) {
	if options.deflate > 0 || options.shuffle || options.fletcher32 || options.lz4 || options.zstd > 0 {
		return object.Layout{}, fmt.Errorf("%w: filters require chunked storage", ErrUnsupported)
	}
	l := object.Layout{Class: object.LayoutContiguous, Addr: binary.UndefinedAddress}
	l.Size = dims[0] * dims[1] * elemSize
	if l.Size == 0 {
		return l, nil
	}
	l.Addr = f.allocator.Alloc(l.Size)
	if err := f.ensureSize(); err != nil {
		return l, err
	}

	if bytes.Count(options.fill, []byte{0}) == len(options.fill) {
		return l, nil
	}
	pattern := bytes.Repeat(options.fill, max(1, fillBlock/int(elemSize)))
	for off := uint64(0); off < l.Size; off += uint64(len(pattern)) {
		n := min(uint64(len(pattern)), l.Size-off)
		if err := f.writer.At(int64(l.Addr + off)).WriteBytes(pattern[:n]); err != nil {
			return l, fmt.Errorf("writing fill value: %w", err)
		}
	}
	return l, nil
}

func (f *File) createChunked(dims [2]uint64, elemSize uint64, options *datasetOptions) (object.Layout, []filter.Info, error) {
	if len(options.chunks) != 2 {
		return object.Layout{}, nil, fmt.Errorf("chunk dimensions must have rank 2, got %d", len(options.chunks))
	}
	chunk := [2]uint64{options.chunks[0], options.chunks[1]}
	grid, err := layout.NewGrid(dims, chunk)
	if err != nil {
		return object.Layout{}, nil, err
	}

	var infos []filter.Info
	if options.shuffle {
		infos = append(infos, filter.Info{ID: filter.IDShuffle, ClientData: []uint32{uint32(elemSize)}})
	}
	if options.deflate > 0 {
		infos = append(infos, filter.Info{ID: filter.IDDeflate, Flags: filter.FlagOptional, ClientData: []uint32{uint32(options.deflate)}})
	}
	if options.lz4 {
		infos = append(infos, filter.Info{ID: filter.IDLZ4, Flags: filter.FlagOptional})
	}
	if options.zstd > 0 {
		infos = append(infos, filter.Info{ID: filter.IDZstd, Flags: filter.FlagOptional, ClientData: []uint32{uint32(options.zstd)}})
	}
	if options.fletcher32 {
		infos = append(infos, filter.Info{ID: filter.IDFletcher32})
	}

	index := layout.NewIndex(grid.NumChunks()).Encode()
	addr, err := f.writeBlock(index)
	if err != nil {
		return object.Layout{}, nil, fmt.Errorf("writing chunk index: %w", err)
	}
	l := object.Layout{Class: object.LayoutChunked, Chunk: chunk, Addr: addr, Size: uint64(len(index))}
	return l, infos, nil
}

// ensureSize grows the file to the allocator's end of file.
func (f *File) ensureSize() error {
	eof := int64(f.allocator.EOFAddr())
	fi, err := f.file.Stat()
	if err != nil {
		return err
	}
	if fi.Size() < eof {
		return f.file.Truncate(eof)
	}
	return nil
}
