package chunkstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/tatami-inc/beachmat-go/internal/alloc"
	"github.com/tatami-inc/beachmat-go/internal/binary"
	"github.com/tatami-inc/beachmat-go/internal/mmap"
	"github.com/tatami-inc/beachmat-go/internal/object"
	"github.com/tatami-inc/beachmat-go/internal/superblock"
)

// File is an open container file. Its methods, and those of the datasets
// opened through it, are safe for concurrent use.
type File struct {
	mu sync.Mutex

	path    string
	file    *os.File      // nil when memory-mapped
	mapping *mmap.Mapping // nil unless WithMmap
	reader  *binary.Reader
	opts    *fileOptions

	superblock *superblock.Superblock
	catalog    *object.Catalog
	datasets   map[string]*Dataset
	closed     bool

	// Write support fields
	writable  bool
	writer    *binary.Writer
	allocator *alloc.Allocator
}

// Create creates a new, empty container at path, truncating any existing
// file.
func Create(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	osFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	sb := superblock.New()
	if err := sb.Write(osFile); err != nil {
		osFile.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing superblock: %w", err)
	}

	return &File{
		path:       path,
		file:       osFile,
		reader:     binary.NewReader(osFile),
		opts:       options,
		superblock: sb,
		catalog:    object.NewCatalog(),
		datasets:   make(map[string]*Dataset),
		writable:   true,
		writer:     binary.NewWriter(osFile),
		allocator:  alloc.New(sb.EOFAddr),
	}, nil
}

// Open opens a container for reading.
func Open(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	f := &File{path: path, opts: options, datasets: make(map[string]*Dataset)}
	var src io.ReaderAt
	if options.mmap {
		m, err := mmap.Open(path)
		switch {
		case err == nil:
			f.mapping, src = m, m
		case !errors.Is(err, mmap.ErrUnsupported):
			return nil, fmt.Errorf("mapping file: %w", err)
		}
	}
	if src == nil {
		osFile, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		f.file, src = osFile, osFile
	}
	f.reader = binary.NewReader(src)

	if err := f.load(src); err != nil {
		f.closeHandles()
		return nil, err
	}
	return f, nil
}

// OpenReadWrite opens an existing container for reading and writing.
// Space freed in earlier sessions is not reused.
func OpenReadWrite(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	osFile, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	f := &File{
		path:     path,
		file:     osFile,
		reader:   binary.NewReader(osFile),
		opts:     options,
		datasets: make(map[string]*Dataset),
		writable: true,
		writer:   binary.NewWriter(osFile),
	}
	if err := f.load(osFile); err != nil {
		osFile.Close()
		return nil, err
	}
	f.allocator = alloc.New(superblock.Size)
	f.allocator.SetEOFAddr(f.superblock.EOFAddr)
	return f, nil
}

// load reads the superblock and catalog.
func (f *File) load(src io.ReaderAt) error {
	sb, err := superblock.Read(src)
	if err != nil {
		return fmt.Errorf("reading superblock: %w", err)
	}
	f.superblock = sb

	if sb.CatalogAddr == binary.UndefinedAddress {
		f.catalog = object.NewCatalog()
		return nil
	}
	block, err := f.reader.At(int64(sb.CatalogAddr)).ReadBytes(int(sb.CatalogSize))
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}
	f.catalog, err = object.DecodeCatalog(block)
	if err != nil {
		return err
	}
	return nil
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// IsWritable returns true if the file was opened for writing.
func (f *File) IsWritable() bool {
	return f.writable
}

// Datasets returns the names of all datasets in sorted order.
func (f *File) Datasets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalog.Names()
}

// OpenDataset opens a dataset by name. Opening the same name twice returns
// the same handle.
func (f *File) OpenDataset(name string) (*Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if ds, ok := f.datasets[name]; ok {
		return ds, nil
	}

	entry, ok := f.catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	header, err := object.ReadHeader(f.reader, entry.HeaderAddr, entry.HeaderSize)
	if err != nil {
		if errors.Is(err, object.ErrUnsupportedMessage) {
			return nil, fmt.Errorf("dataset %q: %w: %v", name, ErrUnsupported, err)
		}
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	ds, err := newDataset(f, name, header)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	f.datasets[name] = ds
	return ds, nil
}

// Flush writes cached chunks, chunk indices and the superblock, then syncs
// the file to disk.
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	return f.flushLocked()
}

func (f *File) flushLocked() error {
	if !f.writable {
		return nil
	}
	for name, ds := range f.datasets {
		if err := ds.flushLocked(); err != nil {
			return fmt.Errorf("flushing dataset %q: %w", name, err)
		}
	}

	if err := f.ensureSize(); err != nil {
		return fmt.Errorf("extending file: %w", err)
	}

	f.superblock.EOFAddr = f.allocator.EOFAddr()
	if err := f.superblock.Write(f.file); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	return f.file.Sync()
}

// Close flushes a writable file and releases its handles. It is idempotent.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	var flushErr error
	if f.writable {
		flushErr = f.flushLocked()
		if flushErr == nil {
			// Drop space freed at the tail of the file.
			flushErr = f.file.Truncate(int64(f.allocator.EOFAddr()))
		}
	}
	for _, ds := range f.datasets {
		ds.markClosed()
	}
	f.datasets = nil
	return errors.Join(flushErr, f.closeHandles())
}

func (f *File) closeHandles() error {
	if f.mapping != nil {
		return f.mapping.Close()
	}
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// AllocStats returns allocation statistics of a writable file.
func (f *File) AllocStats() alloc.Stats {
	if f.allocator == nil {
		return alloc.Stats{}
	}
	return f.allocator.Stats()
}

// writeBlock allocates space for block and writes it.
func (f *File) writeBlock(block []byte) (uint64, error) {
	addr := f.allocator.Alloc(uint64(len(block)))
	if err := f.writer.At(int64(addr)).WriteBytes(block); err != nil {
		return 0, err
	}
	return addr, nil
}

// writeCatalogLocked persists the catalog to a fresh block, releases the
// old one and points the superblock at the new one.
func (f *File) writeCatalogLocked() error {
	block := f.catalog.Encode()
	addr, err := f.writeBlock(block)
	if err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	if old := f.superblock.CatalogAddr; old != binary.UndefinedAddress {
		if err := f.allocator.Free(old, f.superblock.CatalogSize); err != nil {
			return fmt.Errorf("releasing old catalog: %w", err)
		}
	}
	f.superblock.CatalogAddr = addr
	f.superblock.CatalogSize = uint64(len(block))
	f.superblock.EOFAddr = f.allocator.EOFAddr()
	return f.superblock.Write(f.file)
}
