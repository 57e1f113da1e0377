package layout

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/tatami-inc/beachmat-go/internal/binary"
)

const (
	indexSignature = "FAIX"
	entrySize      = 8 + 8 + 4
	indexOverhead  = 4 + 8 + 4
)

// Entry locates one encoded chunk in the file.
type Entry struct {
	Addr uint64 // binary.UndefinedAddress if the chunk was never written
	Size uint64 // stored (filtered) size in bytes
	Mask uint32 // filters skipped for this chunk
}

// Defined reports whether the chunk has been written.
func (e Entry) Defined() bool {
	return e.Addr != binary.UndefinedAddress
}

// Index is the fixed-array chunk index of a dataset.
type Index struct {
	entries   []Entry
	allocated *roaring.Bitmap
}

// NewIndex creates an index of n unwritten chunks.
func NewIndex(n uint64) *Index {
	entries := make([]Entry, n)
	for i := range entries {
		entries[i].Addr = binary.UndefinedAddress
	}
	return &Index{entries: entries, allocated: roaring.New()}
}

// Len returns the number of chunk slots.
func (x *Index) Len() uint64 {
	return uint64(len(x.entries))
}

// Get returns the entry of chunk idx.
func (x *Index) Get(idx uint64) Entry {
	return x.entries[idx]
}

// Set records where chunk idx now lives.
func (x *Index) Set(idx uint64, e Entry) {
	x.entries[idx] = e
	if e.Defined() {
		x.allocated.Add(uint32(idx))
	} else {
		x.allocated.Remove(uint32(idx))
	}
}

// Allocated returns the number of written chunks.
func (x *Index) Allocated() uint64 {
	return x.allocated.GetCardinality()
}

// AnyAllocated reports whether any chunk overlapping the slab was written.
func (x *Index) AnyAllocated(g Grid, s Slab) bool {
	lo, hi := g.Range(s)
	if lo == hi {
		return false
	}
	// Full-width rows of chunks form one contiguous number range.
	if lo[1] == 0 && hi[1] == g.Counts()[1] {
		return x.allocated.IntersectsWithInterval(g.Index(lo), g.Index([2]uint64{hi[0], 0}))
	}
	return x.allocated.Intersects(g.Chunks(s))
}

// Bitmap returns a copy of the set of written chunks.
func (x *Index) Bitmap() *roaring.Bitmap {
	return x.allocated.Clone()
}

// EncodedSize returns the size of the encoded index for n chunks.
func EncodedSize(n uint64) uint64 {
	return indexOverhead + n*entrySize
}

// Encode returns the sealed on-disk form of the index.
func (x *Index) Encode() []byte {
	enc := binary.NewEncoder(int(EncodedSize(x.Len())))
	enc.PutString(indexSignature)
	enc.PutUint64(x.Len())
	for _, e := range x.entries {
		enc.PutUint64(e.Addr)
		enc.PutUint64(e.Size)
		enc.PutUint32(e.Mask)
	}
	return enc.Seal()
}

// DecodeIndex parses a sealed index block holding want entries.
func DecodeIndex(block []byte, want uint64) (*Index, error) {
	body, err := binary.Verify(block)
	if err != nil {
		return nil, fmt.Errorf("chunk index: %w", err)
	}
	dec := binary.NewDecoder(body)
	dec.Signature(indexSignature)
	n := dec.Uint64()
	if dec.Err() == nil && n != want {
		return nil, fmt.Errorf("chunk index has %d entries, dataset needs %d", n, want)
	}
	x := NewIndex(n)
	for i := uint64(0); i < n && dec.Err() == nil; i++ {
		x.Set(i, Entry{Addr: dec.Uint64(), Size: dec.Uint64(), Mask: dec.Uint32()})
	}
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("chunk index: %w", err)
	}
	return x, nil
}
