// Package alloc manages file-space allocation for container writers.
//
// New space is taken from end of file. Space released with Free is kept in
// two ordered indexes (by size and by address) so that later allocations can
// reuse the smallest free extent that fits, and adjacent free extents merge.
package alloc

import (
	"fmt"
	"sync"

	"github.com/google/btree"
)

// Extent is a contiguous byte range of the file.
type Extent struct {
	Addr uint64
	Size uint64
}

// End returns the first address past the extent.
func (e Extent) End() uint64 { return e.Addr + e.Size }

// Stats contains allocation statistics.
type Stats struct {
	Allocations uint64 // Number of allocations made
	BytesAlloc  uint64 // Total bytes handed out
	BytesFreed  uint64 // Total bytes returned via Free
	BytesReused uint64 // Bytes served from the free indexes
	FreeBytes   uint64 // Bytes currently sitting in the free indexes
}

// Allocator hands out file addresses. It is safe for concurrent use.
type Allocator struct {
	mu sync.Mutex

	base uint64
	eof  uint64

	bySize *btree.BTreeG[Extent]
	byAddr *btree.BTreeG[Extent]

	stats Stats
}

func lessBySize(a, b Extent) bool {
	if a.Size != b.Size {
		return a.Size < b.Size
	}
	return a.Addr < b.Addr
}

func lessByAddr(a, b Extent) bool { return a.Addr < b.Addr }

// New creates an allocator whose first allocation lands at base.
func New(base uint64) *Allocator {
	return &Allocator{
		base:   base,
		eof:    base,
		bySize: btree.NewG(8, lessBySize),
		byAddr: btree.NewG(8, lessByAddr),
	}
}

// Alloc returns the address of size fresh bytes. A zero size returns the
// current end of file without reserving anything.
func (a *Allocator) Alloc(size uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if size == 0 {
		return a.eof
	}
	a.stats.Allocations++
	a.stats.BytesAlloc += size

	var fit Extent
	found := false
	a.bySize.AscendGreaterOrEqual(Extent{Size: size}, func(e Extent) bool {
		fit, found = e, true
		return false
	})
	if found {
		a.removeFree(fit)
		if fit.Size > size {
			a.insertFree(Extent{Addr: fit.Addr + size, Size: fit.Size - size})
		}
		a.stats.BytesReused += size
		return fit.Addr
	}

	addr := a.eof
	a.eof += size
	return addr
}

// Free returns an extent to the allocator. Adjacent free extents merge, and
// a free extent that reaches end of file shrinks the file instead.
func (a *Allocator) Free(addr, size uint64) error {
	if size == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	ext := Extent{Addr: addr, Size: size}
	if addr < a.base || ext.End() > a.eof {
		return fmt.Errorf("free [0x%x, +%d) outside allocated space [0x%x, 0x%x)", addr, size, a.base, a.eof)
	}
	if err := a.checkOverlapLocked(ext); err != nil {
		return err
	}
	a.stats.BytesFreed += size

	// Merge with the free neighbour on the left.
	a.byAddr.DescendLessOrEqual(Extent{Addr: addr}, func(prev Extent) bool {
		if prev.End() == ext.Addr {
			a.removeFree(prev)
			ext = Extent{Addr: prev.Addr, Size: prev.Size + ext.Size}
		}
		return false
	})
	// And on the right.
	if next, ok := a.byAddr.Get(Extent{Addr: ext.End()}); ok {
		a.removeFree(next)
		ext.Size += next.Size
	}

	if ext.End() == a.eof {
		a.eof = ext.Addr
		return nil
	}
	a.insertFree(ext)
	return nil
}

func (a *Allocator) checkOverlapLocked(ext Extent) error {
	var err error
	a.byAddr.DescendLessOrEqual(Extent{Addr: ext.End() - 1}, func(e Extent) bool {
		if e.End() > ext.Addr {
			err = fmt.Errorf("double free: [0x%x, +%d) overlaps free extent [0x%x, +%d)", ext.Addr, ext.Size, e.Addr, e.Size)
		}
		return false
	})
	return err
}

func (a *Allocator) insertFree(e Extent) {
	a.bySize.ReplaceOrInsert(e)
	a.byAddr.ReplaceOrInsert(e)
	a.stats.FreeBytes += e.Size
}

func (a *Allocator) removeFree(e Extent) {
	a.bySize.Delete(e)
	a.byAddr.Delete(e)
	a.stats.FreeBytes -= e.Size
}

// EOFAddr returns the current end-of-file address.
func (a *Allocator) EOFAddr() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof
}

// SetEOFAddr sets the end of file (used when reopening an existing file).
func (a *Allocator) SetEOFAddr(addr uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eof = addr
}

// freeExtents returns the free extents in address order.
func (a *Allocator) freeExtents() []Extent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Extent, 0, a.byAddr.Len())
	a.byAddr.Ascend(func(e Extent) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Stats returns a copy of the allocation statistics.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
