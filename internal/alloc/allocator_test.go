package alloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorAppend(t *testing.T) {
	a := New(1024)
	assert.Equal(t, uint64(1024), a.Alloc(100))
	assert.Equal(t, uint64(1124), a.Alloc(200))
	assert.Equal(t, uint64(1324), a.EOFAddr())

	// Zero-size allocations reserve nothing.
	assert.Equal(t, uint64(1324), a.Alloc(0))
	assert.Equal(t, uint64(1324), a.EOFAddr())
}

func TestAllocatorBestFitReuse(t *testing.T) {
	a := New(0)
	small := a.Alloc(50)
	_ = a.Alloc(10)
	large := a.Alloc(200)
	_ = a.Alloc(10)

	require.NoError(t, a.Free(small, 50))
	require.NoError(t, a.Free(large, 200))

	// 40 bytes go into the 50-byte hole, not the 200-byte one.
	assert.Equal(t, small, a.Alloc(40))
	assert.Equal(t, []Extent{{Addr: 40, Size: 10}, {Addr: large, Size: 200}}, a.freeExtents())

	// 150 bytes split the large hole.
	assert.Equal(t, large, a.Alloc(150))
	assert.Equal(t, uint64(40+150), a.Stats().BytesReused)
	assert.Equal(t, uint64(270), a.EOFAddr())
}

func TestAllocatorCoalesce(t *testing.T) {
	a := New(0)
	x := a.Alloc(10)
	y := a.Alloc(10)
	z := a.Alloc(10)
	_ = a.Alloc(10)

	require.NoError(t, a.Free(x, 10))
	require.NoError(t, a.Free(z, 10))
	require.NoError(t, a.Free(y, 10))
	assert.Equal(t, []Extent{{Addr: 0, Size: 30}}, a.freeExtents())
	assert.Equal(t, uint64(30), a.Stats().FreeBytes)
}

func TestAllocatorTailShrinks(t *testing.T) {
	a := New(8)
	_ = a.Alloc(10)
	tail := a.Alloc(20)
	require.NoError(t, a.Free(tail, 20))
	assert.Equal(t, uint64(18), a.EOFAddr())
	assert.Empty(t, a.freeExtents())
}

func TestAllocatorFreeErrors(t *testing.T) {
	a := New(100)
	addr := a.Alloc(40)
	_ = a.Alloc(1)

	assert.Error(t, a.Free(0, 10), "before base")
	assert.Error(t, a.Free(addr, 1000), "past eof")

	require.NoError(t, a.Free(addr, 40))
	assert.Error(t, a.Free(addr+10, 5), "double free")
	assert.NoError(t, a.Free(addr, 0))
}

func TestAllocatorConcurrent(t *testing.T) {
	a := New(0)
	var wg sync.WaitGroup
	addrs := make(chan uint64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addrs <- a.Alloc(8)
		}()
	}
	wg.Wait()
	close(addrs)

	seen := make(map[uint64]bool)
	for addr := range addrs {
		assert.False(t, seen[addr], "address 0x%x handed out twice", addr)
		seen[addr] = true
	}
	assert.Equal(t, uint64(800), a.EOFAddr())
}
