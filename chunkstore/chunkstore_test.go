package chunkstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.chk")
}

func sequence(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * 0.5
	}
	return out
}

func TestContiguousRoundTrip(t *testing.T) {
	path := tempPath(t)
	f, err := Create(path)
	require.NoError(t, err)

	ds, err := f.CreateDataset("values", Float64(), [2]uint64{6, 5})
	require.NoError(t, err)
	assert.False(t, ds.IsChunked())
	assert.Nil(t, ds.ChunkDims())

	data := sequence(30)
	require.NoError(t, Write(ds, [2]uint64{0, 0}, [2]uint64{6, 5}, data))

	got, err := Read[float64](ds, [2]uint64{2, 1}, [2]uint64{3, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{data[11], data[12], data[16], data[17], data[21], data[22]}, got)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{"values"}, r.Datasets())

	ds, err = r.OpenDataset("values")
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{6, 5}, ds.Shape())
	all, err := Read[float64](ds, [2]uint64{0, 0}, [2]uint64{6, 5})
	require.NoError(t, err)
	assert.Equal(t, data, all)

	ok, err := ds.Allocated([2]uint64{0, 0}, [2]uint64{1, 1})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChunkedFilters(t *testing.T) {
	cases := []struct {
		name string
		opts []DatasetOption
	}{
		{"none", nil},
		{"deflate", []DatasetOption{WithShuffle(), WithCompression(6)}},
		{"lz4", []DatasetOption{WithLZ4()}},
		{"zstd", []DatasetOption{WithShuffle(), WithZstd(3), WithFletcher32()}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := tempPath(t)
			f, err := Create(path)
			require.NoError(t, err)

			opts := append([]DatasetOption{WithChunks(4, 3)}, tc.opts...)
			ds, err := f.CreateDataset("m", Int32(), [2]uint64{10, 7}, opts...)
			require.NoError(t, err)
			assert.Equal(t, []uint64{4, 3}, ds.ChunkDims())

			data := make([]int32, 70)
			for i := range data {
				data[i] = int32(i % 11)
			}
			require.NoError(t, Write(ds, [2]uint64{0, 0}, [2]uint64{10, 7}, data))
			require.NoError(t, f.Close())

			r, err := Open(path, WithChunkCache(0))
			require.NoError(t, err)
			defer r.Close()
			ds, err = r.OpenDataset("m")
			require.NoError(t, err)
			assert.Len(t, ds.Filters(), len(tc.opts))
			assert.Equal(t, uint64(9), ds.AllocatedChunks())

			got, err := Read[int32](ds, [2]uint64{0, 0}, [2]uint64{10, 7})
			require.NoError(t, err)
			assert.Equal(t, data, got)

			part, err := Read[int32](ds, [2]uint64{9, 5}, [2]uint64{1, 2})
			require.NoError(t, err)
			assert.Equal(t, []int32{data[68], data[69]}, part)
		})
	}
}

func TestFillValueAndAllocation(t *testing.T) {
	path := tempPath(t)
	f, err := Create(path)
	require.NoError(t, err)

	fill := []byte{0xff, 0xff, 0xff, 0xff}
	ds, err := f.CreateDataset("sparse", Int32(), [2]uint64{8, 8}, WithChunks(4, 4), WithFillValue(fill))
	require.NoError(t, err)

	got, err := Read[int32](ds, [2]uint64{0, 0}, [2]uint64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []int32{-1, -1, -1, -1}, got)

	require.NoError(t, Write(ds, [2]uint64{5, 5}, [2]uint64{1, 1}, []int32{42}))
	ok, err := ds.Allocated([2]uint64{4, 4}, [2]uint64{4, 4})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = ds.Allocated([2]uint64{0, 0}, [2]uint64{4, 8})
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	ds, err = r.OpenDataset("sparse")
	require.NoError(t, err)
	assert.Equal(t, fill, ds.FillValue())
	assert.Equal(t, uint64(1), ds.AllocatedChunks())

	row, err := Read[int32](ds, [2]uint64{5, 4}, [2]uint64{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []int32{-1, 42, -1}, row)
}

func TestContiguousFill(t *testing.T) {
	f, err := Create(tempPath(t))
	require.NoError(t, err)
	defer f.Close()

	fill := []byte{1, 0, 0, 0}
	ds, err := f.CreateDataset("ones", Logical(), [2]uint64{3, 3}, WithFillValue(fill))
	require.NoError(t, err)
	got, err := Read[bool](ds, [2]uint64{0, 0}, [2]uint64{3, 3})
	require.NoError(t, err)
	for _, v := range got {
		assert.True(t, v)
	}
}

func TestStringDataset(t *testing.T) {
	f, err := Create(tempPath(t))
	require.NoError(t, err)
	defer f.Close()

	ds, err := f.CreateDataset("names", FixedString(6), [2]uint64{1, 3}, WithChunks(1, 2), WithCompression(1))
	require.NoError(t, err)
	require.NoError(t, Write(ds, [2]uint64{0, 0}, [2]uint64{1, 3}, []string{"a", "bb", "ccccc"}))
	got, err := Read[string](ds, [2]uint64{0, 1}, [2]uint64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"bb", "ccccc"}, got)
}

func TestReopenReadWrite(t *testing.T) {
	path := tempPath(t)
	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.CreateDataset("a", Float64(), [2]uint64{4, 4}, WithChunks(2, 2))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w, err := OpenReadWrite(path)
	require.NoError(t, err)
	assert.True(t, w.IsWritable())
	ds, err := w.OpenDataset("a")
	require.NoError(t, err)
	require.NoError(t, Write(ds, [2]uint64{1, 1}, [2]uint64{2, 2}, []float64{1, 2, 3, 4}))
	_, err = w.CreateDataset("b", Int32(), [2]uint64{2, 2})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{"a", "b"}, r.Datasets())
	ds, err = r.OpenDataset("a")
	require.NoError(t, err)
	got, err := Read[float64](ds, [2]uint64{0, 0}, [2]uint64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 1, 2, 0, 0, 3, 4, 0, 0, 0, 0, 0}, got)
	assert.Equal(t, uint64(4), ds.AllocatedChunks())
}

func TestMmapRead(t *testing.T) {
	path := tempPath(t)
	f, err := Create(path)
	require.NoError(t, err)
	ds, err := f.CreateDataset("m", Float64(), [2]uint64{5, 5}, WithChunks(2, 5), WithZstd(1))
	require.NoError(t, err)
	data := sequence(25)
	require.NoError(t, Write(ds, [2]uint64{0, 0}, [2]uint64{5, 5}, data))
	require.NoError(t, f.Close())

	r, err := Open(path, WithMmap())
	require.NoError(t, err)
	defer r.Close()
	ds, err = r.OpenDataset("m")
	require.NoError(t, err)
	got, err := Read[float64](ds, [2]uint64{0, 0}, [2]uint64{5, 5})
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestErrors(t *testing.T) {
	path := tempPath(t)
	f, err := Create(path)
	require.NoError(t, err)

	_, err = f.CreateDataset("x", Int32(), [2]uint64{2, 2})
	require.NoError(t, err)
	_, err = f.CreateDataset("x", Int32(), [2]uint64{2, 2})
	assert.ErrorIs(t, err, ErrExists)
	_, err = f.CreateDataset("y", Int32(), [2]uint64{2, 2}, WithCompression(4))
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = f.CreateDataset("z", Int32(), [2]uint64{2, 2}, WithFillValue([]byte{1}))
	assert.Error(t, err)
	_, err = f.OpenDataset("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ds, err := f.OpenDataset("x")
	require.NoError(t, err)
	_, err = Read[float64](ds, [2]uint64{0, 0}, [2]uint64{1, 1})
	assert.Error(t, err)
	_, err = Read[int32](ds, [2]uint64{1, 1}, [2]uint64{2, 1})
	assert.Error(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = Read[int32](ds, [2]uint64{0, 0}, [2]uint64{1, 1})
	assert.ErrorIs(t, err, ErrClosed)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.CreateDataset("w", Int32(), [2]uint64{1, 1})
	assert.ErrorIs(t, err, ErrReadOnly)
	ds, err = r.OpenDataset("x")
	require.NoError(t, err)
	assert.ErrorIs(t, Write(ds, [2]uint64{0, 0}, [2]uint64{1, 1}, []int32{1}), ErrReadOnly)

	bad := filepath.Join(t.TempDir(), "bad")
	require.NoError(t, os.WriteFile(bad, make([]byte, 64), 0o644))
	_, err = Open(bad)
	assert.ErrorIs(t, err, ErrNotContainer)
}

func TestChunkRewriteReusesSpace(t *testing.T) {
	path := tempPath(t)
	f, err := Create(path, WithChunkCache(0))
	require.NoError(t, err)
	ds, err := f.CreateDataset("m", Int32(), [2]uint64{64, 64}, WithChunks(64, 64), WithCompression(6))
	require.NoError(t, err)

	noisy := make([]int32, 64*64)
	for i := range noisy {
		noisy[i] = int32(i * 7919)
	}
	require.NoError(t, Write(ds, [2]uint64{0, 0}, [2]uint64{64, 64}, noisy))
	eof := f.AllocStats()

	// A more compressible rewrite fits in place.
	require.NoError(t, Write(ds, [2]uint64{0, 0}, [2]uint64{64, 64}, make([]int32, 64*64)))
	after := f.AllocStats()
	assert.Equal(t, eof.Allocations, after.Allocations)
	assert.Greater(t, after.BytesFreed, eof.BytesFreed)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	ds, err = r.OpenDataset("m")
	require.NoError(t, err)
	got, err := Read[int32](ds, [2]uint64{10, 10}, [2]uint64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []int32{0}, got)
}

func TestCacheStats(t *testing.T) {
	f, err := Create(tempPath(t))
	require.NoError(t, err)
	defer f.Close()
	ds, err := f.CreateDataset("m", Float64(), [2]uint64{4, 4}, WithChunks(2, 2))
	require.NoError(t, err)
	require.NoError(t, Write(ds, [2]uint64{0, 0}, [2]uint64{4, 4}, sequence(16)))
	require.NoError(t, f.Flush())

	_, err = Read[float64](ds, [2]uint64{0, 0}, [2]uint64{1, 1})
	require.NoError(t, err)
	hits, misses := ds.CacheStats()
	// The write looked up all four chunks before they were cached.
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(4), misses)
}

func TestCodecs(t *testing.T) {
	cases := map[string][]string{
		"deflate": {"deflate"},
		"gzip":    {"deflate"},
		"ZSTD":    {"shuffle", "zstd"},
		"lz4":     {"shuffle", "lz4"},
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			codec, err := ParseCodec(name)
			require.NoError(t, err)

			f, err := Create(tempPath(t))
			require.NoError(t, err)
			defer f.Close()
			opts := []DatasetOption{WithChunks(4, 4), WithCodec(codec, 5)}
			if len(want) > 1 {
				opts = append(opts, WithShuffle())
			}
			ds, err := f.CreateDataset("m", Float64(), [2]uint64{8, 8}, opts...)
			require.NoError(t, err)
			var got []string
			for _, info := range ds.Filters() {
				got = append(got, info.Name())
			}
			assert.Equal(t, want, got)

			data := sequence(64)
			require.NoError(t, Write(ds, [2]uint64{0, 0}, [2]uint64{8, 8}, data))
			require.NoError(t, f.Flush())
			back, err := Read[float64](ds, [2]uint64{0, 0}, [2]uint64{8, 8})
			require.NoError(t, err)
			assert.Equal(t, data, back)
		})
	}

	_, err := ParseCodec("brotli")
	assert.ErrorIs(t, err, ErrUnsupported)

	f, err := Create(tempPath(t))
	require.NoError(t, err)
	defer f.Close()
	ds, err := f.CreateDataset("plain", Float64(), [2]uint64{2, 2}, WithChunks(1, 2), WithCodec(CodecZstd, 0))
	require.NoError(t, err)
	assert.Empty(t, ds.Filters())
}
