package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatami-inc/beachmat-go/chunkstore"
)

func TestDiagnose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.chk")
	f, err := chunkstore.Create(path)
	require.NoError(t, err)
	ds, err := f.CreateDataset("counts", chunkstore.Int32(), [2]uint64{6, 10}, chunkstore.WithChunks(2, 5), chunkstore.WithCompression(4))
	require.NoError(t, err)
	require.NoError(t, chunkstore.Write(ds, [2]uint64{0, 0}, [2]uint64{1, 5}, []int32{1, 2, 3, 4, 5}))
	_, err = f.CreateDataset("flat", chunkstore.Float64(), [2]uint64{3, 3})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var out bytes.Buffer
	require.NoError(t, diagnose(&out, path, 2000))
	text := out.String()
	assert.Contains(t, text, "Datasets: 2")
	assert.Contains(t, text, `Dataset "counts":`)
	assert.Contains(t, text, "Matrix: 10x6")
	assert.Contains(t, text, "Layout: chunked 5x2")
	assert.Contains(t, text, "Allocated chunks: 1 of 6")
	// Row stripes cost 3 chunks of 40 bytes, column stripes 2.
	assert.Contains(t, text, "starts by column")
	assert.Contains(t, text, "Layout: contiguous")

	assert.Error(t, diagnose(&out, filepath.Join(t.TempDir(), "missing.chk"), 0))
}
