// Package rechunk converts a chunked matrix dataset to a new chunk shape by
// streaming it tile by tile, so memory use depends on the tile size and not
// on the matrix size.
package rechunk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tatami-inc/beachmat-go/chunkstore"
	"github.com/tatami-inc/beachmat-go/internal/resource"
	"github.com/tatami-inc/beachmat-go/matrix"
)

// Stats summarises a finished rechunk.
type Stats struct {
	Tiles        int
	SkippedTiles int
	BytesRead    int64
	Duration     time.Duration
}

// Rechunk copies inputDataset of inputPath to outputDataset of outputPath
// with new chunk dimensions and compression level. It returns the output chunk
// dimensions in matrix orientation.
//
// Row orientation reads stripes of rows as tall as the input chunks, in
// blocks of stripeSize columns, and by default writes 1×stripeSize chunks.
// Column orientation is the transpose. Contiguous input is read as if it
// were made of single-column chunks.
func Rechunk(inputPath, inputDataset, outputPath, outputDataset string, level, stripeSize int, orientation Orientation, opts ...Option) (matrix.ChunkDims, error) {
	dims, _, err := RechunkContext(context.Background(), inputPath, inputDataset, outputPath, outputDataset, level, stripeSize, orientation, opts...)
	return dims, err
}

// RechunkContext is Rechunk with cancellation and statistics.
func RechunkContext(ctx context.Context, inputPath, inputDataset, outputPath, outputDataset string, level, stripeSize int, orientation Orientation, opts ...Option) (matrix.ChunkDims, Stats, error) {
	o := newOptions(opts)
	var stats Stats
	if stripeSize <= 0 {
		return matrix.ChunkDims{}, stats, fmt.Errorf("%w: stripe size %d", matrix.ErrMalformedInput, stripeSize)
	}
	if level < 0 || level > 9 {
		return matrix.ChunkDims{}, stats, fmt.Errorf("%w: compression level %d", matrix.ErrMalformedInput, level)
	}
	if orientation != ByRow && orientation != ByColumn {
		return matrix.ChunkDims{}, stats, fmt.Errorf("%w: orientation %d", matrix.ErrMalformedInput, orientation)
	}

	j := &job{
		inputPath:     inputPath,
		inputDataset:  inputDataset,
		outputPath:    outputPath,
		outputDataset: outputDataset,
		level:         level,
		stripe:        stripeSize,
		orientation:   orientation,
		opts:          o,
		ctrl: resource.NewController(resource.Config{
			MemoryLimitBytes:   o.memoryLimit,
			IOLimitBytesPerSec: o.ioLimit,
		}),
	}
	start := time.Now()
	err := j.run(ctx)
	j.stats.Duration = time.Since(start)
	if err != nil {
		return matrix.ChunkDims{}, j.stats, err
	}
	return j.outChunks, j.stats, nil
}

type job struct {
	inputPath     string
	inputDataset  string
	outputPath    string
	outputDataset string
	level         int
	stripe        int
	orientation   Orientation
	opts          *options
	ctrl          *resource.Controller

	dims      matrix.Dims
	elemSize  int64
	inChunks  matrix.ChunkDims
	outChunks matrix.ChunkDims
	tile      matrix.ChunkDims
	stats     Stats
}

func (j *job) run(ctx context.Context) (err error) {
	samePath := sameFile(j.inputPath, j.outputPath)

	// Probe the input geometry with the default cache.
	in, err := j.openInput(samePath, chunkstore.DefaultChunkCache)
	if err != nil {
		return err
	}
	ds, err := in.OpenDataset(j.inputDataset)
	if err != nil {
		return errors.Join(err, in.Close())
	}
	j.geometry(ds)
	cacheBytes := j.inputCache(ds)
	if err := in.Close(); err != nil {
		return err
	}

	tileBytes := int64(j.tile.Rows) * int64(j.tile.Cols) * j.elemSize
	if limit := j.ctrl.MemoryLimit(); limit > 0 && tileBytes+cacheBytes > limit {
		return fmt.Errorf("%w: %s tiles of %d bytes with %d bytes of input cache exceed memory limit %d",
			matrix.ErrCacheLimitExceeded, j.tile, tileBytes, cacheBytes, limit)
	}
	if err := j.ctrl.AcquireMemory(cacheBytes); err != nil {
		return fmt.Errorf("%w: %v", matrix.ErrCacheLimitExceeded, err)
	}
	defer j.ctrl.ReleaseMemory(cacheBytes)

	in, err = j.openInput(samePath, cacheBytes)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, in.Close())
	}()
	ds, err = in.OpenDataset(j.inputDataset)
	if err != nil {
		return err
	}

	var (
		out      *chunkstore.File
		tempPath string
	)
	switch {
	case samePath:
		out = in
	case fileExists(j.outputPath):
		out, err = chunkstore.OpenReadWrite(j.outputPath, chunkstore.WithChunkCache(tileBytes))
	default:
		tempPath = filepath.Join(filepath.Dir(j.outputPath), "."+filepath.Base(j.outputPath)+".tmp-"+uuid.NewString())
		out, err = chunkstore.Create(tempPath, chunkstore.WithChunkCache(tileBytes))
	}
	if err != nil {
		return err
	}

	j.opts.logger.Info("rechunk started",
		"input", j.inputPath, "input_dataset", j.inputDataset,
		"output", j.outputPath, "output_dataset", j.outputDataset,
		"dims", j.dims.String(), "input_chunks", j.inChunks.String(),
		"output_chunks", j.outChunks.String(), "orientation", j.orientation.String())

	err = j.copy(ctx, ds, out)
	if samePath {
		if err == nil {
			err = out.Flush()
		}
	} else {
		err = errors.Join(err, out.Close())
	}
	if tempPath != "" {
		if err == nil {
			err = os.Rename(tempPath, j.outputPath)
		}
		if err != nil {
			os.Remove(tempPath)
		}
	}
	if err != nil {
		return err
	}

	j.opts.logger.Info("rechunk finished",
		"output", j.outputPath, "output_dataset", j.outputDataset,
		"tiles", j.stats.Tiles, "skipped", j.stats.SkippedTiles, "bytes_read", j.stats.BytesRead)
	return nil
}

func (j *job) openInput(samePath bool, cacheBytes int64) (*chunkstore.File, error) {
	if samePath {
		return chunkstore.OpenReadWrite(j.inputPath, chunkstore.WithChunkCache(cacheBytes))
	}
	fopts := []chunkstore.FileOption{chunkstore.WithChunkCache(cacheBytes)}
	if j.opts.mmap {
		fopts = append(fopts, chunkstore.WithMmap())
	}
	return chunkstore.Open(j.inputPath, fopts...)
}

// geometry derives matrix dimensions, input and output chunk shapes and the
// tile shape from the input dataset.
func (j *job) geometry(ds *chunkstore.Dataset) {
	shape := ds.Shape()
	j.dims = matrix.Dims{Nrow: int(shape[1]), Ncol: int(shape[0])}
	j.elemSize = int64(ds.Datatype().Size)
	nrow, ncol := j.dims.Nrow, j.dims.Ncol

	if cd := ds.ChunkDims(); cd != nil {
		j.inChunks = matrix.ChunkDims{Rows: int(cd[1]), Cols: int(cd[0])}
	} else {
		j.inChunks = matrix.ChunkDims{Rows: max(nrow, 1), Cols: 1}
	}

	out := j.opts.chunks
	if out.Rows <= 0 || out.Cols <= 0 {
		if j.orientation == ByRow {
			out = matrix.ChunkDims{Rows: 1, Cols: min(ncol, j.stripe)}
		} else {
			out = matrix.ChunkDims{Rows: min(nrow, j.stripe), Cols: 1}
		}
	}
	j.outChunks = matrix.ChunkDims{
		Rows: max(1, min(out.Rows, nrow)),
		Cols: max(1, min(out.Cols, ncol)),
	}

	if j.orientation == ByRow {
		j.tile = matrix.ChunkDims{Rows: min(j.inChunks.Rows, nrow), Cols: min(j.stripe, ncol)}
	} else {
		j.tile = matrix.ChunkDims{Rows: min(j.stripe, nrow), Cols: min(j.inChunks.Cols, ncol)}
	}
	j.tile.Rows, j.tile.Cols = max(j.tile.Rows, 1), max(j.tile.Cols, 1)
}

// inputCache returns the input chunk cache size: every input chunk that one
// tile touches plus one more, so that a chunk shared by neighbouring tiles
// is read once.
func (j *job) inputCache(ds *chunkstore.Dataset) int64 {
	if !ds.IsChunked() {
		return 0
	}
	chunkBytes := int64(j.inChunks.Rows) * int64(j.inChunks.Cols) * j.elemSize
	var n int
	if j.orientation == ByRow {
		n = ceilDiv(j.tile.Cols, j.inChunks.Cols) + 1
		n = min(n, ceilDiv(j.dims.Ncol, j.inChunks.Cols))
	} else {
		n = ceilDiv(j.tile.Rows, j.inChunks.Rows) + 1
		n = min(n, ceilDiv(j.dims.Nrow, j.inChunks.Rows))
	}
	return int64(max(n, 1)) * chunkBytes
}

func (j *job) copy(ctx context.Context, in *chunkstore.Dataset, out *chunkstore.File) error {
	dopts := []chunkstore.DatasetOption{
		chunkstore.WithChunks(uint64(j.outChunks.Cols), uint64(j.outChunks.Rows)),
		chunkstore.WithFillValue(in.FillValue()),
		chunkstore.WithCodec(j.opts.codec, j.level),
	}
	if j.opts.shuffle {
		dopts = append(dopts, chunkstore.WithShuffle())
	}
	if j.opts.checksum {
		dopts = append(dopts, chunkstore.WithFletcher32())
	}
	dst, err := out.CreateDataset(j.outputDataset, in.Datatype(), in.Shape(), dopts...)
	if err != nil {
		return err
	}

	buf := make([]byte, int64(j.tile.Rows)*int64(j.tile.Cols)*j.elemSize)
	nrow, ncol := j.dims.Nrow, j.dims.Ncol

	tile := func(r0, c0 int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, w := min(j.tile.Rows, nrow-r0), min(j.tile.Cols, ncol-c0)
		start := [2]uint64{uint64(c0), uint64(r0)}
		count := [2]uint64{uint64(w), uint64(h)}
		j.stats.Tiles++

		allocated, err := in.Allocated(start, count)
		if err != nil {
			return err
		}
		if !allocated {
			j.stats.SkippedTiles++
			return nil
		}

		n := int64(h) * int64(w) * j.elemSize
		if err := j.ctrl.AcquireMemory(n); err != nil {
			return fmt.Errorf("%w: %v", matrix.ErrCacheLimitExceeded, err)
		}
		defer j.ctrl.ReleaseMemory(n)
		if err := j.ctrl.AcquireIO(ctx, int(n)); err != nil {
			return err
		}
		if err := in.ReadSlice(start, count, buf[:n]); err != nil {
			return fmt.Errorf("reading tile at (%d, %d): %w", r0, c0, err)
		}
		j.stats.BytesRead += n
		if err := dst.WriteSlice(start, count, buf[:n]); err != nil {
			return fmt.Errorf("writing tile at (%d, %d): %w", r0, c0, err)
		}
		return nil
	}

	if j.orientation == ByRow {
		for r0 := 0; r0 < nrow; r0 += j.tile.Rows {
			for c0 := 0; c0 < ncol; c0 += j.tile.Cols {
				if err := tile(r0, c0); err != nil {
					return err
				}
			}
			j.opts.logger.Debug("rechunk stripe done", "output", j.outputPath, "rows", r0)
		}
		return nil
	}
	for c0 := 0; c0 < ncol; c0 += j.tile.Cols {
		for r0 := 0; r0 < nrow; r0 += j.tile.Rows {
			if err := tile(r0, c0); err != nil {
				return err
			}
		}
		j.opts.logger.Debug("rechunk stripe done", "output", j.outputPath, "cols", c0)
	}
	return nil
}

func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	sa, errA := os.Stat(a)
	sb, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(sa, sb)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func ceilDiv(a, b int) int {
	if a == 0 {
		return 0
	}
	return (a-1)/b + 1
}
