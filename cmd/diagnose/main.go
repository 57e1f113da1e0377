// Diagnostic tool for inspecting chunked matrix containers
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tatami-inc/beachmat-go/chunkstore"
	"github.com/tatami-inc/beachmat-go/internal/config"
	"github.com/tatami-inc/beachmat-go/matrix"
)

type settings struct {
	CacheLimit int64 `env:"MATRIX_CACHE_LIMIT" default:"2000000000"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/diagnose/main.go <file.chk>")
		os.Exit(1)
	}

	var s settings
	if err := config.Load(&s); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	if err := diagnose(os.Stdout, os.Args[1], s.CacheLimit); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func diagnose(w io.Writer, filename string, cacheLimit int64) error {
	fmt.Fprintf(w, "=== Analyzing %s ===\n\n", filename)

	f, err := chunkstore.Open(filename, chunkstore.WithMmap())
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if fi, err := os.Stat(filename); err == nil {
		fmt.Fprintf(w, "File size: %d\n", fi.Size())
	}
	names := f.Datasets()
	fmt.Fprintf(w, "Datasets: %d\n\n", len(names))

	for _, name := range names {
		ds, err := f.OpenDataset(name)
		if err != nil {
			fmt.Fprintf(w, "Dataset %q: ERROR %v\n\n", name, err)
			continue
		}
		describe(w, ds, cacheLimit)
	}
	return nil
}

func describe(w io.Writer, ds *chunkstore.Dataset, cacheLimit int64) {
	shape := ds.Shape()
	dims := matrix.Dims{Nrow: int(shape[1]), Ncol: int(shape[0])}
	fmt.Fprintf(w, "Dataset %q:\n", ds.Name())
	fmt.Fprintf(w, "  Matrix: %s\n", dims)
	fmt.Fprintf(w, "  Datatype: %s\n", ds.Datatype())

	if !ds.IsChunked() {
		fmt.Fprintf(w, "  Layout: contiguous\n\n")
		return
	}
	cd := ds.ChunkDims()
	chunks := matrix.ChunkDims{Rows: int(cd[1]), Cols: int(cd[0])}
	fmt.Fprintf(w, "  Layout: chunked %s\n", chunks)

	var filters []string
	for _, info := range ds.Filters() {
		filters = append(filters, info.Name())
	}
	if len(filters) == 0 {
		filters = append(filters, "none")
	}
	fmt.Fprintf(w, "  Filters: %s\n", strings.Join(filters, ", "))

	total := uint64(ceilDiv(dims.Nrow, chunks.Rows)) * uint64(ceilDiv(dims.Ncol, chunks.Cols))
	fmt.Fprintf(w, "  Allocated chunks: %d of %d\n", ds.AllocatedChunks(), total)

	policy, err := matrix.NewCachePolicy(dims, chunks, int(ds.Datatype().Size), cacheLimit)
	if err != nil {
		fmt.Fprintf(w, "  Cache policy: %v\n\n", err)
		return
	}
	mode := "column"
	if policy.OnRow() {
		mode = "row"
	}
	fmt.Fprintf(w, "  Cache policy: starts by %s, row stripe %d bytes (fits %t), column stripe %d bytes (fits %t)\n\n",
		mode, policy.RowCost, policy.RowFits, policy.ColCost, policy.ColFits)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
