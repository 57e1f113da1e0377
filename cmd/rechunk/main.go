// Command rechunk rewrites chunked matrix datasets with row- or
// column-shaped chunks.
//
// Usage:
//
//	rechunk [flags] input.chk:dataset:output.chk:dataset ...
//
// Defaults come from the environment (and a .env file if present) and are
// overridden by flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/tatami-inc/beachmat-go/chunkstore"
	"github.com/tatami-inc/beachmat-go/internal/config"
	"github.com/tatami-inc/beachmat-go/internal/logging"
	"github.com/tatami-inc/beachmat-go/matrix"
	"github.com/tatami-inc/beachmat-go/rechunk"
)

type settings struct {
	Logging struct {
		Level  string `env:"LOG_LEVEL" default:"info"`
		Format string `env:"LOG_FORMAT" default:"text"`
	}
	Level       int    `env:"RECHUNK_LEVEL" default:"6"`
	Stripe      int    `env:"RECHUNK_STRIPE" default:"100"`
	By          string `env:"RECHUNK_BY" default:"row"`
	Codec       string `env:"RECHUNK_CODEC" default:"deflate"`
	Shuffle     bool   `env:"RECHUNK_SHUFFLE" default:"false"`
	Checksum    bool   `env:"RECHUNK_CHECKSUM" default:"false"`
	Mmap        bool   `env:"RECHUNK_MMAP" default:"false"`
	Parallel    int    `env:"RECHUNK_PARALLEL" default:"1"`
	MemoryLimit int64  `env:"RECHUNK_MEMORY_LIMIT" default:"0"`
	IOLimit     int64  `env:"RECHUNK_IO_LIMIT" default:"0"`
}

type job struct {
	inputPath, inputDataset   string
	outputPath, outputDataset string
}

func (j job) String() string {
	return j.inputPath + ":" + j.inputDataset + " -> " + j.outputPath + ":" + j.outputDataset
}

func main() {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("rechunk failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var s settings
	if err := config.Load(&s); err != nil {
		return err
	}

	fs := flag.NewFlagSet("rechunk", flag.ContinueOnError)
	fs.IntVar(&s.Level, "level", s.Level, "compression level for the output (1-9), 0 for none")
	fs.StringVar(&s.Codec, "codec", s.Codec, "compression codec: deflate, zstd or lz4")
	fs.BoolVar(&s.Shuffle, "shuffle", s.Shuffle, "byte-shuffle chunks before compression")
	fs.BoolVar(&s.Checksum, "checksum", s.Checksum, "store a Fletcher-32 checksum with every chunk")
	fs.BoolVar(&s.Mmap, "mmap", s.Mmap, "memory-map input files")
	fs.IntVar(&s.Stripe, "stripe", s.Stripe, "columns (row orientation) or rows (column orientation) per output chunk")
	fs.StringVar(&s.By, "by", s.By, "orientation: row or col")
	fs.IntVar(&s.Parallel, "parallel", s.Parallel, "jobs to run at once")
	memLimit := fs.String("memory-limit", "", "bytes held per job, e.g. 512MiB (0 for unlimited)")
	ioLimit := fs.String("io-limit", "", "read bytes per second per job (0 for unlimited)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: rechunk [flags] input.chk:dataset:output.chk:dataset ...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *memLimit != "" {
		n, err := config.ParseBytes(*memLimit)
		if err != nil {
			return fmt.Errorf("-memory-limit: %w", err)
		}
		s.MemoryLimit = n
	}
	if *ioLimit != "" {
		n, err := config.ParseBytes(*ioLimit)
		if err != nil {
			return fmt.Errorf("-io-limit: %w", err)
		}
		s.IOLimit = n
	}

	logger := logging.Setup(s.Logging.Level, s.Logging.Format)

	orientation, err := rechunk.ParseOrientation(s.By)
	if err != nil {
		return err
	}
	codec, err := chunkstore.ParseCodec(s.Codec)
	if err != nil {
		return err
	}
	jobs, err := parseJobs(fs.Args())
	if err != nil {
		return err
	}

	opts := []rechunk.Option{
		rechunk.WithLogger(logger),
		rechunk.WithMemoryLimit(s.MemoryLimit),
		rechunk.WithIOLimit(s.IOLimit),
		rechunk.WithCodec(codec),
	}
	if s.Shuffle {
		opts = append(opts, rechunk.WithShuffle())
	}
	if s.Checksum {
		opts = append(opts, rechunk.WithChecksum())
	}
	if s.Mmap {
		opts = append(opts, rechunk.WithMmap())
	}
	results := make([]string, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Parallel, 1))
	for i, j := range jobs {
		g.Go(func() error {
			dims, stats, err := rechunk.RechunkContext(ctx, j.inputPath, j.inputDataset, j.outputPath, j.outputDataset,
				s.Level, s.Stripe, orientation, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", j, err)
			}
			results[i] = fmt.Sprintf("%s\tchunks %s\ttiles %d (%d skipped)\t%s",
				j, dims, stats.Tiles, stats.SkippedTiles, stats.Duration.Round(time.Millisecond))
			return nil
		})
	}
	err = g.Wait()
	for _, line := range results {
		if line != "" {
			fmt.Fprintln(stdout, line)
		}
	}
	return err
}

// parseJobs parses input:dataset:output:dataset arguments. Jobs run
// concurrently, so no job may write a file that another job reads or
// writes.
func parseJobs(args []string) ([]job, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no jobs given", matrix.ErrMalformedInput)
	}
	jobs := make([]job, 0, len(args))
	for _, arg := range args {
		parts := strings.Split(arg, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: job %q, want input:dataset:output:dataset", matrix.ErrMalformedInput, arg)
		}
		for _, p := range parts {
			if p == "" {
				return nil, fmt.Errorf("%w: job %q has an empty field", matrix.ErrMalformedInput, arg)
			}
		}
		jobs = append(jobs, job{inputPath: parts[0], inputDataset: parts[1], outputPath: parts[2], outputDataset: parts[3]})
	}

	outputs := make(map[string]int, len(jobs))
	for k, j := range jobs {
		out := filepath.Clean(j.outputPath)
		if prev, ok := outputs[out]; ok {
			return nil, fmt.Errorf("%w: jobs %q and %q write the same file", matrix.ErrMalformedInput, args[prev], args[k])
		}
		outputs[out] = k
	}
	for k, j := range jobs {
		if prev, ok := outputs[filepath.Clean(j.inputPath)]; ok && prev != k {
			return nil, fmt.Errorf("%w: job %q reads the file that job %q writes", matrix.ErrMalformedInput, args[k], args[prev])
		}
	}
	return jobs, nil
}
