// Package partition provides a partitioned view over frames: an ordered
// list of row partitions processed partition-wise, the way the helpers in
// this module are meant to scale past a single table. There is no
// distributed scheduler behind it; the worker pool is the only concurrency.
package partition

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/sync/errgroup"

	"github.com/paveg/marmoset/internal/config"
	"github.com/paveg/marmoset/internal/dataframe"
	"github.com/paveg/marmoset/internal/errors"
	"github.com/paveg/marmoset/internal/hash"
	frameio "github.com/paveg/marmoset/internal/io"
	"github.com/paveg/marmoset/internal/parallel"
)

// Frame is an ordered sequence of row partitions sharing one schema.
type Frame struct {
	parts []*dataframe.DataFrame
}

// Split divides a frame into n contiguous row partitions. When n <= 0 the
// configured default partition count applies, collapsed to a single
// partition for frames below the configured parallel threshold.
func Split(df *dataframe.DataFrame, n int) (*Frame, error) {
	if n <= 0 {
		cfg := config.Global()
		n = cfg.DefaultPartitions
		if df.Len() < cfg.ParallelThreshold {
			n = 1
		}
	}
	if n <= 0 {
		n = 1
	}
	total := df.Len()
	if n > total && total > 0 {
		n = total
	}
	parts := make([]*dataframe.DataFrame, 0, n)
	if total == 0 {
		parts = append(parts, df.Slice(0, 0))
		return &Frame{parts: parts}, nil
	}
	base, rem := total/n, total%n
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		parts = append(parts, df.Slice(start, start+size))
		start += size
	}
	return &Frame{parts: parts}, nil
}

// FromFrames builds a partitioned frame from pre-cut partitions.
func FromFrames(parts ...*dataframe.DataFrame) (*Frame, error) {
	if len(parts) == 0 {
		return nil, errors.NewInvalidInput("FromFrames", "no partitions given")
	}
	return &Frame{parts: append([]*dataframe.DataFrame(nil), parts...)}, nil
}

// NumPartitions returns the partition count.
func (f *Frame) NumPartitions() int {
	return len(f.parts)
}

// Partition returns the i-th partition.
func (f *Frame) Partition(i int) *dataframe.DataFrame {
	return f.parts[i]
}

// MapPartitions applies fn to every partition in parallel and returns a new
// partitioned frame with the results in partition order. fn sees each
// partition as a standalone frame: row positions are partition-local, not
// global.
func (f *Frame) MapPartitions(fn func(*dataframe.DataFrame) (*dataframe.DataFrame, error)) (*Frame, error) {
	wp := parallel.NewWorkerPool(config.Global().WorkerPoolSize)
	defer wp.Close()
	parts, err := parallel.MapErr(wp, f.parts, func(_ int, part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return fn(part)
	})
	if err != nil {
		return nil, err
	}
	return &Frame{parts: parts}, nil
}

// Collect concatenates all partitions into one frame.
func (f *Frame) Collect() (*dataframe.DataFrame, error) {
	if len(f.parts) == 1 {
		only := f.parts[0]
		return only.Slice(0, only.Len()), nil
	}
	return f.parts[0].Concat(f.parts[1:]...)
}

// ContentHash combines the per-partition content digests, in partition
// order, into one digest for the whole dataset.
func (f *Frame) ContentHash() string {
	wp := parallel.NewWorkerPool(config.Global().WorkerPoolSize)
	defer wp.Close()
	digests := parallel.Map(wp, f.parts, func(_ int, part *dataframe.DataFrame) string {
		return hash.Frame(part)
	})
	return hash.Combine(digests)
}

// Release frees all partitions.
func (f *Frame) Release() {
	for _, part := range f.parts {
		part.Release()
	}
}

// partFileName returns the file name of the i-th partition in a dataset
// directory.
func partFileName(i int) string {
	return fmt.Sprintf("part.%d.parquet", i)
}

// WriteParquet writes one parquet file per partition into dir, creating it
// if needed. Partition files write in parallel.
func (f *Frame) WriteParquet(dir string, opts frameio.ParquetOptions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating dataset directory: %w", err)
	}
	var g errgroup.Group
	g.SetLimit(parallelWriters())
	for i, part := range f.parts {
		g.Go(func() error {
			file, err := os.Create(filepath.Join(dir, partFileName(i)))
			if err != nil {
				return fmt.Errorf("creating partition file: %w", err)
			}
			writer := frameio.NewParquetWriter(file, opts)
			if err := writer.Write(part); err != nil {
				// Write may or may not have closed the sink already.
				_ = file.Close()
				return fmt.Errorf("writing partition %d: %w", i, err)
			}
			// Write closes the parquet writer, which closes the file.
			return nil
		})
	}
	return g.Wait()
}

// ReadParquet loads a partitioned dataset written by WriteParquet.
func ReadParquet(dir string, mem memory.Allocator) (*Frame, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "part.*.parquet"))
	if err != nil {
		return nil, fmt.Errorf("listing dataset directory: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.NewInvalidInput("ReadParquet", fmt.Sprintf("no partition files under %s", dir))
	}
	// Glob order is lexical; part.10 would sort before part.2.
	sort.Slice(entries, func(i, j int) bool {
		return partNumber(entries[i]) < partNumber(entries[j])
	})

	parts := make([]*dataframe.DataFrame, 0, len(entries))
	for _, path := range entries {
		file, err := os.Open(path)
		if err != nil {
			releaseParts(parts)
			return nil, fmt.Errorf("opening partition file: %w", err)
		}
		reader := frameio.NewParquetReader(file, frameio.DefaultParquetOptions(), mem)
		df, err := reader.Read()
		closeErr := file.Close()
		if err != nil {
			releaseParts(parts)
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if closeErr != nil {
			releaseParts(parts)
			return nil, closeErr
		}
		parts = append(parts, df)
	}
	return &Frame{parts: parts}, nil
}

func partNumber(path string) int {
	var n int
	_, err := fmt.Sscanf(filepath.Base(path), "part.%d.parquet", &n)
	if err != nil {
		return -1
	}
	return n
}

func releaseParts(parts []*dataframe.DataFrame) {
	for _, p := range parts {
		p.Release()
	}
}

func parallelWriters() int {
	if n := config.Global().WorkerPoolSize; n > 0 {
		return n
	}
	return 4
}
