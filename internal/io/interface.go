// Package io provides Parquet read/write for frames.
//
// Frames round-trip through Apache Arrow tables. The named-index
// designation survives the trip in the Arrow schema metadata, under the
// key "marmoset:index".
package io

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/marmoset/internal/dataframe"
)

// IndexMetadataKey is the schema metadata key carrying the comma-joined
// index column names.
const IndexMetadataKey = "marmoset:index"

// DefaultBatchSize is the default batch size for I/O operations.
const DefaultBatchSize = 1000

// DataReader defines the interface for reading data from a source.
type DataReader interface {
	Read() (*dataframe.DataFrame, error)
}

// DataWriter defines the interface for writing data to a destination.
type DataWriter interface {
	Write(df *dataframe.DataFrame) error
}

// ParquetOptions contains configuration options for Parquet operations.
type ParquetOptions struct {
	// Compression type: snappy, gzip, zstd, lz4 or uncompressed.
	Compression string
	// BatchSize for writing operations.
	BatchSize int
}

// DefaultParquetOptions returns default Parquet options.
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{Compression: "snappy", BatchSize: DefaultBatchSize}
}

// ParquetReader reads Parquet data and converts it to frames.
type ParquetReader struct {
	reader  io.Reader
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetReader creates a new Parquet reader with the specified options.
func NewParquetReader(reader io.Reader, options ParquetOptions, mem memory.Allocator) *ParquetReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &ParquetReader{reader: reader, options: options, mem: mem}
}

// ParquetWriter writes frames to Parquet format.
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
}

// NewParquetWriter creates a new Parquet writer with the specified options.
func NewParquetWriter(writer io.Writer, options ParquetOptions) *ParquetWriter {
	return &ParquetWriter{writer: writer, options: options}
}
