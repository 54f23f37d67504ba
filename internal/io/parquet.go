package io

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/paveg/marmoset/internal/dataframe"
	"github.com/paveg/marmoset/internal/series"
)

// Read reads Parquet data and returns a frame.
func (r *ParquetReader) Read() (*dataframe.DataFrame, error) {
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	// ReadTable returns a table whose schema carries no custom metadata;
	// the stored Arrow schema (and with it the index designation) is only
	// available from the file reader itself.
	storedSchema, err := arrowReader.Schema()
	if err != nil {
		return nil, fmt.Errorf("reading arrow schema: %w", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer table.Release()

	return r.tableToFrame(table, storedSchema)
}

// Write writes the frame to Parquet format.
func (w *ParquetWriter) Write(df *dataframe.DataFrame) error {
	table, err := frameToTable(df)
	if err != nil {
		return fmt.Errorf("converting frame to arrow table: %w", err)
	}
	defer table.Release()

	var compression compress.Compression
	switch w.options.Compression {
	case "gzip":
		compression = compress.Codecs.Gzip
	case "lz4":
		compression = compress.Codecs.Lz4Raw
	case "zstd":
		compression = compress.Codecs.Zstd
	case "uncompressed":
		compression = compress.Codecs.Uncompressed
	default:
		compression = compress.Codecs.Snappy
	}

	batchSize := w.options.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	props := parquet.NewWriterProperties(
		parquet.WithCompression(compression),
		parquet.WithBatchSize(int64(batchSize)),
	)
	// WithStoreSchema persists the Arrow schema, metadata included; without
	// it the index designation would not survive the round trip.
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(memory.NewGoAllocator()),
		pqarrow.WithStoreSchema(),
	)

	writer, err := pqarrow.NewFileWriter(table.Schema(), w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	if err := writer.WriteTable(table, int64(df.Len())); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing file writer: %w", err)
	}
	return nil
}

// tableToFrame converts an Arrow table to a frame, restoring the index
// designation from the schema metadata.
func (r *ParquetReader) tableToFrame(table arrow.Table, storedSchema *arrow.Schema) (*dataframe.DataFrame, error) {
	schema := table.Schema()
	cols := make([]dataframe.ISeries, 0, int(table.NumCols()))

	for ci := 0; ci < int(table.NumCols()); ci++ {
		column := table.Column(ci)
		name := schema.Field(ci).Name
		chunks := column.Data().Chunks()

		var arr arrow.Array
		switch len(chunks) {
		case 0:
			builder := series.NewBuilderFor(r.mem, schema.Field(ci).Type)
			arr = builder.NewArray()
			builder.Release()
		case 1:
			chunks[0].Retain()
			arr = chunks[0]
		default:
			builder := series.NewBuilderFor(r.mem, chunks[0].DataType())
			for _, chunk := range chunks {
				for i := 0; i < chunk.Len(); i++ {
					series.AppendAt(builder, chunk, i)
				}
			}
			arr = builder.NewArray()
			builder.Release()
		}
		cols = append(cols, series.FromArrow(name, arr))
	}

	df := dataframe.New(cols...)
	if idx, ok := storedSchema.Metadata().GetValue(IndexMetadataKey); ok && idx != "" {
		if err := df.SetIndex(strings.Split(idx, ",")...); err != nil {
			df.Release()
			return nil, fmt.Errorf("restoring index: %w", err)
		}
	}
	return df, nil
}

// frameToTable converts a frame to an Arrow table, recording the index
// designation in the schema metadata.
func frameToTable(df *dataframe.DataFrame) (arrow.Table, error) {
	names := df.Columns()
	fields := make([]arrow.Field, 0, len(names))
	arrs := make([]arrow.Array, 0, len(names))
	for _, name := range names {
		col, ok := df.Column(name)
		if !ok {
			for _, arr := range arrs {
				arr.Release()
			}
			return nil, fmt.Errorf("column %q disappeared during conversion", name)
		}
		fields = append(fields, arrow.Field{Name: name, Type: col.DataType(), Nullable: true})
		arrs = append(arrs, col.Array())
	}

	var md arrow.Metadata
	if idx := df.IndexNames(); len(idx) > 0 {
		md = arrow.NewMetadata([]string{IndexMetadataKey}, []string{strings.Join(idx, ",")})
	}
	schema := arrow.NewSchema(fields, &md)

	record := array.NewRecord(schema, arrs, int64(df.Len()))
	for _, arr := range arrs {
		arr.Release()
	}
	defer record.Release()

	return array.NewTableFromRecords(schema, []arrow.Record{record}), nil
}
