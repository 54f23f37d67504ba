package io

import (
	"bytes"
	"encoding/csv"
	"fmt"
	stdio "io"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/marmoset/internal/dataframe"
	"github.com/paveg/marmoset/internal/errors"
	"github.com/paveg/marmoset/internal/series"
)

const (
	trueStr  = "true"
	falseStr = "false"
)

// CSVOptions contains configuration options for CSV operations.
type CSVOptions struct {
	// Header controls whether the first row carries column names.
	Header bool
	// Delimiter between fields.
	Delimiter rune
	// Comment character; lines starting with it are skipped on read.
	Comment rune
}

// DefaultCSVOptions returns default CSV options.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Header: true, Delimiter: ','}
}

// CSVReader reads CSV data and converts it to a frame, inferring a column
// type (bool, int64, float64 or string) from the cell values. Empty cells
// become nulls. CSV carries no index metadata, so the result has no index
// designation.
type CSVReader struct {
	reader  stdio.Reader
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a new CSV reader with the specified options.
func NewCSVReader(reader stdio.Reader, options CSVOptions, mem memory.Allocator) *CSVReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &CSVReader{reader: reader, options: options, mem: mem}
}

// CSVWriter writes frames to CSV format. Nulls write as empty cells; list
// and map columns are not representable and fail.
type CSVWriter struct {
	writer  stdio.Writer
	options CSVOptions
}

// NewCSVWriter creates a new CSV writer with the specified options.
func NewCSVWriter(writer stdio.Writer, options CSVOptions) *CSVWriter {
	return &CSVWriter{writer: writer, options: options}
}

// Read reads CSV data and returns a frame. Fully blank lines parse as
// all-null rows rather than being skipped.
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	data, err := stdio.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	csvReader := csv.NewReader(bytes.NewReader(normalizeBlankLines(data)))
	if r.options.Delimiter != 0 {
		csvReader.Comma = r.options.Delimiter
	}
	csvReader.Comment = r.options.Comment
	// Blank lines normalize to single-field records; short rows pad below.
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var headers []string
	var rows [][]string
	if r.options.Header {
		headers = records[0]
		rows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		rows = records
	}

	cols := make([]dataframe.ISeries, len(headers))
	for i, header := range headers {
		cells := make([]string, len(rows))
		for j, row := range rows {
			if i < len(row) {
				cells[j] = row[i]
			}
		}
		cols[i] = r.columnFromStrings(header, cells)
	}
	return dataframe.New(cols...), nil
}

// normalizeBlankLines rewrites blank lines outside quoted fields as a
// single empty field, so encoding/csv parses them as records instead of
// silently skipping them.
func normalizeBlankLines(data []byte) []byte {
	var out bytes.Buffer
	inQuotes := false
	atLineStart := true
	for i := 0; i < len(data); i++ {
		c := data[i]
		if atLineStart && !inQuotes {
			if c == '\n' || (c == '\r' && i+1 < len(data) && data[i+1] == '\n') {
				out.WriteString(`""`)
			}
		}
		if c == '"' {
			inQuotes = !inQuotes
		}
		out.WriteByte(c)
		atLineStart = c == '\n'
	}
	return out.Bytes()
}

// columnFromStrings builds a typed series from raw cells, empty cells null.
func (r *CSVReader) columnFromStrings(name string, cells []string) dataframe.ISeries {
	valid := make([]bool, len(cells))
	for i, c := range cells {
		valid[i] = c != ""
	}

	switch inferDataType(cells) {
	case "bool":
		values := make([]bool, len(cells))
		for i, c := range cells {
			values[i] = strings.EqualFold(c, trueStr)
		}
		return series.NewWithValidity(name, values, valid, r.mem)
	case "int":
		values := make([]int64, len(cells))
		for i, c := range cells {
			if valid[i] {
				values[i], _ = strconv.ParseInt(c, 10, 64)
			}
		}
		return series.NewWithValidity(name, values, valid, r.mem)
	case "float":
		values := make([]float64, len(cells))
		for i, c := range cells {
			if valid[i] {
				values[i], _ = strconv.ParseFloat(c, 64)
			}
		}
		return series.NewWithValidity(name, values, valid, r.mem)
	default:
		return series.NewWithValidity(name, cells, valid, r.mem)
	}
}

// inferDataType picks the most specific type every non-empty cell parses as.
func inferDataType(cells []string) string {
	canBeInt, canBeFloat, canBeBool := true, true, true
	hasValue := false

	for _, c := range cells {
		if c == "" {
			continue
		}
		hasValue = true
		if canBeBool {
			lower := strings.ToLower(c)
			canBeBool = lower == trueStr || lower == falseStr
		}
		if canBeInt {
			_, err := strconv.ParseInt(c, 10, 64)
			canBeInt = err == nil
		}
		if canBeFloat {
			_, err := strconv.ParseFloat(c, 64)
			canBeFloat = err == nil
		}
	}

	if !hasValue {
		return "string"
	}
	switch {
	case canBeBool:
		return "bool"
	case canBeInt:
		return "int"
	case canBeFloat:
		return "float"
	default:
		return "string"
	}
}

// Write writes a frame as CSV.
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	const op = "CSVWriter.Write"

	names := df.Columns()
	arrs := make([]arrow.Array, len(names))
	defer func() {
		for _, arr := range arrs {
			if arr != nil {
				arr.Release()
			}
		}
	}()
	for i, name := range names {
		col, ok := df.Column(name)
		if !ok {
			return errors.NewColumnNotFound(op, name)
		}
		switch col.DataType().ID() {
		case arrow.LIST, arrow.MAP:
			return errors.NewUnsupportedType(op, col.DataType().String())
		}
		arrs[i] = col.Array()
	}

	csvWriter := csv.NewWriter(w.writer)
	if w.options.Delimiter != 0 {
		csvWriter.Comma = w.options.Delimiter
	}

	if w.options.Header {
		if err := csvWriter.Write(names); err != nil {
			return fmt.Errorf("writing CSV header: %w", err)
		}
	}

	record := make([]string, len(arrs))
	for row := 0; row < df.Len(); row++ {
		for i, arr := range arrs {
			record[i] = formatCell(arr, row)
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", row, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func formatCell(arr arrow.Array, row int) string {
	v := series.ValueAt(arr, row)
	switch cell := v.(type) {
	case nil:
		return ""
	case string:
		return cell
	case bool:
		return strconv.FormatBool(cell)
	case int64:
		return strconv.FormatInt(cell, 10)
	case uint64:
		return strconv.FormatUint(cell, 10)
	case float64:
		return strconv.FormatFloat(cell, 'g', -1, 64)
	default:
		return fmt.Sprint(cell)
	}
}
