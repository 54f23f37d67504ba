// Package marmoset provides index-aware dataframe helpers and a versioned
// dataset catalog with lineage tracking. This package is the sole public API
// for the library.
//
// A DataFrame may designate columns as its named row index; the helper
// operations (aggregate, merge, de-duplicate, stack) carry that index
// through transformations that would otherwise destroy it. Registered
// datasets are persisted as partitioned parquet and tracked in a YAML
// catalog keyed by name and version, each entry fingerprinted by a content
// hash and linked to the upstream datasets it was derived from.
package marmoset

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/marmoset/internal/dataframe"
	"github.com/paveg/marmoset/internal/series"
)

// ISeries provides a type-erased interface for Series of any type
type ISeries interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
}

// DataFrame is the public type for a table with an optional named index.
// It wraps the internal dataframe.DataFrame to hide implementation details.
type DataFrame struct {
	df *dataframe.DataFrame
}

// JoinType represents the type of join operation
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullOuterJoin
)

// ReindexSide selects which side's index the merge result adopts.
type ReindexSide int

const (
	ReindexByLeft ReindexSide = iota
	ReindexByRight
	ReindexNone
)

// MergeOptions specifies parameters for MergeKeepingIndex. Either On or the
// LeftOn/RightOn pair must be set.
type MergeOptions struct {
	Type      JoinType
	On        []string
	LeftOn    []string
	RightOn   []string
	ReindexBy ReindexSide
}

// AggFunc identifies an aggregation function.
type AggFunc = dataframe.AggFunc

// Aggregation functions accepted by the aggregate operations.
const (
	AggSum   = dataframe.AggSum
	AggCount = dataframe.AggCount
	AggMean  = dataframe.AggMean
	AggMin   = dataframe.AggMin
	AggMax   = dataframe.AggMax
	AggFirst = dataframe.AggFirst
	AggLast  = dataframe.AggLast
)

// Aggregation describes one aggregated output column. When As is empty the
// output is named "<column>_<func>".
type Aggregation struct {
	Column string
	Func   AggFunc
	As     string
}

// Keep selects which duplicate survives a de-duplication.
type Keep int

const (
	KeepFirst Keep = iota
	KeepLast
)

// NewDataFrame creates a new DataFrame from ISeries. No index is set.
func NewDataFrame(cols ...ISeries) *DataFrame {
	internalSeries := make([]dataframe.ISeries, len(cols))
	for i, s := range cols {
		internalSeries[i] = s
	}
	return &DataFrame{df: dataframe.New(internalSeries...)}
}

// NewSeries creates a new typed Series from values.
func NewSeries[T any](name string, values []T, mem memory.Allocator) ISeries {
	return series.New(name, values, mem)
}

// NewSeriesWithValidity creates a Series where values[i] is null when
// valid[i] is false.
func NewSeriesWithValidity[T any](name string, values []T, valid []bool, mem memory.Allocator) ISeries {
	return series.NewWithValidity(name, values, valid, mem)
}

// DataFrame methods

// SetIndex designates existing columns as the named index.
func (d *DataFrame) SetIndex(names ...string) error {
	return d.df.SetIndex(names...)
}

// ResetIndex removes the index designation, keeping the columns.
func (d *DataFrame) ResetIndex() {
	d.df.ResetIndex()
}

// IndexNames returns the names of the index columns in level order.
func (d *DataFrame) IndexNames() []string {
	return d.df.IndexNames()
}

// Columns returns the column names in order, index included.
func (d *DataFrame) Columns() []string {
	return d.df.Columns()
}

// DataColumns returns the non-index column names in order.
func (d *DataFrame) DataColumns() []string {
	return d.df.DataColumns()
}

// Len returns the number of rows.
func (d *DataFrame) Len() int {
	return d.df.Len()
}

// Width returns the number of columns.
func (d *DataFrame) Width() int {
	return d.df.Width()
}

// Column returns the column with the given name.
func (d *DataFrame) Column(name string) (ISeries, bool) {
	return d.df.Column(name)
}

// HasColumn returns true if the DataFrame has the given column.
func (d *DataFrame) HasColumn(name string) bool {
	return d.df.HasColumn(name)
}

// Select returns a new DataFrame with only the specified columns. The index
// designation survives only for selected index columns.
func (d *DataFrame) Select(names ...string) *DataFrame {
	return &DataFrame{df: d.df.Select(names...)}
}

// Drop returns a new DataFrame without the specified columns.
func (d *DataFrame) Drop(names ...string) *DataFrame {
	return &DataFrame{df: d.df.Drop(names...)}
}

// WithColumn returns a new DataFrame with col appended or replaced.
func (d *DataFrame) WithColumn(col ISeries) *DataFrame {
	return &DataFrame{df: d.df.WithColumn(col)}
}

// String returns a string representation of the DataFrame.
func (d *DataFrame) String() string {
	return d.df.String()
}

// Slice returns a new DataFrame with rows from start to end (exclusive).
func (d *DataFrame) Slice(start, end int) *DataFrame {
	return &DataFrame{df: d.df.Slice(start, end)}
}

// TakeRows returns a new DataFrame with the rows at the given positions, in
// the given order.
func (d *DataFrame) TakeRows(indices []int) *DataFrame {
	return &DataFrame{df: d.df.TakeRows(indices)}
}

// FilterRows returns a new DataFrame with the rows for which keep returns
// true.
func (d *DataFrame) FilterRows(keep func(row int) bool) *DataFrame {
	return &DataFrame{df: d.df.FilterRows(keep)}
}

// SortBy returns a new DataFrame sorted by multiple columns. ascending must
// be empty (all ascending) or match columns in length.
func (d *DataFrame) SortBy(columns []string, ascending []bool) (*DataFrame, error) {
	out, err := d.df.SortBy(columns, ascending)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

// Concat concatenates this DataFrame with others row-wise.
func (d *DataFrame) Concat(others ...*DataFrame) (*DataFrame, error) {
	internal := make([]*dataframe.DataFrame, len(others))
	for i, other := range others {
		internal[i] = other.df
	}
	out, err := d.df.Concat(internal...)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

// Release frees the memory used by the DataFrame.
func (d *DataFrame) Release() {
	d.df.Release()
}

// AggregateByIndexAndKeys groups rows by the named index plus the key
// columns and applies the aggregations. The result keeps the index.
func (d *DataFrame) AggregateByIndexAndKeys(keys []string, aggs []Aggregation) (*DataFrame, error) {
	out, err := d.df.AggregateByIndexAndKeys(keys, internalAggs(aggs))
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

// AggregateBy groups rows by the given columns only, ignoring any index.
func (d *DataFrame) AggregateBy(keys []string, aggs []Aggregation) (*DataFrame, error) {
	out, err := d.df.AggregateBy(keys, internalAggs(aggs))
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

func internalAggs(aggs []Aggregation) []dataframe.Aggregation {
	internal := make([]dataframe.Aggregation, len(aggs))
	for i, a := range aggs {
		internal[i] = dataframe.Aggregation{Column: a.Column, Func: a.Func, As: a.As}
	}
	return internal
}

// MergeKeepingIndex merges two frames on key columns without destroying the
// named index.
func (d *DataFrame) MergeKeepingIndex(right *DataFrame, options MergeOptions) (*DataFrame, error) {
	out, err := d.df.MergeKeepingIndex(right.df, dataframe.MergeOptions{
		Type:      dataframe.JoinType(options.Type),
		On:        options.On,
		LeftOn:    options.LeftOn,
		RightOn:   options.RightOn,
		ReindexBy: dataframe.ReindexSide(options.ReindexBy),
	})
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

// DropDuplicatesByIndexAndKeys removes rows duplicating the combination of
// the named index and the subset columns. Row order is preserved.
func (d *DataFrame) DropDuplicatesByIndexAndKeys(subset []string, keep Keep) (*DataFrame, error) {
	out, err := d.df.DropDuplicatesByIndexAndKeys(subset, dataframe.Keep(keep))
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

// DropRowsByIndex removes every row whose single-column index label is one
// of the given labels.
func (d *DataFrame) DropRowsByIndex(labels ...any) (*DataFrame, error) {
	out, err := d.df.DropRowsByIndex(labels...)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

// StackListColumn explodes a list column to long form, repeating the index
// and keep columns per element.
func (d *DataFrame) StackListColumn(listColumn string, keepColumns []string) (*DataFrame, error) {
	out, err := d.df.StackListColumn(listColumn, keepColumns)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

// StackListColumns explodes several list columns together, aligned by list
// position and null-padded when ragged.
func (d *DataFrame) StackListColumns(listColumns, keepColumns []string) (*DataFrame, error) {
	out, err := d.df.StackListColumns(listColumns, keepColumns)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

// StackMapColumn explodes a map column into label/value rows in sorted key
// order. Empty suffixes default to "_label" and "_value".
func (d *DataFrame) StackMapColumn(mapColumn string, keepColumns []string, labelSuffix, valueSuffix string) (*DataFrame, error) {
	out, err := d.df.StackMapColumn(mapColumn, keepColumns, labelSuffix, valueSuffix)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

// StackColumns turns the target columns wide-to-long. Empty names default
// to "stack_label" and "stacked".
func (d *DataFrame) StackColumns(targetColumns, keepColumns []string, labelName, outputName string) (*DataFrame, error) {
	out, err := d.df.StackColumns(targetColumns, keepColumns, labelName, outputName)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

// SplitColumn splits a string column on sep into a new list column named
// out, appended to the frame.
func (d *DataFrame) SplitColumn(column, sep, out string) (*DataFrame, error) {
	res, err := d.df.SplitColumn(column, sep, out)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: res}, nil
}

// Column helpers

// StartsWithAny returns a bool column, true where col starts with any of
// the prefixes. Nulls stay null.
func StartsWithAny(col ISeries, prefixes ...string) (ISeries, error) {
	return dataframe.StartsWithAny(col, prefixes)
}

// EndsWithAny returns a bool column, true where col ends with any of the
// suffixes. Nulls stay null.
func EndsWithAny(col ISeries, suffixes ...string) (ISeries, error) {
	return dataframe.EndsWithAny(col, suffixes)
}

// ContainsAny returns a bool column, true where col contains any of the
// substrings. Nulls stay null.
func ContainsAny(col ISeries, substrings ...string) (ISeries, error) {
	return dataframe.ContainsAny(col, substrings)
}

// HashStrings maps a string column to stable uint64 hashes.
func HashStrings(col ISeries) (ISeries, error) {
	return dataframe.HashStrings(col)
}

// FillForward fills nulls in a float64 column with the last value seen in
// row order. limit caps the fill distance; 0 means no cap.
func FillForward(col ISeries, limit int) (ISeries, error) {
	return dataframe.FillForward(col, limit)
}

// FillBackward fills nulls with the next value in row order.
func FillBackward(col ISeries, limit int) (ISeries, error) {
	return dataframe.FillBackward(col, limit)
}

// FillNearest fills each null with whichever neighbour value is closer,
// preferring the previous one on ties.
func FillNearest(col ISeries, limit int) (ISeries, error) {
	return dataframe.FillNearest(col, limit)
}
