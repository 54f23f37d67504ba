package partition

import (
	"github.com/paveg/marmoset/internal/dataframe"
)

// Per-partition wrappers of the eager frame helpers. Each applies the
// operation independently within every partition, so results are only
// meaningful where the operation is row-local or the frame is partitioned
// along the grouping key (the caller's responsibility, as with any
// partition-wise computation).

// AggregateByIndexAndKeys aggregates within each partition.
func (f *Frame) AggregateByIndexAndKeys(keys []string, aggs []dataframe.Aggregation) (*Frame, error) {
	return f.MapPartitions(func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return part.AggregateByIndexAndKeys(keys, aggs)
	})
}

// MergeKeepingIndex merges every partition against one eager right frame.
func (f *Frame) MergeKeepingIndex(right *dataframe.DataFrame, opts dataframe.MergeOptions) (*Frame, error) {
	return f.MapPartitions(func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return part.MergeKeepingIndex(right, opts)
	})
}

// DropDuplicatesByIndexAndKeys de-duplicates within each partition.
func (f *Frame) DropDuplicatesByIndexAndKeys(subset []string, keep dataframe.Keep) (*Frame, error) {
	return f.MapPartitions(func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return part.DropDuplicatesByIndexAndKeys(subset, keep)
	})
}

// DropRowsByIndex removes matching rows from every partition.
func (f *Frame) DropRowsByIndex(labels ...any) (*Frame, error) {
	return f.MapPartitions(func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return part.DropRowsByIndex(labels...)
	})
}

// StackListColumn explodes a list column within each partition.
func (f *Frame) StackListColumn(listColumn string, keepColumns []string) (*Frame, error) {
	return f.MapPartitions(func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return part.StackListColumn(listColumn, keepColumns)
	})
}

// StackListColumns explodes several list columns together within each
// partition.
func (f *Frame) StackListColumns(listColumns, keepColumns []string) (*Frame, error) {
	return f.MapPartitions(func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return part.StackListColumns(listColumns, keepColumns)
	})
}

// StackMapColumn explodes a map column within each partition.
func (f *Frame) StackMapColumn(mapColumn string, keepColumns []string, labelSuffix, valueSuffix string) (*Frame, error) {
	return f.MapPartitions(func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return part.StackMapColumn(mapColumn, keepColumns, labelSuffix, valueSuffix)
	})
}

// StackColumns turns the target columns wide-to-long within each partition.
func (f *Frame) StackColumns(targetColumns, keepColumns []string, labelName, outputName string) (*Frame, error) {
	return f.MapPartitions(func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return part.StackColumns(targetColumns, keepColumns, labelName, outputName)
	})
}

// SplitColumn splits a string column into a list column in every partition.
func (f *Frame) SplitColumn(column, sep, out string) (*Frame, error) {
	return f.MapPartitions(func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return part.SplitColumn(column, sep, out)
	})
}
