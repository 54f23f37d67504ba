package dataframe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/paveg/marmoset/internal/errors"
	"github.com/paveg/marmoset/internal/series"
)

// StackListColumn explodes one list column to long form: every list element
// becomes its own row, with the index and keep columns repeated.
func (df *DataFrame) StackListColumn(listColumn string, keepColumns []string) (*DataFrame, error) {
	return df.StackListColumns([]string{listColumn}, keepColumns)
}

// StackListColumns explodes several list columns together. Elements at the
// same list position land on the same output row; when the lists of one row
// have different lengths the shorter columns are null-padded.
func (df *DataFrame) StackListColumns(listColumns []string, keepColumns []string) (*DataFrame, error) {
	const op = "StackListColumns"
	if len(df.index) == 0 {
		return nil, errors.NewInvalidInput(op, "frame has no named index")
	}
	if len(listColumns) == 0 {
		return nil, errors.NewInvalidInput(op, "no list columns given")
	}

	carried := append(df.IndexNames(), keepColumns...)
	carriedArrs, err := df.columnArrays(op, carried)
	if err != nil {
		return nil, err
	}
	defer releaseArrays(carriedArrs)

	listArrs, err := df.columnArrays(op, listColumns)
	if err != nil {
		return nil, err
	}
	defer releaseArrays(listArrs)
	for i, arr := range listArrs {
		if _, ok := arr.(*array.List); !ok {
			return nil, errors.NewUnsupportedType(op,
				fmt.Sprintf("column %q is %s, want list", listColumns[i], arr.DataType()))
		}
	}

	carriedBuilders := newBuildersLike(df, carriedArrs)
	defer releaseBuilders(carriedBuilders)
	listBuilders := make([]*array.StringBuilder, len(listColumns))
	for i := range listBuilders {
		listBuilders[i] = array.NewStringBuilder(df.mem)
		defer listBuilders[i].Release()
	}

	for row := 0; row < df.Len(); row++ {
		elems := make([][]string, len(listArrs))
		maxLen := 0
		for i, arr := range listArrs {
			if v, ok := series.ValueAt(arr, row).([]string); ok {
				elems[i] = v
				if len(v) > maxLen {
					maxLen = len(v)
				}
			}
		}
		for pos := 0; pos < maxLen; pos++ {
			for i, arr := range carriedArrs {
				series.AppendAt(carriedBuilders[i], arr, row)
			}
			for i, vals := range elems {
				if pos < len(vals) {
					listBuilders[i].Append(vals[pos])
				} else {
					listBuilders[i].AppendNull()
				}
			}
		}
	}

	outCols := finishBuilders(carried, carriedBuilders)
	for i, name := range listColumns {
		arr := listBuilders[i].NewArray()
		outCols = append(outCols, series.FromArrow(name, arr))
	}
	out := New(outCols...)
	out.index = df.IndexNames()
	return out, nil
}

// StackMapColumn explodes a map column into label/value rows. Each map
// entry becomes one output row carrying "<col><valueSuffix>" and
// "<col><labelSuffix>" columns; entries emit in sorted key order.
func (df *DataFrame) StackMapColumn(mapColumn string, keepColumns []string,
	labelSuffix, valueSuffix string) (*DataFrame, error) {
	const op = "StackMapColumn"
	if len(df.index) == 0 {
		return nil, errors.NewInvalidInput(op, "frame has no named index")
	}
	if labelSuffix == "" {
		labelSuffix = "_label"
	}
	if valueSuffix == "" {
		valueSuffix = "_value"
	}

	carried := append(df.IndexNames(), keepColumns...)
	carriedArrs, err := df.columnArrays(op, carried)
	if err != nil {
		return nil, err
	}
	defer releaseArrays(carriedArrs)

	mapArrs, err := df.columnArrays(op, []string{mapColumn})
	if err != nil {
		return nil, err
	}
	defer releaseArrays(mapArrs)
	if _, ok := mapArrs[0].(*array.Map); !ok {
		return nil, errors.NewUnsupportedType(op,
			fmt.Sprintf("column %q is %s, want map", mapColumn, mapArrs[0].DataType()))
	}

	carriedBuilders := newBuildersLike(df, carriedArrs)
	defer releaseBuilders(carriedBuilders)
	valueBuilder := array.NewInt64Builder(df.mem)
	defer valueBuilder.Release()
	labelBuilder := array.NewStringBuilder(df.mem)
	defer labelBuilder.Release()

	for row := 0; row < df.Len(); row++ {
		entries, ok := series.ValueAt(mapArrs[0], row).(map[string]int64)
		if !ok {
			continue
		}
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for i, arr := range carriedArrs {
				series.AppendAt(carriedBuilders[i], arr, row)
			}
			valueBuilder.Append(entries[k])
			labelBuilder.Append(k)
		}
	}

	outCols := finishBuilders(carried, carriedBuilders)
	outCols = append(outCols,
		series.FromArrow(mapColumn+valueSuffix, valueBuilder.NewArray()),
		series.FromArrow(mapColumn+labelSuffix, labelBuilder.NewArray()))
	out := New(outCols...)
	out.index = df.IndexNames()
	return out, nil
}

// StackColumns turns the target columns wide-to-long: one output row per
// (input row, target column), with the column name in labelName and the
// cell value in outputName. Targets must share one data type.
func (df *DataFrame) StackColumns(targetColumns, keepColumns []string,
	labelName, outputName string) (*DataFrame, error) {
	const op = "StackColumns"
	if len(df.index) == 0 {
		return nil, errors.NewInvalidInput(op, "frame has no named index")
	}
	if len(targetColumns) == 0 {
		return nil, errors.NewInvalidInput(op, "no target columns given")
	}
	if labelName == "" {
		labelName = "stack_label"
	}
	if outputName == "" {
		outputName = "stacked"
	}

	carried := append(df.IndexNames(), keepColumns...)
	carriedArrs, err := df.columnArrays(op, carried)
	if err != nil {
		return nil, err
	}
	defer releaseArrays(carriedArrs)

	targetArrs, err := df.columnArrays(op, targetColumns)
	if err != nil {
		return nil, err
	}
	defer releaseArrays(targetArrs)
	for _, arr := range targetArrs[1:] {
		if !arrow.TypeEqual(arr.DataType(), targetArrs[0].DataType()) {
			return nil, errors.NewInvalidInput(op,
				fmt.Sprintf("target columns mix %s and %s", targetArrs[0].DataType(), arr.DataType()))
		}
	}

	carriedBuilders := newBuildersLike(df, carriedArrs)
	defer releaseBuilders(carriedBuilders)
	labelBuilder := array.NewStringBuilder(df.mem)
	defer labelBuilder.Release()
	outputBuilder := series.NewBuilderFor(df.mem, targetArrs[0].DataType())
	defer outputBuilder.Release()

	for row := 0; row < df.Len(); row++ {
		for t, arr := range targetArrs {
			for i, carr := range carriedArrs {
				series.AppendAt(carriedBuilders[i], carr, row)
			}
			labelBuilder.Append(targetColumns[t])
			series.AppendAt(outputBuilder, arr, row)
		}
	}

	outCols := finishBuilders(carried, carriedBuilders)
	outCols = append(outCols,
		series.FromArrow(labelName, labelBuilder.NewArray()),
		series.FromArrow(outputName, outputBuilder.NewArray()))
	out := New(outCols...)
	out.index = df.IndexNames()
	return out, nil
}

// SplitColumn splits a string column on sep into a new list column named
// out, appended to the frame. Null inputs stay null.
func (df *DataFrame) SplitColumn(column, sep, out string) (*DataFrame, error) {
	const op = "SplitColumn"
	arrs, err := df.columnArrays(op, []string{column})
	if err != nil {
		return nil, err
	}
	defer releaseArrays(arrs)
	src, ok := arrs[0].(*array.String)
	if !ok {
		return nil, errors.NewUnsupportedType(op,
			fmt.Sprintf("column %q is %s, want utf8", column, arrs[0].DataType()))
	}

	builder := array.NewListBuilder(df.mem, arrow.BinaryTypes.String)
	defer builder.Release()
	vb := builder.ValueBuilder().(*array.StringBuilder)
	for row := 0; row < src.Len(); row++ {
		if src.IsNull(row) {
			builder.AppendNull()
			continue
		}
		builder.Append(true)
		for _, part := range strings.Split(src.Value(row), sep) {
			vb.Append(part)
		}
	}
	return df.WithColumn(series.FromArrow(out, builder.NewArray())), nil
}

func newBuildersLike(df *DataFrame, arrs []arrow.Array) []array.Builder {
	builders := make([]array.Builder, len(arrs))
	for i, arr := range arrs {
		builders[i] = series.NewBuilderFor(df.mem, arr.DataType())
	}
	return builders
}

func releaseBuilders(builders []array.Builder) {
	for _, b := range builders {
		b.Release()
	}
}

func finishBuilders(names []string, builders []array.Builder) []ISeries {
	out := make([]ISeries, 0, len(builders))
	for i, b := range builders {
		out = append(out, series.FromArrow(names[i], b.NewArray()))
	}
	return out
}
