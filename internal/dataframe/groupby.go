package dataframe

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/exp/constraints"

	"github.com/paveg/marmoset/internal/errors"
	"github.com/paveg/marmoset/internal/series"
)

// AggFunc identifies an aggregation function.
type AggFunc string

const (
	AggSum   AggFunc = "sum"
	AggCount AggFunc = "count"
	AggMean  AggFunc = "mean"
	AggMin   AggFunc = "min"
	AggMax   AggFunc = "max"
	AggFirst AggFunc = "first"
	AggLast  AggFunc = "last"
)

// Aggregation describes one aggregated output column. When As is empty the
// output name is "<column>_<func>": the two-level header a column/function
// pair would form is flattened into a single name.
type Aggregation struct {
	Column string
	Func   AggFunc
	As     string
}

func (a Aggregation) outputName() string {
	if a.As != "" {
		return a.As
	}
	return fmt.Sprintf("%s_%s", a.Column, a.Func)
}

// AggregateByIndexAndKeys groups rows by the named index plus the given key
// columns and applies the aggregations. Group order follows first
// appearance. The result keeps the original index designation; key columns
// become regular columns of the result.
func (df *DataFrame) AggregateByIndexAndKeys(keys []string, aggs []Aggregation) (*DataFrame, error) {
	if len(df.index) == 0 {
		return nil, errors.NewInvalidInput("AggregateByIndexAndKeys", "frame has no named index")
	}
	if len(aggs) == 0 {
		return nil, errors.NewInvalidInput("AggregateByIndexAndKeys", "no aggregations given")
	}
	groupCols := append(df.IndexNames(), keys...)
	return df.aggregateBy(groupCols, aggs, df.IndexNames())
}

// AggregateBy groups rows by the given columns only, ignoring any index.
func (df *DataFrame) AggregateBy(keys []string, aggs []Aggregation) (*DataFrame, error) {
	if len(keys) == 0 {
		return nil, errors.NewInvalidInput("AggregateBy", "no group keys given")
	}
	return df.aggregateBy(keys, aggs, nil)
}

func (df *DataFrame) aggregateBy(groupCols []string, aggs []Aggregation, indexNames []string) (*DataFrame, error) {
	keyArrs, err := df.columnArrays("Aggregate", groupCols)
	if err != nil {
		return nil, err
	}
	defer releaseArrays(keyArrs)

	groupOf := make(map[string]int)
	var groups [][]int
	for row := 0; row < df.Len(); row++ {
		k := rowKey(keyArrs, row)
		gi, ok := groupOf[k]
		if !ok {
			gi = len(groups)
			groupOf[k] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], row)
	}

	outCols := make([]ISeries, 0, len(groupCols)+len(aggs))

	// Group key columns: first row of each group.
	for ci, name := range groupCols {
		builder := series.NewBuilderFor(df.mem, keyArrs[ci].DataType())
		for _, rows := range groups {
			series.AppendAt(builder, keyArrs[ci], rows[0])
		}
		arr := builder.NewArray()
		builder.Release()
		outCols = append(outCols, series.FromArrow(name, arr))
	}

	for _, agg := range aggs {
		col, ok := df.Column(agg.Column)
		if !ok {
			releaseAll(outCols)
			return nil, errors.NewColumnNotFound("Aggregate", agg.Column)
		}
		arr := col.Array()
		out, aggErr := aggregateColumn(arr, groups, agg, df.mem)
		arr.Release()
		if aggErr != nil {
			releaseAll(outCols)
			return nil, aggErr
		}
		outCols = append(outCols, series.FromArrow(agg.outputName(), out))
	}

	out := New(outCols...)
	out.index = append([]string(nil), indexNames...)
	return out, nil
}

// aggregateColumn computes one aggregation over each row group. Sum, min,
// max, first and last keep the source type; mean yields float64 and count
// int64. Null cells are skipped; a group with only nulls yields null.
func aggregateColumn(arr arrow.Array, groups [][]int, agg Aggregation, allocator memory.Allocator) (arrow.Array, error) {

	switch agg.Func {
	case AggCount:
		builder := array.NewInt64Builder(allocator)
		defer builder.Release()
		for _, rows := range groups {
			var n int64
			for _, r := range rows {
				if !arr.IsNull(r) {
					n++
				}
			}
			builder.Append(n)
		}
		return builder.NewArray(), nil

	case AggFirst, AggLast:
		builder := series.NewBuilderFor(allocator, arr.DataType())
		defer builder.Release()
		for _, rows := range groups {
			row := rows[0]
			if agg.Func == AggLast {
				row = rows[len(rows)-1]
			}
			series.AppendAt(builder, arr, row)
		}
		return builder.NewArray(), nil

	case AggMean:
		builder := array.NewFloat64Builder(allocator)
		defer builder.Release()
		for _, rows := range groups {
			var sum float64
			var n int
			for _, r := range rows {
				if arr.IsNull(r) {
					continue
				}
				f, ok := asFloat(series.ValueAt(arr, r))
				if !ok {
					return nil, errors.NewUnsupportedType("Aggregate", arr.DataType().String())
				}
				sum += f
				n++
			}
			if n == 0 {
				builder.AppendNull()
				continue
			}
			builder.Append(sum / float64(n))
		}
		return builder.NewArray(), nil

	case AggSum, AggMin, AggMax:
		switch typed := arr.(type) {
		case *array.Int64:
			return numericAggregate(typed.Value, arr, groups, agg.Func, array.NewInt64Builder(allocator)), nil
		case *array.Float64:
			return numericAggregate(typed.Value, arr, groups, agg.Func, array.NewFloat64Builder(allocator)), nil
		case *array.Int32:
			return numericAggregate(typed.Value, arr, groups, agg.Func, array.NewInt32Builder(allocator)), nil
		case *array.Uint64:
			return numericAggregate(typed.Value, arr, groups, agg.Func, array.NewUint64Builder(allocator)), nil
		case *array.Float32:
			return numericAggregate(typed.Value, arr, groups, agg.Func, array.NewFloat32Builder(allocator)), nil
		default:
			return nil, errors.NewUnsupportedType("Aggregate", arr.DataType().String())
		}

	default:
		return nil, errors.NewInvalidInput("Aggregate", fmt.Sprintf("unknown aggregation %q", agg.Func))
	}
}

// numericBuilder is satisfied by the typed Arrow builders used below.
type numericBuilder[T constraints.Integer | constraints.Float] interface {
	Append(T)
	AppendNull()
	NewArray() arrow.Array
	Release()
}

func numericAggregate[T constraints.Integer | constraints.Float](
	valueAt func(int) T,
	arr arrow.Array,
	groups [][]int,
	fn AggFunc,
	builder numericBuilder[T],
) arrow.Array {
	defer builder.Release()
	for _, rows := range groups {
		var acc T
		seen := false
		for _, r := range rows {
			if arr.IsNull(r) {
				continue
			}
			v := valueAt(r)
			if !seen {
				acc = v
				seen = true
				continue
			}
			switch fn {
			case AggSum:
				acc += v
			case AggMin:
				if v < acc {
					acc = v
				}
			case AggMax:
				if v > acc {
					acc = v
				}
			}
		}
		if !seen {
			builder.AppendNull()
			continue
		}
		builder.Append(acc)
	}
	return builder.NewArray()
}
