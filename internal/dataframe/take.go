package dataframe

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/paveg/marmoset/internal/errors"
	"github.com/paveg/marmoset/internal/series"
)

// TakeRows builds a new DataFrame containing the given rows, in the given
// order. Indices may repeat. The index designation is preserved.
func (df *DataFrame) TakeRows(indices []int) *DataFrame {
	outCols := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		col := df.columns[name]
		arr := col.Array()
		builder := series.NewBuilderFor(df.mem, arr.DataType())
		for _, i := range indices {
			series.AppendAt(builder, arr, i)
		}
		arr.Release()
		out := builder.NewArray()
		builder.Release()
		outCols = append(outCols, series.FromArrow(name, out))
	}
	out := New(outCols...)
	out.index = append([]string(nil), df.index...)
	return out
}

// FilterRows returns the rows for which keep returns true, in order.
func (df *DataFrame) FilterRows(keep func(row int) bool) *DataFrame {
	indices := make([]int, 0, df.Len())
	for i := 0; i < df.Len(); i++ {
		if keep(i) {
			indices = append(indices, i)
		}
	}
	return df.TakeRows(indices)
}

// SortBy returns a new DataFrame sorted by the given columns. ascending
// must be either empty (all ascending) or the same length as columns.
// The sort is stable.
func (df *DataFrame) SortBy(columns []string, ascending []bool) (*DataFrame, error) {
	if len(ascending) == 0 {
		ascending = make([]bool, len(columns))
		for i := range ascending {
			ascending[i] = true
		}
	}
	if len(ascending) != len(columns) {
		return nil, errors.NewInvalidInput("SortBy",
			fmt.Sprintf("%d sort columns but %d ascending flags", len(columns), len(ascending)))
	}

	arrs, err := df.columnArrays("SortBy", columns)
	if err != nil {
		return nil, err
	}
	defer releaseArrays(arrs)

	indices := make([]int, df.Len())
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(x, y int) bool {
		for level, arr := range arrs {
			c := compareCells(arr, indices[x], indices[y])
			if c == 0 {
				continue
			}
			if ascending[level] {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return df.TakeRows(indices), nil
}

// columnArrays fetches the backing arrays for the named columns. The caller
// must release them via releaseArrays.
func (df *DataFrame) columnArrays(op string, names []string) ([]arrow.Array, error) {
	arrs := make([]arrow.Array, 0, len(names))
	for _, name := range names {
		col, ok := df.Column(name)
		if !ok {
			releaseArrays(arrs)
			return nil, errors.NewColumnNotFound(op, name)
		}
		arrs = append(arrs, col.Array())
	}
	return arrs, nil
}

func releaseArrays(arrs []arrow.Array) {
	for _, a := range arrs {
		a.Release()
	}
}

// rowKey encodes the values of the given arrays at one row as a composite
// key. Each cell encoding is length-prefixed, so cell contents can never
// collide across cell boundaries. Used by grouping, joining and
// de-duplication.
func rowKey(arrs []arrow.Array, row int) string {
	var sb strings.Builder
	for _, arr := range arrs {
		cell := encodeCell(arr, row)
		sb.WriteString(strconv.Itoa(len(cell)))
		sb.WriteByte(':')
		sb.WriteString(cell)
	}
	return sb.String()
}

// encodeCell renders one cell as a type-tagged string so distinct values of
// different types never collide in composite keys. Nulls encode as "\x00".
func encodeCell(arr arrow.Array, row int) string {
	if arr.IsNull(row) {
		return "\x00"
	}
	switch v := series.ValueAt(arr, row).(type) {
	case string:
		return "s:" + v
	case int64:
		return fmt.Sprintf("i:%d", v)
	case int32:
		return fmt.Sprintf("i:%d", v)
	case uint64:
		return fmt.Sprintf("u:%d", v)
	case float64:
		return fmt.Sprintf("f:%g", v)
	case float32:
		return fmt.Sprintf("f:%g", v)
	case bool:
		return fmt.Sprintf("b:%t", v)
	default:
		return fmt.Sprintf("o:%v", v)
	}
}

// compareCells orders two cells of the same array: nulls sort first,
// numerics numerically, everything else by encoded string.
func compareCells(arr arrow.Array, x, y int) int {
	xNull, yNull := arr.IsNull(x), arr.IsNull(y)
	switch {
	case xNull && yNull:
		return 0
	case xNull:
		return -1
	case yNull:
		return 1
	}
	xv, yv := series.ValueAt(arr, x), series.ValueAt(arr, y)
	if xf, ok := asFloat(xv); ok {
		yf, _ := asFloat(yv)
		switch {
		case xf < yf:
			return -1
		case xf > yf:
			return 1
		default:
			return 0
		}
	}
	xs, ys := fmt.Sprintf("%v", xv), fmt.Sprintf("%v", yv)
	switch {
	case xs < ys:
		return -1
	case xs > ys:
		return 1
	default:
		return 0
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
