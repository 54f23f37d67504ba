package series

import (
	"fmt"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Column wraps an existing Arrow array as a type-erased series. It is used
// when a column is produced by a kernel (row take, join, stack) or read from
// disk rather than built from a Go slice.
type Column struct {
	name  string
	array arrow.Array
}

// FromArrow wraps arr under the given column name. The Column takes over
// the caller's reference; call Release when done.
func FromArrow(name string, arr arrow.Array) *Column {
	return &Column{name: name, array: arr}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Len returns the number of rows.
func (c *Column) Len() int { return c.array.Len() }

// DataType returns the Arrow data type.
func (c *Column) DataType() arrow.DataType { return c.array.DataType() }

// IsNull checks if the value at index is null.
func (c *Column) IsNull(index int) bool { return c.array.IsNull(index) }

// String returns a string representation of the column.
func (c *Column) String() string {
	return fmt.Sprintf("Column[%s]: %s (len=%d)", c.array.DataType(), c.name, c.Len())
}

// Array returns the underlying Arrow array (retains a reference).
func (c *Column) Array() arrow.Array {
	if c.array != nil {
		c.array.Retain()
		return c.array
	}
	return nil
}

// Release releases the underlying Arrow memory.
func (c *Column) Release() {
	if c.array != nil {
		c.array.Release()
	}
}

// Rename returns a Column sharing the same array under a new name.
func (c *Column) Rename(name string) *Column {
	c.array.Retain()
	return &Column{name: name, array: c.array}
}

// ValueAt extracts the value at index i as a Go value. Null slots return
// nil. List columns come back as []string, map columns as map[string]int64.
func ValueAt(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.Int64:
		return a.Value(i)
	case *array.Int32:
		return a.Value(i)
	case *array.Uint64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Map:
		offsets := a.Offsets()
		keys, kok := a.Keys().(*array.String)
		items, iok := a.Items().(*array.Int64)
		if !kok || !iok {
			panic(fmt.Sprintf("unsupported map layout: %s", a.DataType()))
		}
		out := make(map[string]int64, offsets[i+1]-offsets[i])
		for j := offsets[i]; j < offsets[i+1]; j++ {
			out[keys.Value(int(j))] = items.Value(int(j))
		}
		return out
	case *array.List:
		offsets := a.Offsets()
		values, ok := a.ListValues().(*array.String)
		if !ok {
			panic(fmt.Sprintf("unsupported list layout: %s", a.DataType()))
		}
		out := make([]string, 0, offsets[i+1]-offsets[i])
		for j := offsets[i]; j < offsets[i+1]; j++ {
			out = append(out, values.Value(int(j)))
		}
		return out
	default:
		panic(fmt.Sprintf("unsupported array type: %T", arr))
	}
}

// NewBuilderFor returns a builder producing arrays of the given type.
func NewBuilderFor(mem memory.Allocator, dt arrow.DataType) array.Builder {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return array.NewBuilder(mem, dt)
}

// AppendAt appends arr's value at index i to the builder. The builder must
// have been created for arr's data type.
func AppendAt(b array.Builder, arr arrow.Array, i int) {
	if arr.IsNull(i) {
		b.AppendNull()
		return
	}
	AppendGoValue(b, ValueAt(arr, i))
}

// AppendGoValue appends a Go value to the builder. nil appends a null.
func AppendGoValue(b array.Builder, v any) {
	if v == nil {
		b.AppendNull()
		return
	}
	switch builder := b.(type) {
	case *array.StringBuilder:
		builder.Append(v.(string))
	case *array.Int64Builder:
		builder.Append(toInt64(v))
	case *array.Int32Builder:
		builder.Append(v.(int32))
	case *array.Uint64Builder:
		builder.Append(v.(uint64))
	case *array.Float64Builder:
		builder.Append(toFloat64(v))
	case *array.Float32Builder:
		builder.Append(v.(float32))
	case *array.BooleanBuilder:
		builder.Append(v.(bool))
	case *array.MapBuilder:
		entries := v.(map[string]int64)
		builder.Append(true)
		kb := builder.KeyBuilder().(*array.StringBuilder)
		ib := builder.ItemBuilder().(*array.Int64Builder)
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			kb.Append(k)
			ib.Append(entries[k])
		}
	case *array.ListBuilder:
		vals := v.([]string)
		builder.Append(true)
		vb := builder.ValueBuilder().(*array.StringBuilder)
		for _, elem := range vals {
			vb.Append(elem)
		}
	default:
		panic(fmt.Sprintf("unsupported builder type: %T", b))
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	default:
		panic(fmt.Sprintf("cannot convert %T to int64", v))
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	default:
		panic(fmt.Sprintf("cannot convert %T to float64", v))
	}
}
