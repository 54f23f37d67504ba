// Package series provides typed, Arrow-backed data columns.
package series

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Series represents a typed data column with an Apache Arrow backend.
//
// Supported element types: string, int64, int32, uint64, float64, float32,
// bool, []string (list column) and map[string]int64 (map column, keys kept
// in sorted order).
type Series[T any] struct {
	name  string
	array arrow.Array
}

// New creates a new Series from a slice of values. All values are non-null;
// use NewWithValidity for columns containing nulls.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	return NewWithValidity[T](name, values, nil, mem)
}

// NewWithValidity creates a new Series where values[i] is null when
// valid[i] is false. A nil valid slice marks every value as set.
func NewWithValidity[T any](name string, values []T, valid []bool, mem memory.Allocator) *Series[T] {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	if valid != nil && len(valid) != len(values) {
		panic(fmt.Sprintf("series %q: validity length %d does not match values length %d",
			name, len(valid), len(values)))
	}

	isNull := func(i int) bool { return valid != nil && !valid[i] }

	var arr arrow.Array

	switch v := any(values).(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		for i, val := range v {
			if isNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(val)
		}
		arr = builder.NewArray()
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		for i, val := range v {
			if isNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(val)
		}
		arr = builder.NewArray()
	case []int32:
		builder := array.NewInt32Builder(mem)
		defer builder.Release()
		for i, val := range v {
			if isNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(val)
		}
		arr = builder.NewArray()
	case []uint64:
		builder := array.NewUint64Builder(mem)
		defer builder.Release()
		for i, val := range v {
			if isNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(val)
		}
		arr = builder.NewArray()
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		for i, val := range v {
			if isNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(val)
		}
		arr = builder.NewArray()
	case []float32:
		builder := array.NewFloat32Builder(mem)
		defer builder.Release()
		for i, val := range v {
			if isNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(val)
		}
		arr = builder.NewArray()
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		for i, val := range v {
			if isNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(val)
		}
		arr = builder.NewArray()
	case [][]string:
		builder := array.NewListBuilder(mem, arrow.BinaryTypes.String)
		defer builder.Release()
		vb := builder.ValueBuilder().(*array.StringBuilder)
		for i, vals := range v {
			if isNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(true)
			for _, elem := range vals {
				vb.Append(elem)
			}
		}
		arr = builder.NewArray()
	case []map[string]int64:
		builder := array.NewMapBuilder(mem, arrow.BinaryTypes.String, arrow.PrimitiveTypes.Int64, true)
		defer builder.Release()
		kb := builder.KeyBuilder().(*array.StringBuilder)
		ib := builder.ItemBuilder().(*array.Int64Builder)
		for i, entries := range v {
			if isNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(true)
			keys := make([]string, 0, len(entries))
			for k := range entries {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				kb.Append(k)
				ib.Append(entries[k])
			}
		}
		arr = builder.NewArray()
	default:
		panic(fmt.Sprintf("unsupported type: %T", values))
	}

	return &Series[T]{name: name, array: arr}
}

// Name returns the column name.
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the length of the series.
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// Values returns the data as a Go slice. Null slots carry zero values;
// check IsNull to distinguish them.
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())
	for i := range result {
		result[i] = s.Value(i)
	}
	return result
}

// Value returns the value at the given index, or the zero value when the
// index is out of bounds or the slot is null.
func (s *Series[T]) Value(index int) T {
	var zero T
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return zero
	}
	v, ok := ValueAt(s.array, index).(T)
	if !ok {
		return zero
	}
	return v
}

// DataType returns the Arrow data type.
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null.
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// String returns a string representation of the series.
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d)",
		reflect.TypeOf(new(T)).Elem().Name(), s.name, s.Len())
}

// Array returns the underlying Arrow array (retains a reference).
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory.
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}
