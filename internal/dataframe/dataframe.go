// Package dataframe provides an Arrow-backed table with a named row index.
//
// Unlike a plain column store, every DataFrame may designate one or more of
// its columns as the row index. The helper operations in this package
// (aggregate, merge, de-duplicate, stack) are all defined relative to that
// index: they carry it through transformations that would otherwise destroy
// it.
package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/marmoset/internal/errors"
	"github.com/paveg/marmoset/internal/series"
)

// ISeries is the type-erased column interface accepted by DataFrame.
type ISeries interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
}

// DataFrame represents a table of data with typed columns and an optional
// named index.
type DataFrame struct {
	columns map[string]ISeries
	order   []string // column order, index columns included
	index   []string // names of the index columns, in index level order
	mem     memory.Allocator
}

// New creates a new DataFrame from a slice of ISeries. No index is set.
func New(cols ...ISeries) *DataFrame {
	columns := make(map[string]ISeries, len(cols))
	order := make([]string, 0, len(cols))
	for _, s := range cols {
		columns[s.Name()] = s
		order = append(order, s.Name())
	}
	return &DataFrame{columns: columns, order: order, mem: memory.NewGoAllocator()}
}

// SetIndex designates existing columns as the named index, replacing any
// previous index designation.
func (df *DataFrame) SetIndex(names ...string) error {
	for _, name := range names {
		if !df.HasColumn(name) {
			return errors.NewColumnNotFound("SetIndex", name)
		}
	}
	df.index = append([]string(nil), names...)
	return nil
}

// ResetIndex removes the index designation. The former index columns stay
// in place as regular columns.
func (df *DataFrame) ResetIndex() {
	df.index = nil
}

// IndexNames returns the names of the index columns in level order.
func (df *DataFrame) IndexNames() []string {
	return append([]string(nil), df.index...)
}

// Columns returns the names of all columns in order, index included.
func (df *DataFrame) Columns() []string {
	return append([]string(nil), df.order...)
}

// DataColumns returns the names of the non-index columns in order.
func (df *DataFrame) DataColumns() []string {
	out := make([]string, 0, len(df.order))
	for _, name := range df.order {
		if !df.isIndex(name) {
			out = append(out, name)
		}
	}
	return out
}

func (df *DataFrame) isIndex(name string) bool {
	for _, idx := range df.index {
		if idx == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	if s, ok := df.columns[df.order[0]]; ok {
		return s.Len()
	}
	return 0
}

// Width returns the number of columns, index included.
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the series for the given column name.
func (df *DataFrame) Column(name string) (ISeries, bool) {
	s, ok := df.columns[name]
	return s, ok
}

// HasColumn checks if a column exists.
func (df *DataFrame) HasColumn(name string) bool {
	_, ok := df.columns[name]
	return ok
}

// Select returns a new DataFrame with only the specified columns. Index
// columns survive a Select only when explicitly selected.
func (df *DataFrame) Select(names ...string) *DataFrame {
	out := &DataFrame{
		columns: make(map[string]ISeries, len(names)),
		order:   make([]string, 0, len(names)),
		mem:     df.mem,
	}
	for _, name := range names {
		if s, ok := df.columns[name]; ok {
			out.columns[name] = series.FromArrow(name, s.Array())
			out.order = append(out.order, name)
			if df.isIndex(name) {
				out.index = append(out.index, name)
			}
		}
	}
	return out
}

// Drop returns a new DataFrame without the specified columns.
func (df *DataFrame) Drop(names ...string) *DataFrame {
	dropSet := make(map[string]bool, len(names))
	for _, name := range names {
		dropSet[name] = true
	}
	keep := make([]string, 0, len(df.order))
	for _, name := range df.order {
		if !dropSet[name] {
			keep = append(keep, name)
		}
	}
	return df.Select(keep...)
}

// WithColumn returns a new DataFrame with col appended (or replaced when a
// column of the same name exists).
func (df *DataFrame) WithColumn(col ISeries) *DataFrame {
	out := &DataFrame{
		columns: make(map[string]ISeries, len(df.columns)+1),
		order:   append([]string(nil), df.order...),
		index:   append([]string(nil), df.index...),
		mem:     df.mem,
	}
	for name, s := range df.columns {
		out.columns[name] = series.FromArrow(name, s.Array())
	}
	if replaced, exists := out.columns[col.Name()]; exists {
		replaced.Release()
	} else {
		out.order = append(out.order, col.Name())
	}
	out.columns[col.Name()] = col
	return out
}

// String returns a short structural description.
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}
	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}
	for _, name := range df.order {
		marker := ""
		if df.isIndex(name) {
			marker = " (index)"
		}
		parts = append(parts, fmt.Sprintf("  %s: %s%s", name, df.columns[name].DataType().String(), marker))
	}
	return strings.Join(parts, "\n")
}

// Slice returns a new DataFrame containing rows from start (inclusive) to
// end (exclusive).
func (df *DataFrame) Slice(start, end int) *DataFrame {
	if start < 0 {
		start = 0
	}
	if end > df.Len() {
		end = df.Len()
	}
	if start >= end {
		indices := []int{}
		return df.TakeRows(indices)
	}
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return df.TakeRows(indices)
}

// Concat concatenates this DataFrame with others row-wise. Column sets and
// order must match; the receiver's index designation is kept.
func (df *DataFrame) Concat(others ...*DataFrame) (*DataFrame, error) {
	frames := append([]*DataFrame{df}, others...)
	outCols := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		base, _ := df.Column(name)
		builder := series.NewBuilderFor(df.mem, base.DataType())
		for _, frame := range frames {
			col, ok := frame.Column(name)
			if !ok {
				builder.Release()
				releaseAll(outCols)
				return nil, errors.NewColumnNotFound("Concat", name)
			}
			arr := col.Array()
			for i := 0; i < arr.Len(); i++ {
				series.AppendAt(builder, arr, i)
			}
			arr.Release()
		}
		arr := builder.NewArray()
		builder.Release()
		outCols = append(outCols, series.FromArrow(name, arr))
	}
	out := New(outCols...)
	out.index = append([]string(nil), df.index...)
	return out, nil
}

// Release frees the memory used by all columns.
func (df *DataFrame) Release() {
	for _, s := range df.columns {
		s.Release()
	}
}

func releaseAll(cols []ISeries) {
	for _, c := range cols {
		c.Release()
	}
}
