package dataframe

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/marmoset/internal/errors"
	"github.com/paveg/marmoset/internal/series"
)

// FillForward fills nulls in a float64 column with the last non-null value
// seen in row order. limit caps how far a value propagates; 0 means no cap.
func FillForward(col ISeries, limit int) (ISeries, error) {
	return fillDirectional("FillForward", col, limit, false)
}

// FillBackward fills nulls with the next non-null value in row order.
func FillBackward(col ISeries, limit int) (ISeries, error) {
	return fillDirectional("FillBackward", col, limit, true)
}

// FillNearest fills each null with whichever of the previous or next
// non-null value is fewer rows away, preferring the previous value on ties.
// Row order is taken as-is; rows are not re-sorted by index. limit caps the
// fill distance in both directions; 0 means no cap.
func FillNearest(col ISeries, limit int) (ISeries, error) {
	values, valid, err := float64Cells("FillNearest", col)
	if err != nil {
		return nil, err
	}
	n := len(values)

	// Distance to the nearest non-null on each side; -1 when none exists.
	prevDist := make([]int, n)
	prevVal := make([]float64, n)
	dist, val, have := 0, 0.0, false
	for i := 0; i < n; i++ {
		if valid[i] {
			dist, val, have = 0, values[i], true
			prevDist[i] = 0
			prevVal[i] = val
			continue
		}
		dist++
		if have {
			prevDist[i] = dist
			prevVal[i] = val
		} else {
			prevDist[i] = -1
		}
	}
	nextDist := make([]int, n)
	nextVal := make([]float64, n)
	dist, val, have = 0, 0.0, false
	for i := n - 1; i >= 0; i-- {
		if valid[i] {
			dist, val, have = 0, values[i], true
			nextDist[i] = 0
			nextVal[i] = val
			continue
		}
		dist++
		if have {
			nextDist[i] = dist
			nextVal[i] = val
		} else {
			nextDist[i] = -1
		}
	}

	out := make([]float64, n)
	outValid := make([]bool, n)
	for i := 0; i < n; i++ {
		if valid[i] {
			out[i], outValid[i] = values[i], true
			continue
		}
		fromPrev := prevDist[i] >= 0 && (limit <= 0 || prevDist[i] <= limit)
		fromNext := nextDist[i] >= 0 && (limit <= 0 || nextDist[i] <= limit)
		switch {
		case fromPrev && fromNext:
			if prevDist[i] <= nextDist[i] {
				out[i], outValid[i] = prevVal[i], true
			} else {
				out[i], outValid[i] = nextVal[i], true
			}
		case fromPrev:
			out[i], outValid[i] = prevVal[i], true
		case fromNext:
			out[i], outValid[i] = nextVal[i], true
		}
	}
	return series.NewWithValidity(col.Name(), out, outValid, memory.NewGoAllocator()), nil
}

func fillDirectional(op string, col ISeries, limit int, backward bool) (ISeries, error) {
	values, valid, err := float64Cells(op, col)
	if err != nil {
		return nil, err
	}
	n := len(values)
	out := make([]float64, n)
	outValid := make([]bool, n)

	dist, val, have := 0, 0.0, false
	for step := 0; step < n; step++ {
		i := step
		if backward {
			i = n - 1 - step
		}
		if valid[i] {
			dist, val, have = 0, values[i], true
			out[i], outValid[i] = values[i], true
			continue
		}
		dist++
		if have && (limit <= 0 || dist <= limit) {
			out[i], outValid[i] = val, true
		}
	}
	return series.NewWithValidity(col.Name(), out, outValid, memory.NewGoAllocator()), nil
}

func float64Cells(op string, col ISeries) ([]float64, []bool, error) {
	arr := col.Array()
	defer arr.Release()
	src, ok := arr.(*array.Float64)
	if !ok {
		return nil, nil, errors.NewUnsupportedType(op,
			fmt.Sprintf("column %q is %s, want float64", col.Name(), arr.DataType()))
	}
	values := make([]float64, src.Len())
	valid := make([]bool, src.Len())
	for i := 0; i < src.Len(); i++ {
		if src.IsNull(i) {
			continue
		}
		values[i] = src.Value(i)
		valid[i] = true
	}
	return values, valid, nil
}
