package dataframe

import (
	"fmt"

	"github.com/paveg/marmoset/internal/errors"
)

// Keep selects which duplicate survives a de-duplication.
type Keep int

const (
	KeepFirst Keep = iota
	KeepLast
)

// DropDuplicatesByIndexAndKeys removes rows that duplicate an earlier (or
// later, with KeepLast) row on the combination of the named index columns
// and the subset columns. Row order is preserved.
func (df *DataFrame) DropDuplicatesByIndexAndKeys(subset []string, keep Keep) (*DataFrame, error) {
	const op = "DropDuplicatesByIndexAndKeys"
	if len(df.index) == 0 {
		return nil, errors.NewInvalidInput(op, "frame has no named index")
	}
	keyCols := append(df.IndexNames(), subset...)
	arrs, err := df.columnArrays(op, keyCols)
	if err != nil {
		return nil, err
	}
	defer releaseArrays(arrs)

	n := df.Len()
	retain := make([]bool, n)
	seen := make(map[string]bool, n)
	if keep == KeepLast {
		for row := n - 1; row >= 0; row-- {
			k := rowKey(arrs, row)
			if !seen[k] {
				seen[k] = true
				retain[row] = true
			}
		}
	} else {
		for row := 0; row < n; row++ {
			k := rowKey(arrs, row)
			if !seen[k] {
				seen[k] = true
				retain[row] = true
			}
		}
	}
	return df.FilterRows(func(row int) bool { return retain[row] }), nil
}

// DropRowsByIndex removes every row whose index label is one of the given
// labels. The frame must carry a single-column index.
func (df *DataFrame) DropRowsByIndex(labels ...any) (*DataFrame, error) {
	const op = "DropRowsByIndex"
	if len(df.index) != 1 {
		return nil, errors.NewInvalidInput(op, "frame must have exactly one index column")
	}
	arrs, err := df.columnArrays(op, df.index)
	if err != nil {
		return nil, err
	}
	defer releaseArrays(arrs)

	drop := make(map[string]bool, len(labels))
	for _, label := range labels {
		drop[encodeGoValue(label)] = true
	}
	return df.FilterRows(func(row int) bool {
		return !drop[encodeCell(arrs[0], row)]
	}), nil
}

// encodeGoValue mirrors encodeCell for plain Go values so labels compare
// against cells of the matching type.
func encodeGoValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return "\x00"
	case string:
		return "s:" + tv
	case int:
		return fmt.Sprintf("i:%d", tv)
	case int32:
		return fmt.Sprintf("i:%d", tv)
	case int64:
		return fmt.Sprintf("i:%d", tv)
	case uint64:
		return fmt.Sprintf("u:%d", tv)
	case float64:
		return fmt.Sprintf("f:%g", tv)
	case float32:
		return fmt.Sprintf("f:%g", tv)
	case bool:
		return fmt.Sprintf("b:%t", tv)
	default:
		return fmt.Sprintf("o:%v", tv)
	}
}
