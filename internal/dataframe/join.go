package dataframe

import (
	"fmt"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/paveg/marmoset/internal/errors"
	"github.com/paveg/marmoset/internal/series"
)

// JoinType represents the type of join operation.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullOuterJoin
)

// ReindexSide selects which side's index names the merge result adopts.
type ReindexSide int

const (
	// ReindexByLeft re-establishes the left frame's index on the result.
	ReindexByLeft ReindexSide = iota
	// ReindexByRight re-establishes the right frame's index on the result.
	ReindexByRight
	// ReindexNone leaves the result without an index designation.
	ReindexNone
)

// MergeOptions specifies parameters for MergeKeepingIndex. Either On or the
// LeftOn/RightOn pair must be set.
type MergeOptions struct {
	Type      JoinType
	On        []string // shared key column names; right copies are dropped
	LeftOn    []string
	RightOn   []string
	ReindexBy ReindexSide
}

// MergeKeepingIndex merges two frames on key columns without destroying the
// named index: both indexes travel through the merge as regular columns and
// the result is re-indexed by the side selected in options. Non-key column
// names must be distinct between the two frames.
func (df *DataFrame) MergeKeepingIndex(right *DataFrame, opts MergeOptions) (*DataFrame, error) {
	const op = "MergeKeepingIndex"

	leftOn, rightOn := opts.LeftOn, opts.RightOn
	if len(opts.On) > 0 {
		leftOn, rightOn = opts.On, opts.On
	}
	if len(leftOn) == 0 || len(rightOn) == 0 {
		return nil, errors.NewInvalidInput(op, "either On or both LeftOn and RightOn must be given")
	}
	if len(leftOn) != len(rightOn) {
		return nil, errors.NewInvalidInput(op,
			fmt.Sprintf("%d left keys but %d right keys", len(leftOn), len(rightOn)))
	}

	// Right key columns merge into the left copies when joined with On.
	dropRight := make(map[string]bool)
	if len(opts.On) > 0 {
		for _, name := range opts.On {
			dropRight[name] = true
		}
	}
	for _, name := range right.order {
		if dropRight[name] {
			continue
		}
		if df.HasColumn(name) {
			return nil, errors.NewInvalidInput(op,
				fmt.Sprintf("column %q exists on both sides; merging would break the index", name))
		}
	}

	leftKeys, err := df.columnArrays(op, leftOn)
	if err != nil {
		return nil, err
	}
	defer releaseArrays(leftKeys)
	rightKeys, err := right.columnArrays(op, rightOn)
	if err != nil {
		return nil, err
	}
	defer releaseArrays(rightKeys)

	// Hash index over the right side's key columns.
	type bucket struct {
		key  string
		rows []int
	}
	index := make(map[uint64][]bucket, right.Len())
	for row := 0; row < right.Len(); row++ {
		k := rowKey(rightKeys, row)
		h := xxhash.Sum64String(k)
		bs := index[h]
		found := false
		for i := range bs {
			if bs[i].key == k {
				bs[i].rows = append(bs[i].rows, row)
				found = true
				break
			}
		}
		if !found {
			bs = append(bs, bucket{key: k, rows: []int{row}})
		}
		index[h] = bs
	}

	lookup := func(row int) []int {
		k := rowKey(leftKeys, row)
		for _, b := range index[xxhash.Sum64String(k)] {
			if b.key == k {
				return b.rows
			}
		}
		return nil
	}

	// Row pair production. -1 marks the null side of an outer row.
	var leftRows, rightRows []int
	matchedRight := make([]bool, right.Len())
	for row := 0; row < df.Len(); row++ {
		matches := lookup(row)
		if len(matches) == 0 {
			if opts.Type == LeftJoin || opts.Type == FullOuterJoin {
				leftRows = append(leftRows, row)
				rightRows = append(rightRows, -1)
			}
			continue
		}
		for _, r := range matches {
			matchedRight[r] = true
			leftRows = append(leftRows, row)
			rightRows = append(rightRows, r)
		}
	}
	if opts.Type == RightJoin || opts.Type == FullOuterJoin {
		for row := 0; row < right.Len(); row++ {
			if !matchedRight[row] {
				leftRows = append(leftRows, -1)
				rightRows = append(rightRows, row)
			}
		}
	}

	outCols := make([]ISeries, 0, len(df.order)+len(right.order))
	appendSide := func(src *DataFrame, rows []int, skip map[string]bool) {
		for _, name := range src.order {
			if skip[name] {
				continue
			}
			col := src.columns[name]
			arr := col.Array()
			builder := series.NewBuilderFor(df.mem, arr.DataType())
			for _, r := range rows {
				if r < 0 {
					builder.AppendNull()
					continue
				}
				series.AppendAt(builder, arr, r)
			}
			arr.Release()
			out := builder.NewArray()
			builder.Release()
			outCols = append(outCols, series.FromArrow(name, out))
		}
	}
	appendSide(df, leftRows, nil)
	appendSide(right, rightRows, dropRight)

	out := New(outCols...)
	switch opts.ReindexBy {
	case ReindexByLeft:
		if err := reindex(out, df.IndexNames(), op, "left"); err != nil {
			out.Release()
			return nil, err
		}
	case ReindexByRight:
		if err := reindex(out, right.IndexNames(), op, "right"); err != nil {
			out.Release()
			return nil, err
		}
	}
	return out, nil
}

func reindex(df *DataFrame, names []string, op, side string) error {
	if len(names) == 0 {
		return errors.NewInvalidInput(op, fmt.Sprintf("%s frame has no named index to restore", side))
	}
	return df.SetIndex(names...)
}
