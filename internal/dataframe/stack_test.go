package dataframe_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/marmoset/internal/dataframe"
	"github.com/paveg/marmoset/internal/errors"
	"github.com/paveg/marmoset/internal/series"
)

func TestStackListColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("id", []int64{1, 2, 3}, mem),
		series.New("tags", [][]string{{"x", "y"}, {}, {"z"}}, mem),
		series.New("keep", []string{"p", "q", "r"}, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	defer df.Release()

	out, err := df.StackListColumn("tags", []string{"keep"})
	require.NoError(t, err)
	defer out.Release()

	// Row 2 has an empty list and emits nothing.
	assert.Equal(t, []int64{1, 1, 3}, column[int64](t, out, "id"))
	assert.Equal(t, []string{"x", "y", "z"}, column[string](t, out, "tags"))
	assert.Equal(t, []string{"p", "p", "r"}, column[string](t, out, "keep"))
	assert.Equal(t, []string{"id"}, out.IndexNames())
}

func TestStackListColumnsRaggedPadding(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("id", []int64{1}, mem),
		series.New("a", [][]string{{"a1", "a2"}}, mem),
		series.New("b", [][]string{{"b1"}}, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	defer df.Release()

	out, err := df.StackListColumns([]string{"a", "b"}, nil)
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, 2, out.Len())
	assert.Equal(t, []string{"a1", "a2"}, column[string](t, out, "a"))
	b, ok := out.Column("b")
	require.True(t, ok)
	assert.False(t, b.IsNull(0))
	assert.True(t, b.IsNull(1), "shorter list null-padded")
}

func TestStackListColumnTypeCheck(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("id", []int64{1}, mem),
		series.New("notalist", []string{"x"}, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	defer df.Release()

	_, err := df.StackListColumn("notalist", nil)
	assert.ErrorIs(t, err, errors.ErrUnsupportedType)
}

func TestStackMapColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("id", []int64{1, 2}, mem),
		series.New("counts", []map[string]int64{
			{"beta": 2, "alpha": 1},
			{"gamma": 3},
		}, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	defer df.Release()

	out, err := df.StackMapColumn("counts", nil, "", "")
	require.NoError(t, err)
	defer out.Release()

	// Entries emit in sorted key order.
	assert.Equal(t, []int64{1, 1, 2}, column[int64](t, out, "id"))
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, column[string](t, out, "counts_label"))
	assert.Equal(t, []int64{1, 2, 3}, column[int64](t, out, "counts_value"))
}

func TestStackColumnsWideToLong(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("id", []int64{1, 2}, mem),
		series.New("q1", []float64{10, 30}, mem),
		series.New("q2", []float64{20, 40}, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	defer df.Release()

	out, err := df.StackColumns([]string{"q1", "q2"}, nil, "", "")
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []int64{1, 1, 2, 2}, column[int64](t, out, "id"))
	assert.Equal(t, []string{"q1", "q2", "q1", "q2"}, column[string](t, out, "stack_label"))
	assert.Equal(t, []float64{10, 20, 30, 40}, column[float64](t, out, "stacked"))
	assert.Equal(t, []string{"id"}, out.IndexNames())
}

func TestStackColumnsMixedTypes(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("id", []int64{1}, mem),
		series.New("a", []float64{1}, mem),
		series.New("b", []string{"x"}, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	defer df.Release()

	_, err := df.StackColumns([]string{"a", "b"}, nil, "", "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestSplitColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.NewWithValidity("path", []string{"a/b/c", "x", ""}, []bool{true, true, false}, mem),
	)
	defer df.Release()

	out, err := df.SplitColumn("path", "/", "parts")
	require.NoError(t, err)
	defer out.Release()

	parts, ok := out.Column("parts")
	require.True(t, ok)
	arr := parts.Array()
	defer arr.Release()

	assert.Equal(t, []string{"a", "b", "c"}, series.ValueAt(arr, 0))
	assert.Equal(t, []string{"x"}, series.ValueAt(arr, 1))
	assert.True(t, arr.IsNull(2), "null input stays null")
}
