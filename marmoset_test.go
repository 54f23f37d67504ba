package marmoset_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/marmoset"
)

func salesFrame(t *testing.T) *marmoset.DataFrame {
	t.Helper()
	mem := memory.NewGoAllocator()

	df := marmoset.NewDataFrame(
		marmoset.NewSeries("order_id", []int64{1, 2, 3, 4, 5, 6}, mem),
		marmoset.NewSeries("region", []string{"east", "west", "east", "west", "east", "west"}, mem),
		marmoset.NewSeries("amount", []float64{10, 20, 30, 40, 50, 60}, mem),
	)
	require.NoError(t, df.SetIndex("order_id"))
	return df
}

func TestDataFrameSelect(t *testing.T) {
	df := salesFrame(t)
	defer df.Release()

	sel := df.Select("order_id", "amount")
	defer sel.Release()

	assert.Equal(t, []string{"order_id", "amount"}, sel.Columns())
	assert.Equal(t, []string{"order_id"}, sel.IndexNames())
	assert.Equal(t, 6, sel.Len())
}

func TestDataFrameWithColumnAndDrop(t *testing.T) {
	df := salesFrame(t)
	defer df.Release()

	mem := memory.NewGoAllocator()
	tax := marmoset.NewSeries("tax", []float64{1, 2, 3, 4, 5, 6}, mem)

	withTax := df.WithColumn(tax)
	defer withTax.Release()
	assert.True(t, withTax.HasColumn("tax"))

	dropped := withTax.Drop("region")
	defer dropped.Release()
	assert.False(t, dropped.HasColumn("region"))
	assert.Equal(t, 3, dropped.Width())
}

func TestAggregateByIndexAndKeys(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := marmoset.NewDataFrame(
		marmoset.NewSeries("day", []string{"mon", "mon", "tue", "tue"}, mem),
		marmoset.NewSeries("region", []string{"east", "east", "west", "east"}, mem),
		marmoset.NewSeries("amount", []float64{1, 2, 3, 4}, mem),
	)
	require.NoError(t, df.SetIndex("day"))
	defer df.Release()

	out, err := df.AggregateByIndexAndKeys(
		[]string{"region"},
		[]marmoset.Aggregation{
			{Column: "amount", Func: marmoset.AggSum},
			{Column: "amount", Func: marmoset.AggCount, As: "orders"},
		},
	)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 3, out.Len())
	assert.Equal(t, []string{"day"}, out.IndexNames())
	assert.True(t, out.HasColumn("amount_sum"))
	assert.True(t, out.HasColumn("orders"))
}

func TestMergeKeepingIndex(t *testing.T) {
	mem := memory.NewGoAllocator()

	orders := marmoset.NewDataFrame(
		marmoset.NewSeries("order_id", []int64{1, 2, 3}, mem),
		marmoset.NewSeries("customer", []string{"a", "b", "a"}, mem),
		marmoset.NewSeries("amount", []float64{10, 20, 30}, mem),
	)
	require.NoError(t, orders.SetIndex("order_id"))
	defer orders.Release()

	customers := marmoset.NewDataFrame(
		marmoset.NewSeries("customer", []string{"a", "b"}, mem),
		marmoset.NewSeries("tier", []string{"gold", "silver"}, mem),
	)
	defer customers.Release()

	merged, err := orders.MergeKeepingIndex(customers, marmoset.MergeOptions{
		Type:      marmoset.InnerJoin,
		On:        []string{"customer"},
		ReindexBy: marmoset.ReindexByLeft,
	})
	require.NoError(t, err)
	defer merged.Release()

	assert.Equal(t, 3, merged.Len())
	assert.Equal(t, []string{"order_id"}, merged.IndexNames())
	assert.True(t, merged.HasColumn("tier"))
}

func TestDropDuplicatesByIndexAndKeys(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := marmoset.NewDataFrame(
		marmoset.NewSeries("id", []int64{1, 1, 2}, mem),
		marmoset.NewSeries("kind", []string{"x", "x", "x"}, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	defer df.Release()

	out, err := df.DropDuplicatesByIndexAndKeys([]string{"kind"}, marmoset.KeepFirst)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, 2, out.Len())
}

func TestStackListColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := marmoset.NewDataFrame(
		marmoset.NewSeries("id", []int64{1, 2}, mem),
		marmoset.NewSeries("tags", [][]string{{"a", "b"}, {"c"}}, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	defer df.Release()

	out, err := df.StackListColumn("tags", nil)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 3, out.Len())
	assert.Equal(t, []string{"id"}, out.IndexNames())
}

func TestSplitColumnThenStack(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := marmoset.NewDataFrame(
		marmoset.NewSeries("id", []int64{1, 2}, mem),
		marmoset.NewSeries("path", []string{"a/b", "c"}, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	defer df.Release()

	split, err := df.SplitColumn("path", "/", "segments")
	require.NoError(t, err)
	defer split.Release()

	out, err := split.StackListColumn("segments", nil)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, 3, out.Len())
}

func TestStringHelpers(t *testing.T) {
	mem := memory.NewGoAllocator()
	col := marmoset.NewSeries("path", []string{"img/cat.png", "doc/a.txt"}, mem)
	defer col.Release()

	isImage, err := marmoset.StartsWithAny(col, "img/")
	require.NoError(t, err)
	defer isImage.Release()

	isPng, err := marmoset.EndsWithAny(col, ".png")
	require.NoError(t, err)
	defer isPng.Release()

	hashed, err := marmoset.HashStrings(col)
	require.NoError(t, err)
	defer hashed.Release()

	assert.Equal(t, 2, isImage.Len())
	assert.Equal(t, 2, isPng.Len())
	assert.Equal(t, 2, hashed.Len())
}

func TestFillForward(t *testing.T) {
	mem := memory.NewGoAllocator()
	col := marmoset.NewSeriesWithValidity("v", []float64{1, 0, 3}, []bool{true, false, true}, mem)
	defer col.Release()

	filled, err := marmoset.FillForward(col, 0)
	require.NoError(t, err)
	defer filled.Release()

	assert.False(t, filled.IsNull(1))
}

func TestSortByAndConcat(t *testing.T) {
	mem := memory.NewGoAllocator()
	a := marmoset.NewDataFrame(marmoset.NewSeries("v", []int64{3, 1}, mem))
	defer a.Release()
	b := marmoset.NewDataFrame(marmoset.NewSeries("v", []int64{2}, mem))
	defer b.Release()

	joined, err := a.Concat(b)
	require.NoError(t, err)
	defer joined.Release()
	require.Equal(t, 3, joined.Len())

	sorted, err := joined.SortBy([]string{"v"}, nil)
	require.NoError(t, err)
	defer sorted.Release()
	assert.Equal(t, 3, sorted.Len())
}
