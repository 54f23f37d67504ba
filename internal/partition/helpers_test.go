package partition_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/marmoset/internal/dataframe"
	"github.com/paveg/marmoset/internal/partition"
	"github.com/paveg/marmoset/internal/series"
)

func keyedFrame(t *testing.T) *dataframe.DataFrame {
	t.Helper()
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("day", []string{"mon", "mon", "tue", "tue"}, mem),
		series.New("kind", []string{"a", "a", "b", "b"}, mem),
		series.New("amount", []float64{1, 2, 3, 4}, mem),
	)
	require.NoError(t, df.SetIndex("day"))
	return df
}

func TestPartitionedAggregate(t *testing.T) {
	df := keyedFrame(t)
	defer df.Release()

	// Partition boundary coincides with the index groups.
	pf, err := partition.Split(df, 2)
	require.NoError(t, err)
	defer pf.Release()

	agg, err := pf.AggregateByIndexAndKeys(
		[]string{"kind"},
		[]dataframe.Aggregation{{Column: "amount", Func: dataframe.AggSum}},
	)
	require.NoError(t, err)
	defer agg.Release()

	out, err := agg.Collect()
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, 2, out.Len())
	assert.True(t, out.HasColumn("amount_sum"))
	assert.Equal(t, []string{"day"}, out.IndexNames())
}

func TestPartitionedMerge(t *testing.T) {
	df := keyedFrame(t)
	defer df.Release()

	mem := memory.NewGoAllocator()
	right := dataframe.New(
		series.New("kind", []string{"a", "b"}, mem),
		series.New("weight", []float64{10, 20}, mem),
	)
	defer right.Release()

	pf, err := partition.Split(df, 2)
	require.NoError(t, err)
	defer pf.Release()

	merged, err := pf.MergeKeepingIndex(right, dataframe.MergeOptions{
		Type:      dataframe.InnerJoin,
		On:        []string{"kind"},
		ReindexBy: dataframe.ReindexByLeft,
	})
	require.NoError(t, err)
	defer merged.Release()

	out, err := merged.Collect()
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 4, out.Len())
	assert.True(t, out.HasColumn("weight"))
	assert.Equal(t, []string{"day"}, out.IndexNames())
}

func TestPartitionedDedupAndDrop(t *testing.T) {
	df := keyedFrame(t)
	defer df.Release()

	pf, err := partition.Split(df, 2)
	require.NoError(t, err)
	defer pf.Release()

	dedup, err := pf.DropDuplicatesByIndexAndKeys([]string{"kind"}, dataframe.KeepFirst)
	require.NoError(t, err)
	defer dedup.Release()

	out, err := dedup.Collect()
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, 2, out.Len())

	dropped, err := pf.DropRowsByIndex("mon")
	require.NoError(t, err)
	defer dropped.Release()

	rest, err := dropped.Collect()
	require.NoError(t, err)
	defer rest.Release()
	assert.Equal(t, 2, rest.Len())
}

func TestPartitionedSplitThenStack(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("id", []int64{1, 2}, mem),
		series.New("tags", []string{"a,b", "c"}, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	defer df.Release()

	pf, err := partition.Split(df, 2)
	require.NoError(t, err)
	defer pf.Release()

	split, err := pf.SplitColumn("tags", ",", "tag_list")
	require.NoError(t, err)
	defer split.Release()

	stacked, err := split.StackListColumn("tag_list", nil)
	require.NoError(t, err)
	defer stacked.Release()

	out, err := stacked.Collect()
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, 3, out.Len())
}

func TestPartitionedHelperPropagatesError(t *testing.T) {
	df := keyedFrame(t)
	defer df.Release()

	pf, err := partition.Split(df, 2)
	require.NoError(t, err)
	defer pf.Release()

	_, err = pf.StackListColumn("missing", nil)
	assert.Error(t, err)
}
