package partition_test

import (
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/marmoset/internal/config"
	"github.com/paveg/marmoset/internal/dataframe"
	frameio "github.com/paveg/marmoset/internal/io"
	"github.com/paveg/marmoset/internal/partition"
	"github.com/paveg/marmoset/internal/series"
)

func rangeFrame(t *testing.T, n int) *dataframe.DataFrame {
	t.Helper()
	mem := memory.NewGoAllocator()
	ids := make([]int64, n)
	values := make([]float64, n)
	for i := range ids {
		ids[i] = int64(i)
		values[i] = float64(i) * 0.5
	}
	df := dataframe.New(
		series.New("id", ids, mem),
		series.New("value", values, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	return df
}

func TestSplitEvenAndUneven(t *testing.T) {
	df := rangeFrame(t, 10)
	defer df.Release()

	pf, err := partition.Split(df, 3)
	require.NoError(t, err)
	defer pf.Release()

	require.Equal(t, 3, pf.NumPartitions())
	// 10 rows over 3 partitions: 4, 3, 3.
	assert.Equal(t, 4, pf.Partition(0).Len())
	assert.Equal(t, 3, pf.Partition(1).Len())
	assert.Equal(t, 3, pf.Partition(2).Len())
	assert.Equal(t, []string{"id"}, pf.Partition(0).IndexNames())
}

func TestSplitMorePartitionsThanRows(t *testing.T) {
	df := rangeFrame(t, 2)
	defer df.Release()

	pf, err := partition.Split(df, 8)
	require.NoError(t, err)
	defer pf.Release()

	assert.Equal(t, 2, pf.NumPartitions())
}

func TestSplitDefaultRespectsParallelThreshold(t *testing.T) {
	old := config.Global()
	defer config.SetGlobal(old)

	cfg := old
	cfg.DefaultPartitions = 4
	cfg.ParallelThreshold = 5
	config.SetGlobal(cfg)

	small := rangeFrame(t, 3)
	defer small.Release()
	pf, err := partition.Split(small, 0)
	require.NoError(t, err)
	defer pf.Release()
	// Below the threshold, a default split is not worth parallelizing.
	assert.Equal(t, 1, pf.NumPartitions())

	large := rangeFrame(t, 8)
	defer large.Release()
	pf2, err := partition.Split(large, 0)
	require.NoError(t, err)
	defer pf2.Release()
	assert.Equal(t, 4, pf2.NumPartitions())

	// An explicit partition count overrides the threshold.
	pf3, err := partition.Split(small, 2)
	require.NoError(t, err)
	defer pf3.Release()
	assert.Equal(t, 2, pf3.NumPartitions())
}

func TestSplitEmptyFrame(t *testing.T) {
	df := rangeFrame(t, 0)
	defer df.Release()

	pf, err := partition.Split(df, 4)
	require.NoError(t, err)
	defer pf.Release()

	assert.Equal(t, 1, pf.NumPartitions())
	assert.Equal(t, 0, pf.Partition(0).Len())
}

func TestCollectRestoresRowOrder(t *testing.T) {
	df := rangeFrame(t, 7)
	defer df.Release()

	pf, err := partition.Split(df, 3)
	require.NoError(t, err)
	defer pf.Release()

	out, err := pf.Collect()
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, 7, out.Len())
	col, ok := out.Column("id")
	require.True(t, ok)
	arr := col.Array()
	defer arr.Release()
	for i := 0; i < 7; i++ {
		assert.Equal(t, int64(i), series.ValueAt(arr, i))
	}
	assert.Equal(t, []string{"id"}, out.IndexNames())
}

func TestMapPartitions(t *testing.T) {
	df := rangeFrame(t, 6)
	defer df.Release()

	pf, err := partition.Split(df, 2)
	require.NoError(t, err)
	defer pf.Release()

	mapped, err := pf.MapPartitions(func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return part.FilterRows(func(row int) bool { return row%2 == 0 }), nil
	})
	require.NoError(t, err)
	defer mapped.Release()

	out, err := mapped.Collect()
	require.NoError(t, err)
	defer out.Release()
	// Row numbers are partition-local: each 3-row partition keeps
	// positions 0 and 2, so 2 rows per partition survive.
	assert.Equal(t, 4, out.Len())
}

func TestMapPartitionsPropagatesError(t *testing.T) {
	df := rangeFrame(t, 4)
	defer df.Release()

	pf, err := partition.Split(df, 2)
	require.NoError(t, err)
	defer pf.Release()

	_, err = pf.MapPartitions(func(*dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return nil, fmt.Errorf("kernel failed")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel failed")
}

func TestContentHashStableAcrossLoads(t *testing.T) {
	df := rangeFrame(t, 9)
	defer df.Release()

	pf, err := partition.Split(df, 3)
	require.NoError(t, err)
	defer pf.Release()

	digest := pf.ContentHash()
	assert.Len(t, digest, 16)
	assert.Equal(t, digest, pf.ContentHash())

	dir := t.TempDir()
	require.NoError(t, pf.WriteParquet(dir, frameio.DefaultParquetOptions()))

	loaded, err := partition.ReadParquet(dir, memory.NewGoAllocator())
	require.NoError(t, err)
	defer loaded.Release()

	assert.Equal(t, digest, loaded.ContentHash(), "digest survives a disk round-trip")
}

func TestContentHashDependsOnPartitioning(t *testing.T) {
	df := rangeFrame(t, 8)
	defer df.Release()

	two, err := partition.Split(df, 2)
	require.NoError(t, err)
	defer two.Release()
	four, err := partition.Split(df, 4)
	require.NoError(t, err)
	defer four.Release()

	assert.NotEqual(t, two.ContentHash(), four.ContentHash())
}

func TestWriteAndReadParquetOrdering(t *testing.T) {
	// More than 10 partitions so lexical file ordering would be wrong.
	df := rangeFrame(t, 24)
	defer df.Release()

	pf, err := partition.Split(df, 12)
	require.NoError(t, err)
	defer pf.Release()

	dir := t.TempDir()
	require.NoError(t, pf.WriteParquet(dir, frameio.DefaultParquetOptions()))

	loaded, err := partition.ReadParquet(dir, memory.NewGoAllocator())
	require.NoError(t, err)
	defer loaded.Release()

	require.Equal(t, 12, loaded.NumPartitions())
	out, err := loaded.Collect()
	require.NoError(t, err)
	defer out.Release()

	col, ok := out.Column("id")
	require.True(t, ok)
	arr := col.Array()
	defer arr.Release()
	for i := 0; i < 24; i++ {
		assert.Equal(t, int64(i), series.ValueAt(arr, i), "row %d out of order", i)
	}
}

func TestReadParquetMissingDir(t *testing.T) {
	_, err := partition.ReadParquet(t.TempDir(), memory.NewGoAllocator())
	assert.Error(t, err)
}

func TestFromFramesRequiresAtLeastOne(t *testing.T) {
	_, err := partition.FromFrames()
	assert.Error(t, err)
}
