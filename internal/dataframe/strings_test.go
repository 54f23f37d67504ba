package dataframe_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/marmoset/internal/dataframe"
	"github.com/paveg/marmoset/internal/errors"
	"github.com/paveg/marmoset/internal/series"
)

func boolValues(t *testing.T, col dataframe.ISeries) []bool {
	t.Helper()
	arr := col.Array()
	defer arr.Release()
	out := make([]bool, arr.Len())
	for i := range out {
		if v := series.ValueAt(arr, i); v != nil {
			out[i] = v.(bool)
		}
	}
	return out
}

func TestStartsWithAny(t *testing.T) {
	mem := memory.NewGoAllocator()
	col := series.NewWithValidity("url",
		[]string{"https://a", "http://b", "ftp://c", ""},
		[]bool{true, true, true, false}, mem)
	defer col.Release()

	out, err := dataframe.StartsWithAny(col, []string{"https://", "http://"})
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []bool{true, true, false, false}, boolValues(t, out))
	assert.True(t, out.IsNull(3), "null stays null")
}

func TestEndsWithAny(t *testing.T) {
	col := series.New("file", []string{"a.csv", "b.parquet", "c.txt"}, memory.NewGoAllocator())
	defer col.Release()

	out, err := dataframe.EndsWithAny(col, []string{".csv", ".parquet"})
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []bool{true, true, false}, boolValues(t, out))
}

func TestContainsAny(t *testing.T) {
	col := series.New("msg", []string{"fatal error", "all good", "warning issued"}, memory.NewGoAllocator())
	defer col.Release()

	out, err := dataframe.ContainsAny(col, []string{"error", "warning"})
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []bool{true, false, true}, boolValues(t, out))
}

func TestStringPredicateTypeCheck(t *testing.T) {
	col := series.New("n", []int64{1}, memory.NewGoAllocator())
	defer col.Release()

	_, err := dataframe.ContainsAny(col, []string{"x"})
	assert.ErrorIs(t, err, errors.ErrUnsupportedType)
}

func TestHashStrings(t *testing.T) {
	mem := memory.NewGoAllocator()
	col := series.NewWithValidity("s", []string{"alpha", "beta", "alpha", ""},
		[]bool{true, true, true, false}, mem)
	defer col.Release()

	out, err := dataframe.HashStrings(col)
	require.NoError(t, err)
	defer out.Release()

	arr := out.Array()
	defer arr.Release()

	h0 := series.ValueAt(arr, 0).(uint64)
	h1 := series.ValueAt(arr, 1).(uint64)
	h2 := series.ValueAt(arr, 2).(uint64)

	assert.Equal(t, h0, h2, "equal strings hash equal")
	assert.NotEqual(t, h0, h1)
	assert.Equal(t, xxhash.Sum64String("alpha"), h0, "hash is stable across runs")
	assert.True(t, arr.IsNull(3))
}
