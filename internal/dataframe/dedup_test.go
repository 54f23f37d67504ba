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

func dupFrame(t *testing.T) *dataframe.DataFrame {
	t.Helper()
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("id", []int64{1, 1, 2, 2, 3}, mem),
		series.New("kind", []string{"a", "a", "a", "b", "a"}, mem),
		series.New("seq", []int64{0, 1, 2, 3, 4}, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	return df
}

func TestDropDuplicatesKeepFirst(t *testing.T) {
	df := dupFrame(t)
	defer df.Release()

	out, err := df.DropDuplicatesByIndexAndKeys([]string{"kind"}, dataframe.KeepFirst)
	require.NoError(t, err)
	defer out.Release()

	// (1,a) duplicated; first occurrence (seq 0) survives.
	assert.Equal(t, []int64{0, 2, 3, 4}, column[int64](t, out, "seq"))
	assert.Equal(t, []string{"id"}, out.IndexNames())
}

func TestDropDuplicatesKeepLast(t *testing.T) {
	df := dupFrame(t)
	defer df.Release()

	out, err := df.DropDuplicatesByIndexAndKeys([]string{"kind"}, dataframe.KeepLast)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []int64{1, 2, 3, 4}, column[int64](t, out, "seq"))
}

func TestDropDuplicatesRequiresIndex(t *testing.T) {
	df := dupFrame(t)
	defer df.Release()
	df.ResetIndex()

	_, err := df.DropDuplicatesByIndexAndKeys([]string{"kind"}, dataframe.KeepFirst)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestDropDuplicatesKeysWithSeparatorBytes(t *testing.T) {
	// Distinct rows whose cells embed the byte patterns a naive composite
	// key would join on must not be merged.
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("id", []string{"a\x1fs:b", "a"}, mem),
		series.New("kind", []string{"c", "b\x1fs:c"}, mem),
	)
	require.NoError(t, df.SetIndex("id"))
	defer df.Release()

	out, err := df.DropDuplicatesByIndexAndKeys([]string{"kind"}, dataframe.KeepFirst)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 2, out.Len())
}

func TestDropRowsByIndex(t *testing.T) {
	df := dupFrame(t)
	defer df.Release()

	out, err := df.DropRowsByIndex(int64(1), int64(3))
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []int64{2, 2}, column[int64](t, out, "id"))
}

func TestDropRowsByIndexStringLabels(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("name", []string{"a", "b", "c"}, mem),
		series.New("v", []int64{1, 2, 3}, mem),
	)
	require.NoError(t, df.SetIndex("name"))
	defer df.Release()

	out, err := df.DropRowsByIndex("b")
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []string{"a", "c"}, column[string](t, out, "name"))
}

func TestDropRowsByIndexNeedsSingleIndex(t *testing.T) {
	df := dupFrame(t)
	defer df.Release()
	require.NoError(t, df.SetIndex("id", "kind"))

	_, err := df.DropRowsByIndex(int64(1))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
