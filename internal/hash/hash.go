// Package hash computes stable content digests over frames.
//
// The digest covers the schema (column names and types, in order) and every
// cell in row-major order, so any change to values, nulls, column naming or
// column order changes the digest. Partitioned data hashes as a combination
// of per-partition digests, in partition order.
package hash

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	xxhash "github.com/cespare/xxhash/v2"

	"github.com/paveg/marmoset/internal/dataframe"
	"github.com/paveg/marmoset/internal/series"
)

// Frame returns the content digest of a frame as a 16-char hex string.
func Frame(df *dataframe.DataFrame) string {
	d := xxhash.New()

	for _, name := range df.Columns() {
		col, _ := df.Column(name)
		_, _ = d.WriteString("col\x1e")
		_, _ = d.WriteString(name)
		_, _ = d.WriteString("\x1e")
		_, _ = d.WriteString(col.DataType().String())
		_, _ = d.WriteString("\x1f")
	}
	for _, name := range df.IndexNames() {
		_, _ = d.WriteString("idx\x1e")
		_, _ = d.WriteString(name)
		_, _ = d.WriteString("\x1f")
	}

	names := df.Columns()
	arrs := make([]arrow.Array, 0, len(names))
	for _, name := range names {
		col, _ := df.Column(name)
		arrs = append(arrs, col.Array())
	}
	defer func() {
		for _, arr := range arrs {
			arr.Release()
		}
	}()

	for row := 0; row < df.Len(); row++ {
		for _, arr := range arrs {
			writeCell(d, arr, row)
			_, _ = d.WriteString("\x1f")
		}
		_, _ = d.WriteString("\x1e")
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// Combine folds per-partition digests into one, order-sensitive.
func Combine(digests []string) string {
	d := xxhash.New()
	for _, digest := range digests {
		_, _ = d.WriteString(digest)
		_, _ = d.WriteString("\x1f")
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

func writeCell(d *xxhash.Digest, arr arrow.Array, row int) {
	if arr.IsNull(row) {
		_, _ = d.WriteString("\x00")
		return
	}
	switch v := series.ValueAt(arr, row).(type) {
	case string:
		_, _ = d.WriteString("s:" + v)
	case int64:
		_, _ = d.WriteString("i:" + strconv.FormatInt(v, 10))
	case int32:
		_, _ = d.WriteString("i:" + strconv.FormatInt(int64(v), 10))
	case uint64:
		_, _ = d.WriteString("u:" + strconv.FormatUint(v, 10))
	case float64:
		_, _ = d.WriteString("f:" + strconv.FormatFloat(v, 'g', -1, 64))
	case float32:
		_, _ = d.WriteString("f:" + strconv.FormatFloat(float64(v), 'g', -1, 32))
	case bool:
		_, _ = d.WriteString("b:" + strconv.FormatBool(v))
	default:
		_, _ = d.WriteString(fmt.Sprintf("o:%v", v))
	}
}
