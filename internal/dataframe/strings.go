package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	xxhash "github.com/cespare/xxhash/v2"

	"github.com/paveg/marmoset/internal/errors"
	"github.com/paveg/marmoset/internal/series"
)

// StartsWithAny returns a bool column that is true where the string column
// starts with any of the given prefixes. Nulls stay null.
func StartsWithAny(col ISeries, prefixes []string) (ISeries, error) {
	return stringPredicate("StartsWithAny", col, func(v string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(v, p) {
				return true
			}
		}
		return false
	})
}

// EndsWithAny returns a bool column that is true where the string column
// ends with any of the given suffixes. Nulls stay null.
func EndsWithAny(col ISeries, suffixes []string) (ISeries, error) {
	return stringPredicate("EndsWithAny", col, func(v string) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(v, s) {
				return true
			}
		}
		return false
	})
}

// ContainsAny returns a bool column that is true where the string column
// contains any of the given substrings. Nulls stay null.
func ContainsAny(col ISeries, substrings []string) (ISeries, error) {
	return stringPredicate("ContainsAny", col, func(v string) bool {
		for _, s := range substrings {
			if strings.Contains(v, s) {
				return true
			}
		}
		return false
	})
}

func stringPredicate(op string, col ISeries, pred func(string) bool) (ISeries, error) {
	arr := col.Array()
	defer arr.Release()
	src, ok := arr.(*array.String)
	if !ok {
		return nil, errors.NewUnsupportedType(op,
			fmt.Sprintf("column %q is %s, want utf8", col.Name(), arr.DataType()))
	}

	builder := array.NewBooleanBuilder(memory.NewGoAllocator())
	defer builder.Release()
	for i := 0; i < src.Len(); i++ {
		if src.IsNull(i) {
			builder.AppendNull()
			continue
		}
		builder.Append(pred(src.Value(i)))
	}
	return series.FromArrow(col.Name(), builder.NewArray()), nil
}

// HashStrings maps a string column to a uint64 column with a stable hash:
// equal strings always hash equal across runs and machines.
func HashStrings(col ISeries) (ISeries, error) {
	arr := col.Array()
	defer arr.Release()
	src, ok := arr.(*array.String)
	if !ok {
		return nil, errors.NewUnsupportedType("HashStrings",
			fmt.Sprintf("column %q is %s, want utf8", col.Name(), arr.DataType()))
	}

	builder := array.NewUint64Builder(memory.NewGoAllocator())
	defer builder.Release()
	for i := 0; i < src.Len(); i++ {
		if src.IsNull(i) {
			builder.AppendNull()
			continue
		}
		builder.Append(xxhash.Sum64String(src.Value(i)))
	}
	return series.FromArrow(col.Name(), builder.NewArray()), nil
}
