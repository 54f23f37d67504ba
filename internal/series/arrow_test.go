package series

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAtNull(t *testing.T) {
	s := NewWithValidity("v", []string{"a", "b"}, []bool{true, false}, memory.NewGoAllocator())
	defer s.Release()

	arr := s.Array()
	defer arr.Release()

	assert.Equal(t, "a", ValueAt(arr, 0))
	assert.Nil(t, ValueAt(arr, 1))
}

func TestAppendAtRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	s := NewWithValidity("v", []int64{10, 20, 30}, []bool{true, false, true}, mem)
	defer s.Release()

	src := s.Array()
	defer src.Release()

	builder := NewBuilderFor(mem, src.DataType())
	defer builder.Release()
	for i := 0; i < src.Len(); i++ {
		AppendAt(builder, src, i)
	}
	out := builder.NewArray()
	defer out.Release()

	require.Equal(t, 3, out.Len())
	assert.Equal(t, int64(10), ValueAt(out, 0))
	assert.Nil(t, ValueAt(out, 1))
	assert.Equal(t, int64(30), ValueAt(out, 2))
}

func TestAppendGoValueList(t *testing.T) {
	mem := memory.NewGoAllocator()
	s := New("tags", [][]string{{"x"}}, mem)
	defer s.Release()

	src := s.Array()
	defer src.Release()

	builder := NewBuilderFor(mem, src.DataType())
	defer builder.Release()
	AppendGoValue(builder, []string{"a", "b"})
	AppendGoValue(builder, nil)

	out := builder.NewArray()
	defer out.Release()

	assert.Equal(t, []string{"a", "b"}, ValueAt(out, 0))
	assert.Nil(t, ValueAt(out, 1))
}
