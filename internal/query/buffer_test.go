package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferSetGet(t *testing.T) {
	b := NewBuffer[int]()
	b.pageSize = 4

	_, ok := b.Get(3)
	assert.False(t, ok)

	b.Write(2, []int{20, 30, 40, 50})
	for i, want := range map[int]int{2: 20, 3: 30, 4: 40, 5: 50} {
		got, ok := b.Get(i)
		require.True(t, ok, "index %d", i)
		assert.Equal(t, want, got)
	}

	b.Set(1000, 7)
	got, ok := b.Get(1000)
	require.True(t, ok)
	assert.Equal(t, 7, got)

	_, ok = b.Get(999)
	assert.False(t, ok)
	_, ok = b.Get(-1)
	assert.False(t, ok)
}

func TestBufferSliceStopsAtHoleAndTotal(t *testing.T) {
	b := NewBuffer[string]()
	b.Write(0, []string{"a", "b", "c"})
	b.Set(4, "e")

	assert.Equal(t, []string{"a", "b", "c"}, b.Slice(0, 10))
	assert.Equal(t, []string{"b"}, b.Slice(1, 1))

	b.SetTotal(2)
	assert.Equal(t, []string{"a", "b"}, b.Slice(0, 10))
	assert.Empty(t, b.Slice(5, 10))
}

func TestBufferRemoveShiftsAcrossPages(t *testing.T) {
	b := NewBuffer[int]()
	b.pageSize = 4
	for i := 0; i < 10; i++ {
		b.Set(i, i)
	}

	b.Remove(2)

	want := []int{0, 1, 3, 4, 5, 6, 7, 8, 9}
	for i, w := range want {
		got, ok := b.Get(i)
		require.True(t, ok, "index %d", i)
		assert.Equal(t, w, got, "index %d", i)
	}
	_, ok := b.Get(9)
	assert.False(t, ok, "tail slot must be cleared")
}

func TestBufferRemoveCarriesIntoEmptyPage(t *testing.T) {
	b := NewBuffer[int]()
	b.pageSize = 4
	b.Set(0, 0)
	b.Set(8, 8)
	b.Set(9, 9)

	b.Remove(0)

	_, ok := b.Get(0)
	assert.False(t, ok)
	got, ok := b.Get(7)
	require.True(t, ok)
	assert.Equal(t, 8, got)
	got, ok = b.Get(8)
	require.True(t, ok)
	assert.Equal(t, 9, got)
}
