package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSliceMapsToSource(t *testing.T) {
	sched := &fakeScheduler{}
	src := newFakeSource(20)
	inst := NewInstance(src.fetch, testOptions(sched, 10))
	loadRange(t, inst, sched, 0, 20)

	s := NewListSlice[int](inst, []int{2, 5, 7})
	assert.Equal(t, 3, s.Count())

	v, found, err := s.Get(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 5, v)

	_, found, err = s.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, found)

	var events []ModifiedEvent[int]
	s.Modified().Subscribe(func(ev ModifiedEvent[int]) { events = append(events, ev) })

	require.True(t, s.Modify(2, 70))
	got, _ := inst.Retrieve(7)
	assert.Equal(t, 70, got)

	require.True(t, s.Remove(0))
	assert.Equal(t, []int{4, 6}, s.Indexes())
	got, _ = inst.Retrieve(6)
	assert.Equal(t, 70, got)

	assert.False(t, s.Modify(5, 1))
	assert.False(t, s.Remove(-1))

	require.Len(t, events, 2)
	assert.Equal(t, ModifiedEvent[int]{Type: Modify, Index: 2, Value: 70, OldValue: 7}, events[0])
	assert.Equal(t, ModifiedEvent[int]{Type: Remove, Index: 0, OldValue: 2}, events[1])
}

func TestSingletonDisablesAfterRemove(t *testing.T) {
	sched := &fakeScheduler{}
	src := newFakeSource(20)
	inst := NewInstance(src.fetch, testOptions(sched, 10))
	loadRange(t, inst, sched, 0, 20)

	s := NewSingleton[int](inst, 4)
	require.True(t, s.Modify(40))
	got, _ := inst.Retrieve(4)
	assert.Equal(t, 40, got)

	require.True(t, s.Remove())
	assert.False(t, s.Remove())
	assert.False(t, s.Modify(1))

	_, found, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, found)

	total, _ := inst.Count()
	assert.Equal(t, 19, total)
}
