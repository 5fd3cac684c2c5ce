package query

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/vista/internal/domain"
)

func newTestEndpoint(src *fakeSource, sched *fakeScheduler, segmentSize int) *Endpoint[int, domain.Filter] {
	request := func(ctx context.Context, offset, limit int, _ domain.Filter) (domain.Page[int], error) {
		return src.fetch(ctx, offset, limit)
	}
	return NewEndpoint(request, domain.Filter{}, testOptions(sched, segmentSize))
}

func TestPaginationFirstUpdateImmediateThenDebounced(t *testing.T) {
	sched := &fakeScheduler{}
	src := newFakeSource(57)
	ep := newTestEndpoint(src, sched, 10)
	view := NewPaginationView[int](ep, PaginationOptions{QueryDelay: DefaultQueryDelay, Scheduler: sched})
	defer view.Close()

	view.DataUpdate(0, 20)
	require.Len(t, sched.pending(), 1)
	assert.Zero(t, sched.pending()[0].delay, "pagination delay with unknown count")
	sched.runNext()
	require.Len(t, sched.pending(), 1)
	assert.Zero(t, sched.pending()[0].delay, "queue delay with unknown total")
	sched.runNext()

	data := view.Data()
	assert.Equal(t, SliceMetrics{Total: 57, TotalKnown: true, Offset: 0, Limit: 20}, data.Metrics)
	assert.Equal(t, seq(0, 20), data.Result)
	assert.Equal(t, []fetchCall{{0, 20}}, src.takeCalls())

	view.DataUpdate(20, 20)
	require.Len(t, sched.pending(), 1)
	assert.Equal(t, DefaultQueryDelay, sched.pending()[0].delay)
	assert.Equal(t, 0, view.Data().Metrics.Offset, "nothing committed before the debounce fires")

	sched.runAll()
	assert.Equal(t, []fetchCall{{20, 20}}, src.takeCalls())
	data = view.Data()
	assert.Equal(t, 20, data.Metrics.Offset)
	assert.Equal(t, seq(20, 40), data.Result)
}

func TestPaginationLoadedWindowCommitsSynchronously(t *testing.T) {
	sched := &fakeScheduler{}
	src := newFakeSource(100)
	ep := newTestEndpoint(src, sched, 10)
	view := NewPaginationView[int](ep, PaginationOptions{QueryDelay: DefaultQueryDelay, Scheduler: sched})
	defer view.Close()

	view.DataUpdate(0, 50)
	sched.runAll()

	var updates []Slice[int]
	view.Updated().Subscribe(func(s Slice[int]) { updates = append(updates, s) })

	view.DataUpdate(5, 10)
	assert.Empty(t, sched.pending())
	require.Len(t, updates, 1)
	assert.Equal(t, seq(5, 15), updates[0].Result)
	assert.Equal(t, 10, view.Data().Metrics.Limit)
}

func TestPaginationSupersededQueryNeverCommits(t *testing.T) {
	sched := &fakeScheduler{}
	src := newFakeSource(100)
	metrics := NewMetrics(prometheus.NewRegistry())
	ep := newTestEndpoint(src, sched, 10)
	view := NewPaginationView[int](ep, PaginationOptions{QueryDelay: DefaultQueryDelay, Scheduler: sched, Metrics: metrics})
	defer view.Close()

	view.DataUpdate(0, 10)
	sched.runNext() // view timer; leaves the first queue group pending
	view.DataUpdate(50, 10)

	pending := sched.pending()
	require.Len(t, pending, 2)
	second := pending[1]
	second.fired = true
	second.fn()

	assert.True(t, pending[0].stopped, "first generation's queue group is cancelled")
	sched.runAll()

	assert.Equal(t, []fetchCall{{50, 10}}, src.takeCalls())
	assert.Equal(t, 50, view.Data().Metrics.Offset)

	// A late answer for the first request is dropped.
	view.commit(1, ep.Current(), 0, []int{0})
	assert.Equal(t, 50, view.Data().Metrics.Offset)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.staleDiscardedTotal))
}

func TestPaginationRequeriesOnModification(t *testing.T) {
	sched := &fakeScheduler{}
	src := newFakeSource(57)
	ep := newTestEndpoint(src, sched, 10)
	view := NewPaginationView[int](ep, PaginationOptions{Scheduler: sched})
	defer view.Close()

	view.DataUpdate(0, 30)
	sched.runAll()
	view.DataUpdate(0, 10)
	require.Empty(t, sched.pending())

	var updates int
	view.Updated().Subscribe(func(Slice[int]) { updates++ })

	require.True(t, ep.Modify(3, 300))
	assert.Equal(t, 300, view.Data().Result[3])
	assert.Equal(t, 1, updates)

	require.True(t, ep.Modify(25, 2500))
	assert.Equal(t, 1, updates, "modify outside the window is ignored")

	require.True(t, ep.Remove(2))
	assert.Equal(t, 2, updates)

	data := view.Data()
	assert.Equal(t, 56, data.Metrics.Total)
	assert.Equal(t, []int{0, 1, 300, 4, 5, 6, 7, 8, 9, 10}, data.Result)
}

func TestPaginationResetsOnRefresh(t *testing.T) {
	sched := &fakeScheduler{}
	src := newFakeSource(57)
	ep := newTestEndpoint(src, sched, 10)
	view := NewPaginationView[int](ep, PaginationOptions{Scheduler: sched})
	defer view.Close()

	view.DataUpdate(0, 10)
	sched.runAll()
	require.Len(t, view.Data().Result, 10)

	ep.Refresh()

	data := view.Data()
	assert.False(t, data.Metrics.TotalKnown)
	assert.Empty(t, data.Result)
	assert.Equal(t, RangeNotLoaded, ep.IsRangeLoaded(0, 10))
}

func TestPaginationCloseUnsubscribes(t *testing.T) {
	sched := &fakeScheduler{}
	src := newFakeSource(57)
	ep := newTestEndpoint(src, sched, 10)
	view := NewPaginationView[int](ep, PaginationOptions{Scheduler: sched})

	require.Equal(t, 1, ep.Modified().Len())
	require.Equal(t, 1, ep.Refreshed().Len())

	view.DataUpdate(0, 10)
	view.Close()

	assert.Equal(t, 0, ep.Modified().Len())
	assert.Equal(t, 0, ep.Refreshed().Len())
	assert.Empty(t, sched.pending())

	view.DataUpdate(0, 10)
	assert.Empty(t, sched.pending())
}

func TestPaginationWindowSurvivesItemLookup(t *testing.T) {
	sched := &fakeScheduler{}
	src := newFakeSource(100)
	ep := newTestEndpoint(src, sched, 10)
	view := NewPaginationView[int](ep, PaginationOptions{QueryDelay: DefaultQueryDelay, Scheduler: sched})
	defer view.Close()

	view.DataUpdate(0, 10)
	sched.runAll()
	src.takeCalls()

	view.DataUpdate(40, 10)
	require.True(t, sched.runNext(), "pagination debounce")

	got := make(chan int, 1)
	go func() {
		v, found, err := NewSingleton[int](ep, 90).Get(context.Background())
		if err != nil || !found {
			v = -1
		}
		got <- v
	}()
	require.Eventually(t, func() bool {
		sched.runAll()
		select {
		case v := <-got:
			assert.Equal(t, 90, v)
			return true
		default:
			return false
		}
	}, 2*time.Second, time.Millisecond)

	data := view.Data()
	assert.Equal(t, 40, data.Metrics.Offset)
	assert.Equal(t, seq(40, 50), data.Result)
}
