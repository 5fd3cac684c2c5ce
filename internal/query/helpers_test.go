package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mmcdole/vista/internal/domain"
)

type fakeTask struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTask) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler records scheduled functions and runs them on demand
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []*fakeTask
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTask{delay: d, fn: f}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *fakeScheduler) pending() []*fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTask
	for _, t := range s.tasks {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// runNext fires the oldest pending task
func (s *fakeScheduler) runNext() bool {
	p := s.pending()
	if len(p) == 0 {
		return false
	}
	p[0].fired = true
	p[0].fn()
	return true
}

// runAll fires pending tasks, including ones they schedule, until none remain
func (s *fakeScheduler) runAll() {
	for s.runNext() {
	}
}

type fetchCall struct {
	Offset int
	Limit  int
}

// fakeSource serves item values equal to their index
type fakeSource struct {
	mu    sync.Mutex
	total int
	calls []fetchCall
	fail  map[int]bool
}

func newFakeSource(total int) *fakeSource {
	return &fakeSource{total: total, fail: map[int]bool{}}
}

func (f *fakeSource) fetch(_ context.Context, offset, limit int) (domain.Page[int], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{offset, limit})
	if f.fail[offset] {
		return domain.Page[int]{}, errors.New("boom")
	}
	var items []int
	for i := offset; i < offset+limit && i < f.total; i++ {
		items = append(items, i)
	}
	return domain.Page[int]{Total: f.total, Items: items}, nil
}

func (f *fakeSource) takeCalls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.calls
	f.calls = nil
	return calls
}

func testOptions(sched Scheduler, segmentSize int) Options {
	opts := DefaultOptions()
	opts.SegmentSize = segmentSize
	opts.Scheduler = sched
	return opts
}

// rangeResult captures the outcome of QueryRangeFunc
type rangeResult struct {
	called bool
	ok     bool
	items  []int
}

func (r *rangeResult) done(items []int, ok bool) {
	r.called = true
	r.ok = ok
	r.items = items
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
