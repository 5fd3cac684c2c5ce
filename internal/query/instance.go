package query

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/mmcdole/vista/internal/domain"
	"github.com/mmcdole/vista/internal/event"
)

// LoadedStatus describes how much of a range is already cached
type LoadedStatus int

const (
	RangeNotLoaded LoadedStatus = iota
	RangeLoading
	RangeLoaded
)

// Range is an item window [Offset, Offset+Limit)
type Range struct {
	Offset int
	Limit  int
}

// ModifiedType distinguishes the synchronous mutations
type ModifiedType int

const (
	Modify ModifiedType = iota
	Remove
)

func (t ModifiedType) String() string {
	if t == Remove {
		return "remove"
	}
	return "modify"
}

// ModifiedEvent is emitted after a successful Modify or Remove. Value is the
// new item for Modify and the zero value for Remove.
type ModifiedEvent[T any] struct {
	Type     ModifiedType
	Index    int
	Value    T
	OldValue T
}

// Instance is the segmented cache for one logical query. It is safe for
// concurrent use. Instances are never re-targeted: a new filter gets a new
// Instance and the old one is closed.
type Instance[T any] struct {
	g      guard
	buf    *Buffer[T]
	segs   *segmentTable[T]
	queue  *queue[T]
	size   int
	cancel context.CancelFunc
	logger *slog.Logger

	metrics    *Metrics
	generation int
	closed     bool

	modified event.Emitter[ModifiedEvent[T]]
}

// NewInstance creates an instance that loads data through fetch
func NewInstance[T any](fetch domain.FetchFunc[T], opts Options) *Instance[T] {
	opts = opts.normalize()
	ctx, cancel := context.WithCancel(context.Background())

	inst := &Instance[T]{
		buf:     NewBuffer[T](),
		size:    opts.SegmentSize,
		cancel:  cancel,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	inst.queue = &queue[T]{
		g:       &inst.g,
		buf:     inst.buf,
		fetch:   fetch,
		sched:   opts.Scheduler,
		delay:   opts.QueryDelay,
		onError: opts.ErrorHandler,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		ctx:     ctx,
	}
	inst.segs = newSegmentTable(opts.SegmentSize, inst.buf, inst.queue)
	return inst
}

// SegmentSize returns the number of items per segment
func (i *Instance[T]) SegmentSize() int {
	return i.size
}

// Modified returns the emitter for Modify and Remove events
func (i *Instance[T]) Modified() *event.Emitter[ModifiedEvent[T]] {
	return &i.modified
}

// === Range queries ===

// QueryRangeFunc requests the window [offset, offset+limit) and calls done
// once the range resolves. Each call starts a new generation, so a newer
// window supersedes the queued requests of older ones. On success items holds
// the cached run starting at offset (clamped to the total); ok is false when
// a fetch failed, the request was superseded or the instance closed. done
// never runs under the instance lock.
func (i *Instance[T]) QueryRangeFunc(offset, limit int, done func(items []T, ok bool)) {
	i.queryRange(offset, limit, false, done)
}

// queryRange with keep set joins the live generation instead of starting a
// new one and is never superseded. Item lookups use it so they cannot cancel
// the window a viewport is waiting for.
func (i *Instance[T]) queryRange(offset, limit int, keep bool, done func(items []T, ok bool)) {
	i.g.lock()
	defer i.g.unlock()

	if i.closed {
		i.g.later(func() { done(nil, false) })
		return
	}

	if !keep {
		i.generation++
	}
	i.segs.query(i.generation, offset, limit, keep, func(ok bool) {
		var items []T
		if ok {
			items = i.buf.Slice(offset, limit)
		}
		i.g.later(func() { done(items, ok) })
	})
}

// QueryRange blocks until [offset, offset+limit) is loaded and returns it.
// It does not supersede pending window queries.
func (i *Instance[T]) QueryRange(ctx context.Context, offset, limit int) ([]T, error) {
	type result struct {
		items []T
		ok    bool
	}
	ch := make(chan result, 1)
	i.queryRange(offset, limit, true, func(items []T, ok bool) {
		ch <- result{items, ok}
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if !res.ok {
			return nil, i.unavailable()
		}
		return res.items, nil
	}
}

// QueryOne loads a single item. found is false when index is past the total.
func (i *Instance[T]) QueryOne(ctx context.Context, index int) (item T, found bool, err error) {
	items, err := i.QueryRange(ctx, index, 1)
	if err != nil || len(items) == 0 {
		return item, false, err
	}
	return items[0], true, nil
}

// QueryList loads the items at the given indexes, issuing one request per
// contiguous run of segments. Indexes past the total are skipped; the result
// keeps the order of the remaining indexes.
func (i *Instance[T]) QueryList(ctx context.Context, indexes []int) ([]T, error) {
	ch := make(chan bool, 1)

	i.g.lock()
	if i.closed {
		i.g.unlock()
		return nil, domain.ErrInstanceClosed
	}
	runs := segmentRuns(indexes, i.size)
	remaining := len(runs)
	failed := false
	for _, run := range runs {
		i.segs.query(i.generation, run.Offset, run.Limit, true, func(ok bool) {
			if failed {
				return
			}
			if !ok {
				failed = true
				ch <- false
				return
			}
			remaining--
			if remaining == 0 {
				ch <- true
			}
		})
	}
	if len(runs) == 0 {
		ch <- true
	}
	i.g.unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ok := <-ch:
		if !ok {
			return nil, i.unavailable()
		}
	}

	i.g.lock()
	defer i.g.unlock()
	out := make([]T, 0, len(indexes))
	for _, idx := range indexes {
		if v, ok := i.buf.Get(idx); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// IsRangeLoaded reports the load state of [offset, offset+limit)
func (i *Instance[T]) IsRangeLoaded(offset, limit int) LoadedStatus {
	i.g.lock()
	defer i.g.unlock()
	return i.segs.loaded(offset, limit)
}

// Count returns the collection total once the first fetch has reported it
func (i *Instance[T]) Count() (int, bool) {
	i.g.lock()
	defer i.g.unlock()
	return i.buf.Total()
}

// SegmentStatus returns the status of one segment
func (i *Instance[T]) SegmentStatus(index int) SegmentStatus {
	i.g.lock()
	defer i.g.unlock()
	return i.segs.status(index)
}

// === Synchronous operations ===

// Retrieve returns the cached item at index without fetching
func (i *Instance[T]) Retrieve(index int) (T, bool) {
	i.g.lock()
	defer i.g.unlock()
	var zero T
	if !i.inRange(index) {
		return zero, false
	}
	return i.buf.Get(index)
}

// Find searches loaded segments for the first item matching pred. Segments
// touching priority are searched first, then the search alternates outward
// one segment at a time. It returns false immediately while the total is
// unknown. pred runs under the instance lock and must not call back into it.
func (i *Instance[T]) Find(pred func(T) bool, priority *Range) (int, bool) {
	i.g.lock()
	defer i.g.unlock()

	total, known := i.buf.Total()
	if !known || i.closed {
		return -1, false
	}
	segCount := int(math.Ceil(float64(total) / float64(i.size)))

	inSegment := func(seg int) (int, bool) {
		if i.segs.status(seg) != Loaded {
			return -1, false
		}
		end := min((seg+1)*i.size, total)
		for idx := seg * i.size; idx < end; idx++ {
			if v, ok := i.buf.Get(idx); ok && pred(v) {
				return idx, true
			}
		}
		return -1, false
	}

	var lower, upper int
	if priority != nil {
		lower = max(0, priority.Offset/i.size)
		upper = int(math.Ceil(float64(priority.Offset+priority.Limit) / float64(i.size)))
	}
	for seg := lower; seg < upper && seg < segCount; seg++ {
		if idx, ok := inSegment(seg); ok {
			return idx, true
		}
	}
	for lo, hi := lower-1, upper; lo >= 0 || hi < segCount; {
		if lo >= 0 {
			if idx, ok := inSegment(lo); ok {
				return idx, true
			}
			lo--
		}
		if hi < segCount {
			if idx, ok := inSegment(hi); ok {
				return idx, true
			}
			hi++
		}
	}
	return -1, false
}

// Modify replaces the item at index. It fails when the owning segment is not
// loaded.
func (i *Instance[T]) Modify(index int, v T) bool {
	i.g.lock()
	defer i.g.unlock()

	if i.closed || !i.inRange(index) || i.segs.status(index/i.size) != Loaded {
		return false
	}
	old, _ := i.buf.Get(index)
	i.buf.Set(index, v)

	ev := ModifiedEvent[T]{Type: Modify, Index: index, Value: v, OldValue: old}
	i.g.later(func() { i.modified.Emit(ev) })
	return true
}

// Remove deletes the item at index, shifting later items left by one. Every
// segment from the removed one onward whose successor is not loaded is reset
// to not loaded so shifted data never leaves a stale hole.
func (i *Instance[T]) Remove(index int) bool {
	i.g.lock()
	defer i.g.unlock()

	if i.closed || !i.inRange(index) {
		return false
	}
	total, _ := i.buf.Total()
	old, _ := i.buf.Get(index)

	i.buf.Remove(index)
	invalidated := i.segs.invalidateAfterRemove(index, total)
	i.buf.SetTotal(total - 1)

	i.metrics.ObserveInvalidated(len(invalidated))
	i.logger.Debug("item removed", "index", index, "total", total-1, "invalidated", invalidated)

	ev := ModifiedEvent[T]{Type: Remove, Index: index, OldValue: old}
	i.g.later(func() { i.modified.Emit(ev) })
	return true
}

// Close cancels any pending query group and in-flight fetch and resolves every
// waiter with false. Close is idempotent.
func (i *Instance[T]) Close() {
	i.g.lock()
	defer i.g.unlock()

	if i.closed {
		return
	}
	i.closed = true
	i.queue.stop()
	i.segs.drainAll()
	i.cancel()
}

func (i *Instance[T]) inRange(index int) bool {
	total, known := i.buf.Total()
	return known && index >= 0 && index < total
}

func (i *Instance[T]) unavailable() error {
	i.g.lock()
	defer i.g.unlock()
	if i.closed {
		return domain.ErrInstanceClosed
	}
	return domain.ErrRangeUnavailable
}

// segmentRuns converts item indexes to item ranges covering each contiguous
// run of the segments they fall in.
func segmentRuns(indexes []int, size int) []Range {
	seen := make(map[int]struct{}, len(indexes))
	var segs []int
	for _, idx := range indexes {
		if idx < 0 {
			continue
		}
		seg := idx / size
		if _, ok := seen[seg]; ok {
			continue
		}
		seen[seg] = struct{}{}
		segs = append(segs, seg)
	}
	sort.Ints(segs)

	var runs []Range
	for k, seg := range segs {
		if k > 0 && seg == segs[k-1]+1 {
			runs[len(runs)-1].Limit += size
			continue
		}
		runs = append(runs, Range{Offset: seg * size, Limit: size})
	}
	return runs
}
