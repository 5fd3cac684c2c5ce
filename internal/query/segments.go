package query

import "math"

// SegmentStatus is the load state of one segment
type SegmentStatus int

const (
	NotLoaded SegmentStatus = iota
	Loading
	Loaded
)

func (s SegmentStatus) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "not_loaded"
	}
}

// callbackList is shared by reference between a segment and the snapshots
// taken of it, so waiters appended while a fetch is in flight are still
// notified when it completes.
type callbackList struct {
	fns []func(ok bool)
}

func (l *callbackList) drain(ok bool) {
	fns := l.fns
	l.fns = nil
	for _, fn := range fns {
		fn(ok)
	}
}

type segment struct {
	index     int
	status    SegmentStatus
	callbacks *callbackList
}

// segmentTable partitions the index space into fixed-size segments and turns
// range requests into the minimal set of contiguous queue requests.
// Every method must be called with the instance guard held.
type segmentTable[T any] struct {
	size  int
	segs  []*segment
	buf   *Buffer[T]
	queue *queue[T]
}

func newSegmentTable[T any](size int, buf *Buffer[T], q *queue[T]) *segmentTable[T] {
	return &segmentTable[T]{size: size, buf: buf, queue: q}
}

// get returns the segment at index or nil when it was never touched
func (s *segmentTable[T]) get(index int) *segment {
	if index < 0 || index >= len(s.segs) {
		return nil
	}
	return s.segs[index]
}

func (s *segmentTable[T]) status(index int) SegmentStatus {
	if seg := s.get(index); seg != nil {
		return seg.status
	}
	return NotLoaded
}

func (s *segmentTable[T]) ensure(index int) *segment {
	for len(s.segs) <= index {
		s.segs = append(s.segs, nil)
	}
	if s.segs[index] == nil {
		s.segs[index] = &segment{index: index, callbacks: &callbackList{}}
	}
	return s.segs[index]
}

// bounds clamps [offset, offset+limit) to the known total and converts it to
// the half-open segment range [begin, end).
func (s *segmentTable[T]) bounds(offset, limit int) (begin, end int) {
	total, known := s.buf.Total()
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		if known && v > total {
			return total
		}
		return v
	}
	beginItem, endItem := clamp(offset), clamp(offset+limit)
	begin = beginItem / s.size
	end = int(math.Ceil(float64(endItem) / float64(s.size)))
	if end < begin {
		end = begin
	}
	return begin, end
}

// loaded reports whether every segment touching the range is Loaded
func (s *segmentTable[T]) loaded(offset, limit int) LoadedStatus {
	begin, end := s.bounds(offset, limit)
	loading := false
	for i := begin; i < end; i++ {
		switch s.status(i) {
		case NotLoaded:
			return RangeNotLoaded
		case Loading:
			loading = true
		}
	}
	if loading {
		return RangeLoading
	}
	return RangeLoaded
}

// query calls done exactly once: true when every touched segment is loaded,
// false as soon as one of them fails or is cancelled. keep is passed on to
// the queue.
func (s *segmentTable[T]) query(generation, offset, limit int, keep bool, done func(ok bool)) {
	begin, end := s.bounds(offset, limit)
	remaining := end - begin
	resolved := false

	callback := func(ok bool) {
		if resolved {
			return
		}
		if !ok {
			resolved = true
			done(false)
			return
		}
		remaining--
		if remaining <= 0 {
			resolved = true
			done(true)
		}
	}

	var required []*segment
	for i := begin; i < end; i++ {
		seg := s.get(i)
		switch {
		case seg == nil || seg.status == NotLoaded:
			seg = s.ensure(i)
			seg.callbacks = &callbackList{fns: []func(bool){callback}}
			required = append(required, seg)
		case seg.status == Loading:
			seg.callbacks.fns = append(seg.callbacks.fns, callback)
		default:
			remaining--
		}
	}

	if remaining <= 0 {
		resolved = true
		done(true)
		return
	}

	for _, run := range splitContiguous(required) {
		off := run[0].index * s.size
		lim := (run[len(run)-1].index+1)*s.size - off
		s.queue.enqueue(generation, off, lim, keep, s.statusHandler(run))
	}
}

// statusHandler applies queue notifications to a snapshot of segments
func (s *segmentTable[T]) statusHandler(run []*segment) func(RequestStatus) {
	lists := make([]*callbackList, len(run))
	for i, seg := range run {
		lists[i] = seg.callbacks
	}
	setStatus := func(status SegmentStatus) {
		for _, seg := range run {
			seg.status = status
		}
	}
	notify := func(ok bool) {
		for _, l := range lists {
			l.drain(ok)
		}
	}
	return func(status RequestStatus) {
		switch status {
		case StatusQuerying:
			setStatus(Loading)
		case StatusOK:
			setStatus(Loaded)
			notify(true)
		case StatusError:
			setStatus(NotLoaded)
			notify(false)
		default:
			notify(false)
		}
	}
}

// invalidateAfterRemove marks stale segments NotLoaded after the item at
// index was removed. segCount is computed from the total before removal.
func (s *segmentTable[T]) invalidateAfterRemove(index, oldTotal int) []int {
	first := index / s.size
	segCount := int(math.Ceil(float64(oldTotal) / float64(s.size)))
	var invalidated []int
	for i := first; i < segCount; i++ {
		seg := s.get(i)
		if seg == nil || s.status(i+1) == Loaded {
			continue
		}
		if seg.status != NotLoaded {
			invalidated = append(invalidated, i)
		}
		seg.status = NotLoaded
		seg.callbacks.drain(false)
	}
	return invalidated
}

// drainAll resolves every pending waiter with false and forgets all segments
func (s *segmentTable[T]) drainAll() {
	for _, seg := range s.segs {
		if seg != nil {
			seg.callbacks.drain(false)
		}
	}
	s.segs = nil
}

// splitContiguous groups segments whose indexes differ by exactly one
func splitContiguous(segs []*segment) [][]*segment {
	var runs [][]*segment
	for i, seg := range segs {
		if i == 0 || seg.index-segs[i-1].index > 1 {
			runs = append(runs, []*segment{seg})
			continue
		}
		runs[len(runs)-1] = append(runs[len(runs)-1], seg)
	}
	return runs
}
