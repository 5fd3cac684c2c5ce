package query

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/vista/internal/event"
)

// SliceMetrics describes the window a Slice holds
type SliceMetrics struct {
	Total      int
	TotalKnown bool
	Offset     int
	Limit      int
}

// Slice is the materialised visible window. It is replaced wholesale on every
// committed query.
type Slice[T any] struct {
	Metrics SliceMetrics
	Result  []T
}

// Provider is what a PaginationView needs from an endpoint
type Provider[T any] interface {
	Current() Handle[T]
	Modified() *event.Emitter[ModifiedEvent[T]]
	Refreshed() *event.Emitter[RefreshedEvent]
}

// PaginationOptions configures a PaginationView
type PaginationOptions struct {
	QueryDelay time.Duration
	Scheduler  Scheduler
	Logger     *slog.Logger
	Metrics    *Metrics
}

// PaginationView turns (offset, limit) window updates into committed slices.
// Loaded windows commit immediately; anything else is debounced, and only the
// newest request may commit.
type PaginationView[T any] struct {
	mu       sync.Mutex
	provider Provider[T]
	delay    time.Duration
	sched    Scheduler
	logger   *slog.Logger
	metrics  *Metrics

	currentID int
	timer     Timer
	window    Range
	data      Slice[T]
	closed    bool
	unsubs    []func()

	updated event.Emitter[Slice[T]]
}

// NewPaginationView binds a view to provider. Close releases its listeners.
func NewPaginationView[T any](provider Provider[T], opts PaginationOptions) *PaginationView[T] {
	if opts.QueryDelay < 0 {
		opts.QueryDelay = 0
	}
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	v := &PaginationView[T]{
		provider: provider,
		delay:    opts.QueryDelay,
		sched:    opts.Scheduler,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		data:     Slice[T]{Result: []T{}},
	}
	v.unsubs = []func(){
		provider.Modified().Subscribe(v.onModified),
		provider.Refreshed().Subscribe(func(RefreshedEvent) { v.Reset() }),
	}
	return v
}

// Data returns the last committed slice
func (v *PaginationView[T]) Data() Slice[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data
}

// Updated publishes every committed or reset slice
func (v *PaginationView[T]) Updated() *event.Emitter[Slice[T]] {
	return &v.updated
}

// DataUpdate requests the window [offset, offset+limit)
func (v *PaginationView[T]) DataUpdate(offset, limit int) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.currentID++
	id := v.currentID
	v.window = Range{Offset: offset, Limit: limit}
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.mu.Unlock()

	h := v.provider.Current()
	if h.Instance.IsRangeLoaded(offset, limit) == RangeLoaded {
		v.query(id, h, offset, limit)
		return
	}

	delay := v.delay
	if _, known := h.Instance.Count(); !known {
		delay = 0
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if id != v.currentID || v.closed {
		return
	}
	v.timer = v.sched.AfterFunc(delay, func() {
		v.mu.Lock()
		stale := id < v.currentID || v.closed
		if !stale {
			v.timer = nil
		}
		v.mu.Unlock()
		if stale {
			return
		}
		v.query(id, v.provider.Current(), offset, limit)
	})
}

func (v *PaginationView[T]) query(id int, h Handle[T], offset, limit int) {
	h.Instance.QueryRangeFunc(offset, limit, func(items []T, ok bool) {
		if ok {
			v.commit(id, h, offset, items)
		}
	})
}

func (v *PaginationView[T]) commit(id int, h Handle[T], offset int, items []T) {
	v.mu.Lock()
	if v.closed || id < v.currentID || h.Generation != v.provider.Current().Generation {
		latest := v.currentID
		v.mu.Unlock()
		v.metrics.ObserveStaleDiscarded()
		v.logger.Debug("discarding stale page", "query_id", id, "current_id", latest, "generation", h.Generation)
		return
	}
	total, known := h.Instance.Count()
	v.data = Slice[T]{
		Metrics: SliceMetrics{Total: total, TotalKnown: known, Offset: offset, Limit: len(items)},
		Result:  items,
	}
	snapshot := v.data
	v.mu.Unlock()

	v.updated.Emit(snapshot)
}

// Reset clears the committed slice. The endpoint's cache is untouched.
func (v *PaginationView[T]) Reset() {
	v.mu.Lock()
	v.data = Slice[T]{Result: []T{}}
	snapshot := v.data
	v.mu.Unlock()

	v.updated.Emit(snapshot)
}

// Close stops the pending query and unsubscribes from the endpoint
func (v *PaginationView[T]) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	unsubs := v.unsubs
	v.unsubs = nil
	v.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// onModified re-requests the current window when a mutation touched it. A
// remove anywhere changes the total, so it always re-requests.
func (v *PaginationView[T]) onModified(ev ModifiedEvent[T]) {
	v.mu.Lock()
	w, data := v.window, v.data.Metrics
	v.mu.Unlock()

	if ev.Type == Modify && (ev.Index < data.Offset || ev.Index >= data.Offset+data.Limit) {
		return
	}
	v.DataUpdate(w.Offset, w.Limit)
}
