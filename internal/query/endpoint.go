package query

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/vista/internal/domain"
	"github.com/mmcdole/vista/internal/event"
)

// RequestFunc is the filtered fetch an Endpoint binds to each instance
type RequestFunc[T, F any] func(ctx context.Context, offset, limit int, filter F) (domain.Page[T], error)

// Handle is the current instance together with its generation. Staleness
// checks compare generations, never instance pointers.
type Handle[T any] struct {
	Instance   *Instance[T]
	Generation int
}

// RefreshReason says why an endpoint replaced its instance
type RefreshReason int

const (
	FilterUpdated RefreshReason = iota
	Refreshed
)

func (r RefreshReason) String() string {
	if r == Refreshed {
		return "refreshed"
	}
	return "filter_updated"
}

// RefreshedEvent is emitted after an endpoint swapped in a new instance
type RefreshedEvent struct {
	Generation int
	Reason     RefreshReason
}

// Endpoint owns the instance for the current filter. Changing the filter or
// refreshing closes the old instance and creates a new one; modified events
// of whichever instance is current are re-published on Modified.
type Endpoint[T, F any] struct {
	mu      sync.Mutex
	request RequestFunc[T, F]
	opts    Options
	logger  *slog.Logger

	filter F
	handle Handle[T]
	unsub  func()

	modified  event.Emitter[ModifiedEvent[T]]
	refreshed event.Emitter[RefreshedEvent]
}

// NewEndpoint creates an endpoint and its first instance for filter
func NewEndpoint[T, F any](request RequestFunc[T, F], filter F, opts Options) *Endpoint[T, F] {
	opts = opts.normalize()
	e := &Endpoint[T, F]{
		request: request,
		opts:    opts,
		logger:  opts.Logger,
		filter:  cloneFilter(filter),
	}
	e.handle, e.unsub = e.spawn(e.filter, 1)
	return e
}

func cloneFilter[F any](f F) F {
	if c, ok := any(f).(interface{ Clone() F }); ok {
		return c.Clone()
	}
	return f
}

// spawn creates an instance bound to a private copy of filter
func (e *Endpoint[T, F]) spawn(filter F, generation int) (Handle[T], func()) {
	bound := cloneFilter(filter)
	fetch := func(ctx context.Context, offset, limit int) (domain.Page[T], error) {
		return e.request(ctx, offset, limit, bound)
	}
	inst := NewInstance(fetch, e.opts)
	unsub := inst.Modified().Subscribe(func(ev ModifiedEvent[T]) {
		if e.Current().Generation == generation {
			e.modified.Emit(ev)
		}
	})
	return Handle[T]{Instance: inst, Generation: generation}, unsub
}

func (e *Endpoint[T, F]) replace(filter F, reason RefreshReason) {
	e.mu.Lock()
	old, oldUnsub := e.handle, e.unsub
	gen := old.Generation + 1
	e.filter = cloneFilter(filter)
	e.handle, e.unsub = e.spawn(e.filter, gen)
	e.mu.Unlock()

	oldUnsub()
	old.Instance.Close()

	e.logger.Info("query instance replaced", "generation", gen, "reason", reason.String())
	e.refreshed.Emit(RefreshedEvent{Generation: gen, Reason: reason})
}

// Current returns the live instance handle
func (e *Endpoint[T, F]) Current() Handle[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handle
}

// Filter returns a copy of the active filter
func (e *Endpoint[T, F]) Filter() F {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneFilter(e.filter)
}

// SetFilter replaces the instance with one bound to filter
func (e *Endpoint[T, F]) SetFilter(filter F) {
	e.replace(filter, FilterUpdated)
}

// Refresh discards every cached item by recreating the instance
func (e *Endpoint[T, F]) Refresh() {
	e.replace(e.Filter(), Refreshed)
}

// Close closes the current instance and drops all listeners of it
func (e *Endpoint[T, F]) Close() {
	e.mu.Lock()
	h, unsub := e.handle, e.unsub
	e.mu.Unlock()
	unsub()
	h.Instance.Close()
}

// Modified publishes modify and remove events of the current instance
func (e *Endpoint[T, F]) Modified() *event.Emitter[ModifiedEvent[T]] {
	return &e.modified
}

// Refreshed publishes instance replacements
func (e *Endpoint[T, F]) Refreshed() *event.Emitter[RefreshedEvent] {
	return &e.refreshed
}

// === Proxy to the current instance ===

func (e *Endpoint[T, F]) QueryRange(ctx context.Context, offset, limit int) ([]T, error) {
	return e.Current().Instance.QueryRange(ctx, offset, limit)
}

func (e *Endpoint[T, F]) QueryOne(ctx context.Context, index int) (T, bool, error) {
	return e.Current().Instance.QueryOne(ctx, index)
}

func (e *Endpoint[T, F]) QueryList(ctx context.Context, indexes []int) ([]T, error) {
	return e.Current().Instance.QueryList(ctx, indexes)
}

func (e *Endpoint[T, F]) IsRangeLoaded(offset, limit int) LoadedStatus {
	return e.Current().Instance.IsRangeLoaded(offset, limit)
}

func (e *Endpoint[T, F]) Count() (int, bool) {
	return e.Current().Instance.Count()
}

func (e *Endpoint[T, F]) Retrieve(index int) (T, bool) {
	return e.Current().Instance.Retrieve(index)
}

func (e *Endpoint[T, F]) Find(pred func(T) bool, priority *Range) (int, bool) {
	return e.Current().Instance.Find(pred, priority)
}

func (e *Endpoint[T, F]) Modify(index int, v T) bool {
	return e.Current().Instance.Modify(index, v)
}

func (e *Endpoint[T, F]) Remove(index int) bool {
	return e.Current().Instance.Remove(index)
}
