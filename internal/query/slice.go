package query

import (
	"context"
	"sync"

	"github.com/mmcdole/vista/internal/event"
)

// ItemSource is the subset of the instance API that slice views proxy to.
// Both *Instance and *Endpoint implement it.
type ItemSource[T any] interface {
	QueryOne(ctx context.Context, index int) (T, bool, error)
	Retrieve(index int) (T, bool)
	Modify(index int, v T) bool
	Remove(index int) bool
}

// ListSlice projects an explicit list of source indexes, for example a user
// selection, as its own small collection. Mutations are applied to the source.
type ListSlice[T any] struct {
	mu       sync.Mutex
	source   ItemSource[T]
	indexes  []int
	modified event.Emitter[ModifiedEvent[T]]
}

// NewListSlice creates a slice over the given source indexes
func NewListSlice[T any](source ItemSource[T], indexes []int) *ListSlice[T] {
	return &ListSlice[T]{source: source, indexes: append([]int(nil), indexes...)}
}

// Count returns the number of items in the slice
func (s *ListSlice[T]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.indexes)
}

// Indexes returns the source indexes the slice currently points at
func (s *ListSlice[T]) Indexes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.indexes...)
}

// Get loads the item at slice position index
func (s *ListSlice[T]) Get(ctx context.Context, index int) (T, bool, error) {
	src, ok := s.sourceIndex(index)
	if !ok {
		var zero T
		return zero, false, nil
	}
	return s.source.QueryOne(ctx, src)
}

// Modify replaces the item at slice position index
func (s *ListSlice[T]) Modify(index int, v T) bool {
	src, ok := s.sourceIndex(index)
	if !ok {
		return false
	}
	old, _ := s.source.Retrieve(src)
	if !s.source.Modify(src, v) {
		return false
	}
	s.modified.Emit(ModifiedEvent[T]{Type: Modify, Index: index, Value: v, OldValue: old})
	return true
}

// Remove deletes the item at slice position index from the source. Remaining
// source indexes past the removed one shift down by one.
func (s *ListSlice[T]) Remove(index int) bool {
	src, ok := s.sourceIndex(index)
	if !ok {
		return false
	}
	old, _ := s.source.Retrieve(src)
	if !s.source.Remove(src) {
		return false
	}

	s.mu.Lock()
	next := make([]int, 0, len(s.indexes)-1)
	for k, j := range s.indexes {
		if k == index {
			continue
		}
		if j >= src {
			j--
		}
		next = append(next, j)
	}
	s.indexes = next
	s.mu.Unlock()

	s.modified.Emit(ModifiedEvent[T]{Type: Remove, Index: index, OldValue: old})
	return true
}

// Modified publishes mutations made through the slice, indexed by slice position
func (s *ListSlice[T]) Modified() *event.Emitter[ModifiedEvent[T]] {
	return &s.modified
}

func (s *ListSlice[T]) sourceIndex(index int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.indexes) {
		return 0, false
	}
	return s.indexes[index], true
}

// Singleton proxies one source item. After Remove it is disabled for good.
type Singleton[T any] struct {
	mu       sync.Mutex
	source   ItemSource[T]
	index    int
	enabled  bool
	modified event.Emitter[ModifiedEvent[T]]
}

// NewSingleton creates a proxy for the item at index
func NewSingleton[T any](source ItemSource[T], index int) *Singleton[T] {
	return &Singleton[T]{source: source, index: index, enabled: true}
}

// Get loads the item. found is false once the singleton was removed.
func (s *Singleton[T]) Get(ctx context.Context) (T, bool, error) {
	if !s.isEnabled() {
		var zero T
		return zero, false, nil
	}
	return s.source.QueryOne(ctx, s.index)
}

// Modify replaces the item
func (s *Singleton[T]) Modify(v T) bool {
	if !s.isEnabled() {
		return false
	}
	old, _ := s.source.Retrieve(s.index)
	if !s.source.Modify(s.index, v) {
		return false
	}
	s.modified.Emit(ModifiedEvent[T]{Type: Modify, Index: s.index, Value: v, OldValue: old})
	return true
}

// Remove deletes the item from the source and disables the singleton
func (s *Singleton[T]) Remove() bool {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return false
	}
	s.enabled = false
	s.mu.Unlock()

	old, _ := s.source.Retrieve(s.index)
	if !s.source.Remove(s.index) {
		return false
	}
	s.modified.Emit(ModifiedEvent[T]{Type: Remove, Index: s.index, OldValue: old})
	return true
}

// Modified publishes mutations made through the singleton
func (s *Singleton[T]) Modified() *event.Emitter[ModifiedEvent[T]] {
	return &s.modified
}

func (s *Singleton[T]) isEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}
