// Package event provides a small typed publish/subscribe primitive.
package event

import "sync"

type subscriber[E any] struct {
	id int
	fn func(E)
}

// Emitter delivers events of type E to its subscribers in subscription order.
// The zero value is ready to use and safe for concurrent use.
type Emitter[E any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber[E]
}

// Subscribe registers fn and returns a function that removes it again.
// Calling the returned function more than once is a no-op.
func (e *Emitter[E]) Subscribe(fn func(E)) (unsubscribe func()) {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber[E]{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(id) })
	}
}

func (e *Emitter[E]) remove(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subs {
		if s.id == id {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return
		}
	}
}

// Emit calls every subscriber with ev. Subscribers are snapshotted first, so a
// subscriber may unsubscribe itself (or others) while being called.
func (e *Emitter[E]) Emit(ev E) {
	e.mu.Lock()
	subs := make([]subscriber[E], len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// Len returns the number of live subscribers
func (e *Emitter[E]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
