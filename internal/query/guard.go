package query

import "sync"

// guard is the lock shared by an instance, its segment table and its queue.
// Functions registered with later while the lock is held run, in order, right
// after the lock is released. Listener callbacks, the error handler and
// waiter notifications all go through later so no user code ever runs under
// the lock.
type guard struct {
	mu      sync.Mutex
	pending []func()
}

func (g *guard) lock() {
	g.mu.Lock()
}

// later must be called with the lock held.
func (g *guard) later(fn func()) {
	g.pending = append(g.pending, fn)
}

func (g *guard) unlock() {
	fns := g.pending
	g.pending = nil
	g.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
