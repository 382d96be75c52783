package reactive

import (
	"sync"
	"sync/atomic"
)

// Node is anything a Computed can depend on.
type Node interface {
	// Subscribe registers fn to run after the node changes. The returned
	// function removes the subscription.
	Subscribe(fn func()) (unsubscribe func())
}

var nextSubID atomic.Uint64

// subscribers is the listener set shared by Atom and Computed.
type subscribers struct {
	mu    sync.Mutex
	funcs map[uint64]func()
}

func (s *subscribers) add(fn func()) func() {
	id := nextSubID.Add(1)
	s.mu.Lock()
	if s.funcs == nil {
		s.funcs = make(map[uint64]func())
	}
	s.funcs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.funcs, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.funcs))
	for _, fn := range s.funcs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *subscribers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.funcs)
}

// Atom is a writable source node.
type Atom[T any] struct {
	mu    sync.RWMutex
	value T
	equal func(a, b T) bool
	subs  subscribers
}

// NewAtom returns an atom holding initial. Every Set notifies subscribers.
func NewAtom[T any](initial T) *Atom[T] {
	return &Atom[T]{value: initial}
}

// NewAtomEqual returns an atom that skips notification when equal reports
// the new value matches the old one.
func NewAtomEqual[T any](initial T, equal func(a, b T) bool) *Atom[T] {
	return &Atom[T]{value: initial, equal: equal}
}

// Get returns the current value.
func (a *Atom[T]) Get() T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value
}

// Set replaces the value and notifies subscribers.
func (a *Atom[T]) Set(v T) {
	a.Update(func(T) T { return v })
}

// Update applies fn to the current value atomically. It reports whether
// subscribers were notified.
func (a *Atom[T]) Update(fn func(T) T) bool {
	a.mu.Lock()
	old := a.value
	next := fn(old)
	if a.equal != nil && a.equal(old, next) {
		a.mu.Unlock()
		return false
	}
	a.value = next
	a.mu.Unlock()
	a.subs.notify()
	return true
}

// Subscribe implements Node.
func (a *Atom[T]) Subscribe(fn func()) func() {
	return a.subs.add(fn)
}

// Computed is a derived node. Its dependencies are declared up front; when
// any of them changes the cached value is dropped and subscribers are told.
// The value is recomputed lazily on the next Get.
type Computed[T any] struct {
	compute func() T

	mu     sync.Mutex
	cached T
	valid  bool
	epoch  uint64
	unsubs []func()
	subs   subscribers
}

// NewComputed builds a derived node over deps. The graph stays acyclic
// because a node can only depend on nodes that already exist.
func NewComputed[T any](compute func() T, deps ...Node) *Computed[T] {
	c := &Computed[T]{compute: compute}
	for _, dep := range deps {
		c.unsubs = append(c.unsubs, dep.Subscribe(c.Invalidate))
	}
	return c
}

// Invalidate forces recomputation on the next Get and notifies subscribers.
func (c *Computed[T]) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.epoch++
	c.mu.Unlock()
	c.subs.notify()
}

// Get returns the memoised value, recomputing it if a dependency changed.
func (c *Computed[T]) Get() T {
	c.mu.Lock()
	if c.valid {
		v := c.cached
		c.mu.Unlock()
		return v
	}
	epoch := c.epoch
	c.mu.Unlock()

	v := c.compute()

	c.mu.Lock()
	// A dependency changed mid-compute; return the value but do not
	// memoise it.
	if c.epoch == epoch {
		c.cached = v
		c.valid = true
	}
	c.mu.Unlock()
	return v
}

// Subscribe implements Node.
func (c *Computed[T]) Subscribe(fn func()) func() {
	return c.subs.add(fn)
}

// Close detaches the node from its dependencies.
func (c *Computed[T]) Close() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}

// liveSubscriptions counts the subscriptions on n, or returns -1 when n is
// not an Atom or Computed.
func liveSubscriptions(n Node) int {
	switch v := n.(type) {
	case interface{ subscriberCount() int }:
		return v.subscriberCount()
	default:
		return -1
	}
}

func (a *Atom[T]) subscriberCount() int     { return a.subs.count() }
func (c *Computed[T]) subscriberCount() int { return c.subs.count() }
