package reactive

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultFamilySize bounds a Family when no size is given.
const DefaultFamilySize = 256

// Family maps keys to lazily constructed nodes. Members are kept in an LRU
// so idle keys are evicted once the family is full; onEvict runs for each
// evicted member. Pinned members are never evicted.
type Family[K comparable, V any] struct {
	mu      sync.Mutex
	create  func(K) V
	members *lru.Cache[K, V]
	pinned  map[K]*pin[V]
}

type pin[V any] struct {
	v    V
	refs int
}

// NewFamily returns a family of at most size unpinned members.
func NewFamily[K comparable, V any](size int, create func(K) V, onEvict func(K, V)) (*Family[K, V], error) {
	if size <= 0 {
		size = DefaultFamilySize
	}
	members, err := lru.NewWithEvict[K, V](size, onEvict)
	if err != nil {
		return nil, fmt.Errorf("create family: %w", err)
	}
	return &Family[K, V]{create: create, members: members, pinned: make(map[K]*pin[V])}, nil
}

// Get returns the member for key, creating it on first access. Access marks
// the member as recently used.
func (f *Family[K, V]) Get(key K) V {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(key)
}

func (f *Family[K, V]) get(key K) V {
	if p, ok := f.pinned[key]; ok {
		return p.v
	}
	if v, ok := f.members.Get(key); ok {
		return v
	}
	v := f.create(key)
	f.members.Add(key, v)
	return v
}

// Pin returns the member for key and keeps it alive until a matching
// Release. Pins are counted.
func (f *Family[K, V]) Pin(key K) V {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pinned[key]; ok {
		p.refs++
		return p.v
	}
	v := f.get(key)
	f.pinned[key] = &pin[V]{v: v, refs: 1}
	return v
}

// Release drops one pin on key. The last release discards the member, so
// the next Get starts afresh.
func (f *Family[K, V]) Release(key K) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pinned[key]
	if !ok {
		return
	}
	if p.refs--; p.refs > 0 {
		return
	}
	delete(f.pinned, key)
	f.members.Remove(key)
}
