package window

import (
	"fmt"
	"sync/atomic"

	"github.com/five82/varlens/internal/reactive"
)

// Store holds the windows of a session, one reactive atom per key. Idle
// windows are evicted once more than size keys are live; an evicted window
// comes back in its initial state. Acquired windows are never evicted.
type Store struct {
	defaultLimit atomic.Int64
	windows      *reactive.Family[string, *reactive.Atom[State]]
}

// NewStore returns a store whose windows start with defaultLimit.
func NewStore(defaultLimit, size int) (*Store, error) {
	s := &Store{}
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	s.defaultLimit.Store(int64(defaultLimit))
	windows, err := reactive.NewFamily(size, func(string) *reactive.Atom[State] {
		return reactive.NewAtomEqual(Initial(s.DefaultLimit()), func(a, b State) bool { return a == b })
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("create window store: %w", err)
	}
	s.windows = windows
	return s, nil
}

// DefaultLimit is the page size new and reset windows use.
func (s *Store) DefaultLimit() int {
	return int(s.defaultLimit.Load())
}

// SetDefaultLimit changes the page size used by later resets.
func (s *Store) SetDefaultLimit(limit int) {
	if limit > 0 {
		s.defaultLimit.Store(int64(limit))
	}
}

// Get returns the current state of key.
func (s *Store) Get(key string) State {
	return s.windows.Get(key).Get()
}

// Apply runs a against key and returns the resulting state. Subscribers are
// only notified when the state actually changed.
func (s *Store) Apply(key string, a Action) State {
	atom := s.windows.Get(key)
	limit := s.DefaultLimit()
	var next State
	atom.Update(func(cur State) State {
		next = Reduce(cur, a, limit)
		return next
	})
	return next
}

// Acquire returns the node for key and keeps the window alive however many
// other keys come and go. Each Acquire needs a matching Release.
func (s *Store) Acquire(key string) *reactive.Atom[State] {
	return s.windows.Pin(key)
}

// Release gives up one Acquire. When the last holder releases, the window
// is discarded, as when its view unmounts.
func (s *Store) Release(key string) {
	s.windows.Release(key)
}
