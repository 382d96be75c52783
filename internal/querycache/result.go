package querycache

import "fmt"

// State tags a Result.
type State int

const (
	StateLoading State = iota
	StateFailed
	StateReady
)

func (s State) String() string {
	switch s {
	case StateFailed:
		return "failed"
	case StateReady:
		return "ready"
	default:
		return "loading"
	}
}

// Result is the Loading | Failed | Ready view of a query. Value holds data
// when State is StateReady; a loading result may carry placeholder content.
type Result[T any] struct {
	State State
	Value T
	Err   error
	// Refreshing is set on a Ready result whose entry is being refetched in
	// the background; Value is the previous data.
	Refreshing bool
}

// Loading returns a loading result.
func Loading[T any]() Result[T] {
	return Result[T]{State: StateLoading}
}

// Failed returns a failed result.
func Failed[T any](err error) Result[T] {
	return Result[T]{State: StateFailed, Err: err}
}

// Ready returns a successful result.
func Ready[T any](v T) Result[T] {
	return Result[T]{State: StateReady, Value: v}
}

// IsReady reports whether r carries a value.
func (r Result[T]) IsReady() bool { return r.State == StateReady }

// ResultOf projects a cache entry into a typed result. An error status wins
// over any data the entry still holds.
func ResultOf[T any](e Entry, ok bool) Result[T] {
	if !ok {
		return Loading[T]()
	}
	switch e.Status {
	case StatusError:
		if e.Fetching {
			return Loading[T]()
		}
		return Failed[T](e.Err)
	case StatusSuccess:
		v, isT := e.Data.(T)
		if !isT {
			return Failed[T](fmt.Errorf("cache entry %s holds %T", e.Key, e.Data))
		}
		r := Ready(v)
		r.Refreshing = e.Fetching
		return r
	default:
		return Loading[T]()
	}
}

// Map converts a ready value, passing loading and failed states through.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	switch r.State {
	case StateReady:
		out := Ready(fn(r.Value))
		out.Refreshing = r.Refreshing
		return out
	case StateFailed:
		return Failed[U](r.Err)
	default:
		return Loading[U]()
	}
}
