package window

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 50

// State is the pagination cursor of one paged view.
type State struct {
	Offset    int
	Limit     int
	HasMore   bool
	Total     int
	IsLoading bool
}

// Initial returns the state a window starts in and returns to on reset.
func Initial(limit int) State {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return State{Offset: 0, Limit: limit, HasMore: true}
}

// Action is a transition on a window.
type Action interface {
	apply(s State, defaultLimit int) State
}

// Next advances one page. It is a no-op while a page is loading or when
// the server reported no more data, so a window never has two page
// requests in flight.
type Next struct{}

func (Next) apply(s State, _ int) State {
	if !s.HasMore || s.IsLoading {
		return s
	}
	s.Offset += s.Limit
	s.IsLoading = true
	return s
}

// Reset restores the initial state.
type Reset struct{}

func (Reset) apply(_ State, defaultLimit int) State {
	return Initial(defaultLimit)
}

// SetTotal records the outcome of a resolved fetch.
type SetTotal struct {
	Total   int
	HasMore bool
}

func (a SetTotal) apply(s State, _ int) State {
	s.Total = a.Total
	s.HasMore = a.HasMore
	s.IsLoading = false
	return s
}

// SetLoading sets the loading flag directly, e.g. to clear it after a
// failed fetch.
type SetLoading struct {
	IsLoading bool
}

func (a SetLoading) apply(s State, _ int) State {
	s.IsLoading = a.IsLoading
	return s
}

// SetLimit changes the page size and rewinds to the first page.
type SetLimit struct {
	Limit int
}

func (a SetLimit) apply(_ State, defaultLimit int) State {
	if a.Limit > 0 {
		return Initial(a.Limit)
	}
	return Initial(defaultLimit)
}

// Reduce applies a to s.
func Reduce(s State, a Action, defaultLimit int) State {
	if a == nil {
		return s
	}
	return a.apply(s, defaultLimit)
}

// Meta is pagination metadata derived from a State. It is computed on
// read and never stored.
type Meta struct {
	PageCount   int
	CurrentPage int
	// Progress is the fraction of Total covered by pages up to the current
	// one, in [0, 1].
	Progress   float64
	StartIndex int
	EndIndex   int
}

// MetaOf derives Meta from s.
func MetaOf(s State) Meta {
	if s.Limit <= 0 {
		return Meta{}
	}
	m := Meta{
		CurrentPage: s.Offset/s.Limit + 1,
		StartIndex:  s.Offset,
		EndIndex:    s.Offset + s.Limit,
	}
	if s.Total > 0 {
		m.PageCount = (s.Total + s.Limit - 1) / s.Limit
		if m.EndIndex > s.Total {
			m.EndIndex = s.Total
		}
		if m.StartIndex > s.Total {
			m.StartIndex = s.Total
		}
		m.Progress = float64(m.EndIndex) / float64(s.Total)
	}
	return m
}
