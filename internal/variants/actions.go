package variants

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/varlens/internal/deeplink"
	"github.com/five82/varlens/internal/querycache"
	"github.com/five82/varlens/internal/skeleton"
	"github.com/five82/varlens/internal/window"
)

// Actions only change window, selection, filter, link or cache flags. The
// session's subscriptions notice the change and issue whatever fetches the
// new state needs.

// LoadMore advances the window one page. It reports whether the window
// moved; it does not while a page is loading or once the list is exhausted.
func (s *Session) LoadMore() bool {
	if s.params.Mode != ModeWindowed {
		return false
	}
	before := s.windows.Get(s.params.WindowKey)
	after := s.windows.Apply(s.params.WindowKey, window.Next{})
	moved := after.Offset != before.Offset
	if moved {
		s.log.Debug("load more", zap.Int("offset", after.Offset), zap.Int("limit", after.Limit))
	}
	return moved
}

// Reset rewinds the window to its first page.
func (s *Session) Reset() {
	s.windows.Apply(s.params.WindowKey, window.Reset{})
}

// Refresh rewinds the window and marks every cached entry stale.
func (s *Session) Refresh() {
	s.Reset()
	n := s.invalidator.InvalidateAll()
	s.log.Info("refresh", zap.Int("invalidated", n))
	s.Sync(querycache.TriggerRead)
}

// SetPageSize changes the page size of this and future windows and rewinds
// to the first page.
func (s *Session) SetPageSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("page size must be positive, got %d", size)
	}
	s.windows.SetDefaultLimit(size)
	s.windows.Apply(s.params.WindowKey, window.SetLimit{Limit: size})
	s.log.Debug("page size changed", zap.Int("page_size", size))
	return nil
}

// PreloadVariants warms the cache for ids that are about to be shown and
// returns the ids it started fetching.
func (s *Session) PreloadVariants(ids ...string) []string {
	return s.invalidator.Preload(ids...)
}

// InvalidateVariants marks each variant and every variant list stale.
func (s *Session) InvalidateVariants(ids ...string) int {
	n := 0
	for _, id := range ids {
		n += s.invalidator.Invalidate(Target{Scope: ScopeEntity, ID: id})
	}
	return n
}

// Invalidate marks the entries reached by t stale.
func (s *Session) Invalidate(t Target) int {
	return s.invalidator.Invalidate(t)
}

// SelectVariant makes id the only selected variant. Placeholder ids are
// ignored.
func (s *Session) SelectVariant(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		s.ClearSelection()
		return
	}
	if skeleton.IsSkeletonID(id) {
		return
	}
	s.selection.Set(map[string]bool{id: true})
}

// SelectMultiple replaces the selection with ids.
func (s *Session) SelectMultiple(ids ...string) {
	next := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" && !skeleton.IsSkeletonID(id) {
			next[id] = true
		}
	}
	s.selection.Set(next)
}

// ClearSelection deselects everything.
func (s *Session) ClearSelection() {
	s.selection.Set(map[string]bool{})
}

// ToggleSelection adds id to the selection or removes it.
func (s *Session) ToggleSelection(id string) {
	if id == "" || skeleton.IsSkeletonID(id) {
		return
	}
	s.selection.Update(func(cur map[string]bool) map[string]bool {
		next := make(map[string]bool, len(cur)+1)
		for k := range cur {
			next[k] = true
		}
		if next[id] {
			delete(next, id)
		} else {
			next[id] = true
		}
		return next
	})
}

// SetSearch narrows the loaded rows by a case-insensitive substring.
func (s *Session) SetSearch(q string) {
	s.filter.Update(func(f Filter) Filter {
		f.Search = q
		return f
	})
}

// SetFilter replaces the whole filter.
func (s *Session) SetFilter(f Filter) {
	s.filter.Set(f)
}

// SetURL replaces the deep-link context with the one parsed from raw.
func (s *Session) SetURL(raw string) error {
	link, err := deeplink.ParseURL(raw)
	if err != nil {
		return err
	}
	s.SetLink(link)
	return nil
}

// SetLink replaces the deep-link context.
func (s *Session) SetLink(link deeplink.Context) {
	if s.link.Update(func(deeplink.Context) deeplink.Context { return link }) {
		s.log.Debug("deep link changed", zap.Strings("priority_ids", link.PriorityIDs))
	}
}
