package deeplink

import (
	"fmt"
	"net/url"
	"strings"
)

// Query parameter names.
const (
	ParamRevisions = "revisions"
	ParamVariants  = "variants"
	ParamVariant   = "variant"
)

// Context is the set of entities a URL asks to show first.
type Context struct {
	RevisionIDs     []string
	VariantIDs      []string
	SelectedVariant string
	// PriorityIDs is RevisionIDs, then VariantIDs, then SelectedVariant,
	// with blanks and repeats removed. The first occurrence keeps its place.
	PriorityIDs []string
}

// Empty reports whether the context names no entities.
func (c Context) Empty() bool {
	return len(c.PriorityIDs) == 0
}

// Has reports whether id is a priority id.
func (c Context) Has(id string) bool {
	for _, p := range c.PriorityIDs {
		if p == id {
			return true
		}
	}
	return false
}

// Equal reports whether two contexts carry the same ids in the same order.
func (c Context) Equal(other Context) bool {
	return c.SelectedVariant == other.SelectedVariant &&
		equalStrings(c.RevisionIDs, other.RevisionIDs) &&
		equalStrings(c.VariantIDs, other.VariantIDs)
}

// Parse derives a Context from URL query values.
func Parse(values url.Values) Context {
	c := Context{
		RevisionIDs:     splitList(values[ParamRevisions]),
		VariantIDs:      splitList(values[ParamVariants]),
		SelectedVariant: strings.TrimSpace(values.Get(ParamVariant)),
	}
	ids := make([]string, 0, len(c.RevisionIDs)+len(c.VariantIDs)+1)
	ids = append(ids, c.RevisionIDs...)
	ids = append(ids, c.VariantIDs...)
	ids = append(ids, c.SelectedVariant)
	c.PriorityIDs = dedupe(ids)
	return c
}

// ParseURL parses a full URL or a bare query string ("?variant=v1" or
// "variant=v1").
func ParseURL(raw string) (Context, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Context{}, nil
	}
	query := raw
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "/") {
		u, err := url.Parse(raw)
		if err != nil {
			return Context{}, fmt.Errorf("parse deep link: %w", err)
		}
		query = u.RawQuery
	} else {
		query = strings.TrimPrefix(query, "?")
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return Context{}, fmt.Errorf("parse deep link query: %w", err)
	}
	return Parse(values), nil
}

// splitList accepts both repeated parameters and comma-separated values.
func splitList(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
