package querycache

import "strings"

// Key identifies a cache entry. Keys are hierarchical so related entries can
// be invalidated by prefix, e.g. {"variants", appID} covers every list for
// that app.
type Key []string

// NewKey builds a key from parts.
func NewKey(parts ...string) Key {
	return Key(parts)
}

// String renders the key for logs and diagnostics.
func (k Key) String() string {
	return strings.Join(k, "/")
}

// id is the map form. The unit separator cannot appear in ids we produce.
func (k Key) id() string {
	return strings.Join(k, "\x1f")
}

// HasPrefix reports whether k starts with every element of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, p := range prefix {
		if k[i] != p {
			return false
		}
	}
	return true
}

// Equal reports element-wise equality.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}
