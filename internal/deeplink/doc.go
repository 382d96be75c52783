// Package deeplink turns URL query parameters into the priority ids the
// query layer fetches and shows ahead of the regular paged list.
//
// Recognised parameters are revisions and variants (comma-separated or
// repeated) and variant (a single selected variant). Parsing is pure; the
// caller replaces its stored Context wholesale whenever the URL changes.
package deeplink
