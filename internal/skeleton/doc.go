// Package skeleton builds placeholder rows for lists that are still loading.
//
// Placeholders carry an IsSkeleton marker on the record and on each nested
// deployment slot, so a renderer can tell "still loading" from "really
// empty". Slots alternate between resolved-looking and loading entries to
// suggest progressive reveal. Nothing outside rendering may treat a
// placeholder as data.
package skeleton
