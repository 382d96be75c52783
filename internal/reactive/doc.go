// Package reactive provides the explicit dependency graph the query layer
// is built on: writable Atoms, memoised Computed nodes with declared
// dependencies, and LRU-bounded Families of per-key nodes.
package reactive
