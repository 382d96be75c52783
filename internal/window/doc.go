// Package window implements per-view pagination cursors.
//
// A window is the offset/limit/hasMore/total/isLoading state of one paged
// list. Transitions are pure: Reduce takes a State and an Action and
// returns the next State. The Store keeps one reactive atom per window key
// so derived nodes and query descriptors can depend on a single window.
//
// Next refuses to advance while a page is loading or after the server
// reported the end of the data. Together with SetTotal clearing the
// loading flag only after a fetch resolves, this keeps at most one page
// request in flight per window.
//
// Page count, progress and start/end index are derived by MetaOf and never
// stored.
package window
