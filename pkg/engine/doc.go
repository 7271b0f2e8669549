// Package engine turns a rapidly changing search query into a throttled
// sequence of catalog page fetches and exposes a consistent current-page
// view with prev/next/numbered navigation.
//
// # Flow
//
//	OnQueryChange ─▶ debounce ─▶ query reset (page 1) ─▶ fetch ─▶ page cache
//	OnPageRequest ─────────────▶ fetch or pending slot ─▶ fetch ─▶ page cache
//	                                                        │
//	                                       settle ◀─────────┘ ─▶ navstate publish
//
// # States
//
//   - Idle: no active query.
//   - Fetching: one page fetch is in flight. Navigation requests received
//     meanwhile replace the pending page (last writer wins) and are serviced
//     once the in-flight fetch has settled.
//   - Settled: the current page's result is in the cache or marked empty.
//
// # Staleness
//
// A response is applied only if its query is still the active query when it
// arrives; otherwise it is discarded without touching the cache, the empty
// set or the current page. Network calls are never aborted on a query
// change, only discarded on arrival.
//
// # Failures
//
// A failed fetch settles like a page with zero items and carries a
// FetchError on the View. It is not retried; navigating back to the page
// fetches it again.
//
// All state is guarded by one mutex, so mutations are serialized even though
// fetch responses arrive on their own goroutines.
package engine
