// Package pagecache holds the result pages fetched for one search query.
//
// The cache is scoped to exactly one query at a time. Writing a page for a
// different query clears every stored page and every empty mark before the
// new page is stored, so entries of two queries never coexist.
//
// # Windowed eviction
//
// After a page p is stored only the pages {1, p-1, p, p+1} survive. Page 1 is
// the home anchor, p-1 and p+1 keep prev/next navigation warm:
//
//	c := pagecache.New[catalog.Item]()
//	c.Put("dune", 1, page1)
//	c.Put("dune", 2, page2)
//	c.Put("dune", 5, page5) // drops page 2, keeps 1 and 5
//
// # Empty pages
//
// A page that came back with zero items is recorded with MarkEmpty. The
// empty set is independent of the stored pages: a page number missing from
// both means the fetch is pending or was never requested.
//
// # Metrics
//
//   - bookscout_page_cache_hits_total
//   - bookscout_page_cache_misses_total
//   - bookscout_page_cache_evictions_total
//   - bookscout_page_cache_resets_total
//
// A Cache is not safe for concurrent use; its owner serializes access.
package pagecache
