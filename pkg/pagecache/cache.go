package pagecache

import (
	"fmt"
	"slices"
)

// ResultPage is the result set fetched for one page of a query. An empty
// Items slice is a legitimate value meaning no results at this page.
type ResultPage[T any] struct {
	Page  int
	Items []T
}

// Key identifies a page of a query.
type Key struct {
	Query string
	Page  int
}

// String generates a stable key for logging.
// Format: search:<query>:page=<n>
func (k Key) String() string {
	return fmt.Sprintf("search:%s:page=%d", k.Query, k.Page)
}

// Cache maps page numbers to result pages for the query currently in scope.
type Cache[T any] struct {
	query string
	pages map[int]ResultPage[T]
	empty map[int]struct{}
}

// New creates an empty cache with no query in scope.
func New[T any]() *Cache[T] {
	return &Cache[T]{
		pages: make(map[int]ResultPage[T]),
		empty: make(map[int]struct{}),
	}
}

// Query returns the query the cache is currently scoped to.
func (c *Cache[T]) Query() string {
	return c.query
}

// Reset clears every page and empty mark and scopes the cache to query.
func (c *Cache[T]) Reset(query string) {
	if len(c.pages) > 0 || len(c.empty) > 0 {
		CacheResets.Inc()
	}
	c.query = query
	clear(c.pages)
	clear(c.empty)
}

// scope switches the cache to query, clearing it if the scope changes.
func (c *Cache[T]) scope(query string) {
	if query != c.query {
		c.Reset(query)
	}
}

// Put stores rp as page for query and applies the eviction window anchored
// at page. A non-empty page clears any earlier empty mark for it.
func (c *Cache[T]) Put(query string, page int, rp ResultPage[T]) {
	if page < 1 {
		return
	}
	c.scope(query)

	rp.Page = page
	c.pages[page] = rp
	if len(rp.Items) > 0 {
		delete(c.empty, page)
	}

	retain := Window(page)
	for p := range c.pages {
		if !slices.Contains(retain, p) {
			delete(c.pages, p)
			CacheEvictions.Inc()
		}
	}
}

// Get returns the page stored for query, if any.
func (c *Cache[T]) Get(query string, page int) (ResultPage[T], bool) {
	if query != c.query {
		CacheMisses.Inc()
		return ResultPage[T]{}, false
	}
	rp, ok := c.pages[page]
	if !ok {
		CacheMisses.Inc()
		return ResultPage[T]{}, false
	}
	CacheHits.Inc()
	return rp, true
}

// MarkEmpty records that page returned zero items for query.
func (c *Cache[T]) MarkEmpty(query string, page int) {
	if page < 1 {
		return
	}
	c.scope(query)
	c.empty[page] = struct{}{}
}

// IsEmpty reports whether page is known to have returned zero items for query.
func (c *Cache[T]) IsEmpty(query string, page int) bool {
	if query != c.query {
		return false
	}
	_, ok := c.empty[page]
	return ok
}

// Pages returns the stored page numbers in ascending order.
func (c *Cache[T]) Pages() []int {
	pages := make([]int, 0, len(c.pages))
	for p := range c.pages {
		pages = append(pages, p)
	}
	slices.Sort(pages)
	return pages
}

// EmptyPages returns the pages marked empty in ascending order.
func (c *Cache[T]) EmptyPages() []int {
	pages := make([]int, 0, len(c.empty))
	for p := range c.empty {
		pages = append(pages, p)
	}
	slices.Sort(pages)
	return pages
}

// Len returns the number of stored pages.
func (c *Cache[T]) Len() int {
	return len(c.pages)
}
