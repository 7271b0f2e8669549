package pagecache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks page lookups served from the cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookscout_page_cache_hits_total",
			Help: "Total number of search page cache hits",
		},
	)

	// CacheMisses tracks page lookups that found nothing for the scoped query
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookscout_page_cache_misses_total",
			Help: "Total number of search page cache misses",
		},
	)

	// CacheEvictions tracks pages dropped by the eviction window
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookscout_page_cache_evictions_total",
			Help: "Total number of search pages evicted outside the page window",
		},
	)

	// CacheResets tracks clears caused by a query change
	CacheResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookscout_page_cache_resets_total",
			Help: "Total number of page cache clears caused by a query change",
		},
	)
)
