package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_catalog_cache_hits_total",
		Help: "Total catalog cache hits by freshness",
	}, []string{"state"}) // "fresh", "stale"

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookscout_catalog_cache_misses_total",
		Help: "Total catalog cache misses",
	})

	cacheRevalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookscout_catalog_cache_revalidations_total",
		Help: "Total 304 Not Modified answers to catalog revalidation requests",
	})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_catalog_cache_errors_total",
		Help: "Total catalog cache operation errors",
	}, []string{"operation"}) // "get", "set", "delete"
)
