// Package metrics exposes the Prometheus registry shared by every bookscout
// package. All metrics are defined in their respective packages (catalog,
// engine, pagecache, ...) and register themselves via promauto, so importing
// a package is enough for its metrics to appear on Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package's promauto metrics use.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Catalog Metrics (pkg/catalog):
//   - bookscout_catalog_requests_total{operation, status} (Counter): Requests by operation (search, lookup) and HTTP status
//   - bookscout_catalog_request_duration_seconds{operation} (Histogram): Request duration
//   - bookscout_catalog_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//   - bookscout_catalog_retries_total{error_class} (Counter): Retry attempts
//   - bookscout_catalog_retry_backoff_seconds{error_class} (Histogram): Backoff before each retry
//   - bookscout_catalog_retry_exhausted_total{error_class} (Counter): Requests that used up every retry
//
// Lookup Cache Metrics (pkg/cache):
//   - bookscout_catalog_cache_hits_total{state} (Counter): Volume cache hits (fresh, stale)
//   - bookscout_catalog_cache_misses_total (Counter): Volume cache misses
//   - bookscout_catalog_cache_revalidations_total (Counter): 304 Not Modified answers
//   - bookscout_catalog_cache_errors_total{operation} (Counter): Redis failures (get, set, delete)
//
// Quota Metrics (pkg/ratelimit):
//   - bookscout_ratelimit_blocked_seconds (Gauge): Seconds left in the current back-off window
//   - bookscout_ratelimit_blocks_total (Counter): Requests refused during a back-off window
//   - bookscout_ratelimit_throttles_total (Counter): 429 responses received
//
// Engine Metrics (pkg/engine):
//   - bookscout_engine_fetches_total{outcome} (Counter): Page fetches by outcome (ok, empty, failed, stale)
//   - bookscout_engine_fetch_duration_seconds (Histogram): Issue-to-response time
//   - bookscout_engine_page_requests_total{result} (Counter): Navigation requests (issued, pending, ignored)
//   - bookscout_engine_query_changes_total{kind} (Counter): Applied query changes (search, idle)
//
// Page Cache Metrics (pkg/pagecache):
//   - bookscout_page_cache_hits_total, bookscout_page_cache_misses_total (Counter)
//   - bookscout_page_cache_evictions_total (Counter): Pages dropped outside the window
//   - bookscout_page_cache_resets_total (Counter): Cache clears on query change
//
// Navigation State Metrics (pkg/navstate):
//   - bookscout_navstate_writes_total{result} (Counter): Writes (ok, error, superseded)
//   - bookscout_navstate_restores_total{result} (Counter): Restores (ok, empty, error)
//
// Shelf Metrics (pkg/browse, pkg/shelf):
//   - bookscout_browse_loads_total{result} (Counter): Curated shelf loads (cached, ok, partial, error)
//   - bookscout_shelf_operations_total{backend, operation, result} (Counter): Personal shelf store operations
//   - bookscout_shelf_unresolved_total (Counter): Saved ids the catalog could not resolve
//
// Example Prometheus Queries:
//
//   # Stale response share
//   sum(rate(bookscout_engine_fetches_total{outcome="stale"}[5m])) /
//   sum(rate(bookscout_engine_fetches_total[5m]))
//
//   # Page cache hit rate
//   rate(bookscout_page_cache_hits_total[5m]) /
//   (rate(bookscout_page_cache_hits_total[5m]) + rate(bookscout_page_cache_misses_total[5m]))
//
//   # P95 catalog latency
//   histogram_quantile(0.95, rate(bookscout_catalog_request_duration_seconds_bucket[5m]))
//
//   # Currently backing off
//   bookscout_ratelimit_blocked_seconds > 0
