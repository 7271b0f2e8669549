// Package cache keeps catalog volume responses in Redis.
//
// Only item lookups are cached. Search pages are never served from here:
// the search engine keeps its own query-scoped page cache and always asks
// the catalog again when a query becomes active.
//
// Entries carry the response validators (ETag, Last-Modified) and an expiry
// derived from Cache-Control max-age or Expires. Expired entries are kept
// for a grace period so the catalog client can revalidate them with a
// conditional request instead of downloading the volume again.
//
// # Basic Usage
//
//	manager, err := cache.NewManager(redisClient, cache.DefaultConfig())
//
//	key := cache.VolumeKey("googlebooks", "zyTCAlFPjgYC")
//	entry, err := manager.Get(ctx, key)
//	switch {
//	case errors.Is(err, cache.ErrCacheMiss):
//		// fetch
//	case entry.IsExpired():
//		req.Header = cache.ConditionalHeaders(entry)
//	default:
//		return entry.Data
//	}
//
// # Metrics
//
//   - bookscout_catalog_cache_hits_total{state} - fresh or stale hits
//   - bookscout_catalog_cache_misses_total - misses
//   - bookscout_catalog_cache_revalidations_total - 304 Not Modified answers
//   - bookscout_catalog_cache_errors_total{operation} - Redis failures
package cache
