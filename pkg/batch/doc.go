// Package batch runs keyed fetches in parallel on a bounded worker pool.
//
// It backs the two fan-out paths of the application: loading every curated
// shelf at once and resolving the catalog ids stored on a personal shelf.
//
// Example usage:
//
//	cfg := batch.DefaultConfig()
//	items, err := batch.FetchAll(ctx, cfg, ids, func(ctx context.Context, id string) (catalog.Item, error) {
//		return client.Lookup(ctx, id)
//	})
//
// FetchAll:
//   - Distributes keys across at most MaxConcurrency workers
//   - Bounds every fetch with Timeout
//   - Keeps going after a failed key and returns the partial results
//     together with an error naming how many keys failed
package batch
