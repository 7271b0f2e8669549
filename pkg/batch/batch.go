package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/book-search-client/pkg/logging"
)

// Config holds worker pool configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel fetches
	MaxConcurrency int
	// Timeout per fetch
	Timeout time.Duration
}

// DefaultConfig returns the default worker pool configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 8,
		Timeout:        15 * time.Second,
	}
}

// Result is the outcome of fetching one key
type Result[K comparable, V any] struct {
	Key   K
	Value V
	Err   error
}

// FetchAll fetches every key in parallel and returns key -> value for the
// keys that succeeded. If any key failed, the partial map is returned with
// an error joining the individual failures.
func FetchAll[K comparable, V any](ctx context.Context, cfg Config, keys []K, fetch func(ctx context.Context, key K) (V, error)) (map[K]V, error) {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	logger := logging.NewLogger("batch")
	start := time.Now()
	values := make(map[K]V, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	queue := make(chan K, len(keys))
	for _, k := range keys {
		queue <- k
	}
	close(queue)

	results := make(chan Result[K, V], len(keys))

	workers := min(cfg.MaxConcurrency, len(keys))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker(ctx, cfg, fetch, queue, results, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var errs []error
	for r := range results {
		if r.Err != nil {
			logger.Warn().
				Err(r.Err).
				Str("key", fmt.Sprint(r.Key)).
				Msg("Batch fetch failed")
			errs = append(errs, fmt.Errorf("%v: %w", r.Key, r.Err))
			continue
		}
		values[r.Key] = r.Value
	}

	if len(errs) == 0 && len(values) < len(keys) {
		// Workers stopped early on cancellation.
		errs = append(errs, ctx.Err())
	}

	if len(errs) > 0 {
		logger.Warn().
			Int("fetched", len(values)).
			Int("total", len(keys)).
			Dur("duration", time.Since(start)).
			Msg("Batch incomplete - returning partial results")
		return values, fmt.Errorf("batch incomplete (partial data: %d/%d): %w", len(values), len(keys), errors.Join(errs...))
	}

	logger.Debug().
		Int("fetched", len(values)).
		Dur("duration", time.Since(start)).
		Msg("Batch complete")
	return values, nil
}

// worker processes keys from the queue until it is drained or ctx is done
func worker[K comparable, V any](ctx context.Context, cfg Config, fetch func(context.Context, K) (V, error), queue <-chan K, results chan<- Result[K, V], wg *sync.WaitGroup) {
	defer wg.Done()

	for key := range queue {
		if ctx.Err() != nil {
			return
		}

		fetchCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		v, err := fetch(fetchCtx, key)
		cancel()

		// results is buffered for every key, so this never blocks.
		results <- Result[K, V]{Key: key, Value: v, Err: err}
	}
}
