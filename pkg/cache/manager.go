package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Config holds cache manager configuration.
type Config struct {
	// DefaultTTL is the lifetime of responses without freshness headers.
	DefaultTTL time.Duration

	// StaleTTL is how long an expired entry is kept for revalidation.
	StaleTTL time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		DefaultTTL: time.Hour,
		StaleTTL:   24 * time.Hour,
	}
}

// Manager stores catalog responses in Redis.
type Manager struct {
	redis  *redis.Client
	config Config
}

// NewManager creates a cache manager.
func NewManager(redisClient *redis.Client, cfg Config) (*Manager, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.DefaultTTL <= 0 {
		return nil, fmt.Errorf("default_ttl must be > 0 (got %s)", cfg.DefaultTTL)
	}
	if cfg.StaleTTL < 0 {
		return nil, fmt.Errorf("stale_ttl must be >= 0 (got %s)", cfg.StaleTTL)
	}
	return &Manager{redis: redisClient, config: cfg}, nil
}

// DefaultTTL returns the lifetime for responses without freshness headers.
func (m *Manager) DefaultTTL() time.Duration {
	return m.config.DefaultTTL
}

// Get returns the entry for key. Expired entries within the stale grace
// period are returned too; callers check IsExpired. Returns ErrCacheMiss if
// nothing is stored.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			cacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		_ = m.Delete(ctx, key)
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		cacheHits.WithLabelValues("stale").Inc()
	} else {
		cacheHits.WithLabelValues("fresh").Inc()
	}
	return &entry, nil
}

// Set stores entry. The Redis key lives for the entry's freshness plus the
// stale grace period. Entries that are already expired and carry no
// validator are not stored.
func (m *Manager) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	keep := entry.TTL()
	if entry.CanRevalidate() {
		keep += m.config.StaleTTL
	}
	if keep <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := m.redis.Set(ctx, key.String(), data, keep).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Revalidated records a 304 answer for entry: its expiry is recomputed from
// the new response headers and it is stored again.
func (m *Manager) Revalidated(ctx context.Context, key Key, entry *Entry, expires time.Time) error {
	cacheRevalidations.Inc()
	entry.Expires = expires
	return m.Set(ctx, key, entry)
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
