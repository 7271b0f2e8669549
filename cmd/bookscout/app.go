package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/book-search-client/internal/auth"
	"github.com/Sternrassler/book-search-client/internal/config"
	"github.com/Sternrassler/book-search-client/pkg/batch"
	"github.com/Sternrassler/book-search-client/pkg/browse"
	"github.com/Sternrassler/book-search-client/pkg/cache"
	"github.com/Sternrassler/book-search-client/pkg/catalog"
	"github.com/Sternrassler/book-search-client/pkg/engine"
	"github.com/Sternrassler/book-search-client/pkg/logging"
	"github.com/Sternrassler/book-search-client/pkg/ratelimit"
	"github.com/Sternrassler/book-search-client/pkg/shelf"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const connectTimeout = 5 * time.Second

// app holds the collaborators built from the configuration.
type app struct {
	cfg     *config.Config
	redis   *redis.Client
	catalog *catalog.Client
	logger  zerolog.Logger
	closers []func()
}

// newApp connects Redis (when configured) and builds the catalog client.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logging.NewLogger("bookscout"),
	}

	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		return nil, err
	}
	if redisOpts != nil {
		a.redis = redis.NewClient(redisOpts)
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", redisOpts.Addr, err)
		}
		a.logger.Info().Str("addr", redisOpts.Addr).Msg("Connected to Redis")
		a.closers = append(a.closers, func() { a.redis.Close() })
	}

	var lookupCache *cache.Manager
	if a.redis != nil {
		if lookupCache, err = cache.NewManager(a.redis, cache.DefaultConfig()); err != nil {
			a.Close()
			return nil, err
		}
	}

	client, err := catalog.New(catalog.Config{
		Provider:       cfg.Catalog.Provider,
		BaseURL:        cfg.Catalog.BaseURL,
		APIKey:         cfg.Catalog.APIKey,
		UserAgent:      cfg.Catalog.UserAgent,
		Timeout:        cfg.Catalog.Timeout,
		MaxRetries:     cfg.Catalog.MaxRetries,
		InitialBackoff: catalog.DefaultConfig().InitialBackoff,
		RateLimiter:    ratelimit.NewTracker(a.redis, logging.NewLogger("ratelimit")),
		LookupCache:    lookupCache,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	a.catalog = client

	return a, nil
}

func (a *app) engineConfig() engine.Config {
	return engine.Config{
		PageSize:      a.cfg.Search.PageSize,
		QuietInterval: a.cfg.Search.QuietInterval,
		FetchTimeout:  a.cfg.Catalog.Timeout,
	}
}

func (a *app) shelves() (*browse.Service, error) {
	return browse.New(a.catalog, browse.Config{
		ShelfSize: a.cfg.Browse.ShelfSize,
		TTL:       a.cfg.Browse.TTL,
		Batch:     batch.DefaultConfig(),
	})
}

// library opens the configured personal shelf backend.
func (a *app) library(ctx context.Context) (shelf.Store, error) {
	switch a.cfg.Shelf.Backend {
	case config.ShelfBackendRedis:
		if a.redis == nil {
			return nil, fmt.Errorf("shelf backend %q requires redis", a.cfg.Shelf.Backend)
		}
		return shelf.NewRedisStore(a.redis), nil
	case config.ShelfBackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		store, err := shelf.ConnectMongo(connectCtx, a.cfg.Mongo.URI, a.cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to disconnect from MongoDB")
			}
		})
		a.logger.Info().Str("database", a.cfg.Mongo.Database).Msg("Connected to MongoDB")
		return store, nil
	default:
		return shelf.NewMemoryStore(), nil
	}
}

// verifier returns nil when no JWT secret is configured, which leaves the
// library endpoints disabled.
func (a *app) verifier() (*auth.Verifier, error) {
	if a.cfg.Auth.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewVerifier(a.cfg.Auth.JWTSecret)
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
