// Package catalog provides the remote book catalog client with quota
// tracking, retry and error classification.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/book-search-client/pkg/cache"
	"github.com/Sternrassler/book-search-client/pkg/logging"
	"github.com/Sternrassler/book-search-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for catalog operations.
var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_catalog_requests_total",
		Help: "Total catalog requests by operation and status",
	}, []string{"operation", "status"})

	catalogRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookscout_catalog_request_duration_seconds",
		Help:    "Catalog request duration in seconds by operation",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"operation"})

	catalogErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_catalog_errors_total",
		Help: "Total catalog errors by class",
	}, []string{"class"})
)

// maxBodySize bounds how much of a catalog response is read.
const maxBodySize = 8 << 20

// Client is the remote catalog client.
type Client struct {
	httpClient  *http.Client
	provider    provider
	baseURL     string
	rateLimiter *ratelimit.Tracker
	lookupCache *cache.Manager
	retry       RetryConfig
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Provider selects the catalog API ("googlebooks" or "openlibrary").
	Provider string

	// BaseURL overrides the provider's API root (tests, proxies).
	BaseURL string

	// APIKey is sent to providers that accept one.
	APIKey string

	// User-Agent header
	UserAgent string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration

	// RateLimiter gates requests during a quota back-off window. Optional.
	RateLimiter *ratelimit.Tracker

	// LookupCache keeps volume lookups in Redis. Optional. Searches are
	// never cached.
	LookupCache *cache.Manager

	// HTTPClient replaces the default client. Optional.
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		Provider:       ProviderGoogleBooks,
		UserAgent:      "bookscout/0.1.0",
		Timeout:        30 * time.Second,
		MaxRetries:     0,
		InitialBackoff: 500 * time.Millisecond,
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	p, err := newProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = p.defaultBaseURL()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	retry := DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxRetries + 1
	if cfg.InitialBackoff > 0 {
		retry.InitialBackoff = cfg.InitialBackoff
	}

	return &Client{
		httpClient:  httpClient,
		provider:    p,
		baseURL:     baseURL,
		rateLimiter: cfg.RateLimiter,
		lookupCache: cfg.LookupCache,
		retry:       retry,
		config:      cfg,
		logger:      logging.NewLogger("catalog").With().Str("provider", p.name()).Logger(),
	}, nil
}

// Provider returns the configured provider name.
func (c *Client) Provider() string {
	return c.provider.name()
}

// Search returns up to limit items for query starting at offset, in the
// provider's relevance order.
func (c *Client) Search(ctx context.Context, query string, offset, limit int) ([]Item, error) {
	if offset < 0 {
		return nil, fmt.Errorf("offset must be >= 0 (got %d)", offset)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0 (got %d)", limit)
	}

	resp, err := c.get(ctx, "search", c.provider.searchPath(query, offset, limit, c.config.APIKey), nil)
	if err != nil {
		return nil, err
	}

	items, err := c.provider.decodeSearch(resp.body, offset)
	if err != nil {
		catalogErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &CatalogError{StatusCode: http.StatusOK, ErrorClass: ErrorClassDecode, Message: "decode search response", Err: err}
	}

	c.logger.Debug().
		Str("query", query).
		Int("offset", offset).
		Int("items", len(items)).
		Msg("Catalog search complete")

	return items, nil
}

// Lookup returns the item with the given catalog id.
func (c *Client) Lookup(ctx context.Context, id string) (Item, error) {
	if id == "" {
		return Item{}, fmt.Errorf("id is required")
	}

	body, err := c.lookupBody(ctx, id)
	if err != nil {
		var ce *CatalogError
		if errors.As(err, &ce) && ce.StatusCode == http.StatusNotFound {
			return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Item{}, err
	}

	item, err := c.provider.decodeLookup(body)
	if err != nil {
		catalogErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return Item{}, &CatalogError{StatusCode: http.StatusOK, ErrorClass: ErrorClassDecode, Message: "decode lookup response", Err: err}
	}
	if item.ID == "" {
		item.ID = id
	}
	return item, nil
}

// lookupBody returns the raw volume response for id, through the lookup
// cache when one is configured. Cache failures fall back to the catalog.
func (c *Client) lookupBody(ctx context.Context, id string) ([]byte, error) {
	path := c.provider.lookupPath(id, c.config.APIKey)
	if c.lookupCache == nil {
		resp, err := c.get(ctx, "lookup", path, nil)
		if err != nil {
			return nil, err
		}
		return resp.body, nil
	}

	key := cache.VolumeKey(c.provider.name(), id)
	entry, err := c.lookupCache.Get(ctx, key)
	switch {
	case err == nil && !entry.IsExpired():
		c.logger.Debug().Str("key", key.String()).Msg("Lookup cache hit")
		return entry.Data, nil
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("Lookup cache read failed")
		entry = nil
	}

	resp, err := c.get(ctx, "lookup", path, cache.ConditionalHeaders(entry))
	if err != nil {
		return nil, err
	}

	if resp.status == http.StatusNotModified && entry != nil {
		expires := cache.ExpiresAt(resp.header, time.Now(), c.lookupCache.DefaultTTL())
		if err := c.lookupCache.Revalidated(ctx, key, entry, expires); err != nil {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Lookup cache write failed")
		}
		c.logger.Debug().Str("key", key.String()).Msg("Lookup revalidated")
		return entry.Data, nil
	}

	if err := c.lookupCache.Set(ctx, key, cache.NewEntry(resp.header, resp.body, c.lookupCache.DefaultTTL())); err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("Lookup cache write failed")
	}
	return resp.body, nil
}

// response is a successful (< 400) catalog answer.
type response struct {
	status int
	header http.Header
	body   []byte
}

// get performs a GET against the provider with quota gating, retry and
// error classification. validators are added to the request for
// revalidation; a 304 answer is returned with an empty body.
func (c *Client) get(ctx context.Context, operation, path string, validators http.Header) (*response, error) {
	startTime := time.Now()
	defer func() {
		catalogRequestDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}()

	if c.rateLimiter != nil {
		allowed, wait, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			// Quota state unavailable: proceed rather than fail the search.
			c.logger.Warn().Err(err).Msg("Quota check failed")
		} else if !allowed {
			catalogRequestsTotal.WithLabelValues(operation, "rate_limited").Inc()
			catalogErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			return nil, &CatalogError{
				StatusCode: http.StatusTooManyRequests,
				ErrorClass: ErrorClassRateLimit,
				Message:    fmt.Sprintf("back-off active for %s", wait.Round(time.Second)),
				Err:        ErrRateLimited,
			}
		}
	}

	var out *response
	retryErr := retryWithBackoff(ctx, c.retry, c.logger, func() (ErrorClass, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return ErrorClassClient, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")
		for name, values := range validators {
			req.Header[name] = values
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			catalogErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			catalogRequestsTotal.WithLabelValues(operation, "network_error").Inc()
			return ErrorClassNetwork, &CatalogError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
		}
		defer resp.Body.Close()

		catalogRequestsTotal.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errClass := classifyStatus(resp.StatusCode)
			catalogErrorsTotal.WithLabelValues(string(errClass)).Inc()

			if resp.StatusCode == http.StatusTooManyRequests && c.rateLimiter != nil {
				if err := c.rateLimiter.RecordThrottle(ctx, resp.Header); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to record quota back-off")
				}
			}

			c.logger.Warn().
				Str("operation", operation).
				Int("status_code", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Catalog request error")

			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
			return errClass, &CatalogError{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Message:    resp.Status,
			}
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			catalogErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return ErrorClassNetwork, &CatalogError{StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Message: "read body", Err: err}
		}
		out = &response{status: resp.StatusCode, header: resp.Header, body: data}
		return "", nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return out, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
