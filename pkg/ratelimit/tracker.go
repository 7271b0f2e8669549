package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	quotaBlockedSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookscout_ratelimit_blocked_seconds",
		Help: "Seconds remaining in the current catalog back-off window",
	})

	quotaBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookscout_ratelimit_blocks_total",
		Help: "Total number of catalog requests refused during a back-off window",
	})

	quotaThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookscout_ratelimit_throttles_total",
		Help: "Total number of 429 responses received from the catalog",
	})
)

// Tracker monitors the catalog quota and gates requests.
// With a nil Redis client the state is kept in process memory.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	local QuotaState
}

// NewTracker creates a new quota tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
		now:    time.Now,
	}
}

// GetState retrieves the current quota state.
// Returns an unblocked state if nothing has been recorded yet.
func (t *Tracker) GetState(ctx context.Context) (*QuotaState, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		state := t.local
		return &state, nil
	}

	blockedUnix, err := t.redis.Get(ctx, RedisKeyBlockedUntil).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get blocked until: %w", err)
	}

	throttles, err := t.redis.Get(ctx, RedisKeyThrottles).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get throttles: %w", err)
	}

	lastUpdateUnix, err := t.redis.Get(ctx, RedisKeyLastUpdate).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	state := &QuotaState{Throttles: throttles}
	if blockedUnix > 0 {
		state.BlockedUntil = time.UnixMilli(blockedUnix)
	}
	if lastUpdateUnix > 0 {
		state.LastUpdate = time.UnixMilli(lastUpdateUnix)
	}
	return state, nil
}

// RecordThrottle opens a back-off window after a 429 response. The window
// length comes from the Retry-After header (seconds or HTTP date) and falls
// back to DefaultBackoff.
func (t *Tracker) RecordThrottle(ctx context.Context, headers http.Header) error {
	now := t.now()
	backoff := parseRetryAfter(headers.Get("Retry-After"), now)
	blockedUntil := now.Add(backoff)

	quotaThrottlesTotal.Inc()
	quotaBlockedSeconds.Set(backoff.Seconds())

	if t.redis == nil {
		t.mu.Lock()
		if blockedUntil.After(t.local.BlockedUntil) {
			t.local.BlockedUntil = blockedUntil
		}
		t.local.Throttles++
		t.local.LastUpdate = now
		t.mu.Unlock()
	} else {
		pipe := t.redis.TxPipeline()
		pipe.Set(ctx, RedisKeyBlockedUntil, blockedUntil.UnixMilli(), backoff)
		pipe.Incr(ctx, RedisKeyThrottles)
		pipe.Set(ctx, RedisKeyLastUpdate, now.UnixMilli(), 0)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("store quota state in redis: %w", err)
		}
	}

	t.logger.Warn().
		Dur("backoff", backoff).
		Time("blocked_until", blockedUntil).
		Msg("Catalog quota exceeded - backing off")

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now. When the
// back-off window is open it returns false and the remaining wait.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, time.Duration, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("get quota state: %w", err)
	}

	now := t.now()
	if state.IsBlocked(now) {
		wait := state.TimeUntilUnblocked(now)
		t.logger.Debug().
			Dur("wait_duration", wait).
			Msg("Catalog back-off active - refusing request")
		quotaBlocksTotal.Inc()
		quotaBlockedSeconds.Set(wait.Seconds())
		return false, wait, nil
	}

	quotaBlockedSeconds.Set(0)
	return true, 0, nil
}

// Reset clears the recorded quota state.
func (t *Tracker) Reset(ctx context.Context) error {
	if t.redis == nil {
		t.mu.Lock()
		t.local = QuotaState{}
		t.mu.Unlock()
		return nil
	}
	if err := t.redis.Del(ctx, RedisKeyBlockedUntil, RedisKeyThrottles, RedisKeyLastUpdate).Err(); err != nil {
		return fmt.Errorf("reset quota state: %w", err)
	}
	return nil
}

func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return DefaultBackoff
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return DefaultBackoff
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return DefaultBackoff
}
