// Package ratelimit tracks the catalog provider's request quota.
// When the provider answers 429 Too Many Requests it records a back-off
// window derived from the Retry-After header; while the window is open the
// catalog client fails fast instead of spending more of the quota.
package ratelimit

import (
	"time"
)

// Redis keys for quota state storage.
const (
	RedisKeyBlockedUntil = "bookscout:ratelimit:blocked_until"
	RedisKeyThrottles    = "bookscout:ratelimit:throttles"
	RedisKeyLastUpdate   = "bookscout:ratelimit:last_update"
)

// DefaultBackoff is the back-off window used when a 429 response carries no
// usable Retry-After header.
const DefaultBackoff = 60 * time.Second

// QuotaState represents the current catalog quota state.
// With a Redis backend it is shared by every process using the same keys.
type QuotaState struct {
	// BlockedUntil is the end of the current back-off window.
	// Zero when no 429 has been observed.
	BlockedUntil time.Time `json:"blocked_until"`

	// Throttles counts 429 responses recorded since the state was created.
	Throttles int `json:"throttles"`

	// LastUpdate is the timestamp when this state was last updated.
	LastUpdate time.Time `json:"last_update"`
}

// IsBlocked reports whether the back-off window is still open at now.
func (s *QuotaState) IsBlocked(now time.Time) bool {
	return now.Before(s.BlockedUntil)
}

// TimeUntilUnblocked returns the remaining back-off duration.
// Returns 0 if the window has already closed.
func (s *QuotaState) TimeUntilUnblocked(now time.Time) time.Duration {
	d := s.BlockedUntil.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// IsStale returns true if the state data is older than the given duration.
func (s *QuotaState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}
