package ratelimit

import (
	"testing"
	"time"
)

func TestQuotaState_IsBlocked(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		state    QuotaState
		expected bool
		wait     time.Duration
	}{
		{
			name:     "never throttled",
			state:    QuotaState{},
			expected: false,
			wait:     0,
		},
		{
			name:     "window open",
			state:    QuotaState{BlockedUntil: now.Add(30 * time.Second)},
			expected: true,
			wait:     30 * time.Second,
		},
		{
			name:     "window closed",
			state:    QuotaState{BlockedUntil: now.Add(-time.Second)},
			expected: false,
			wait:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsBlocked(now); got != tt.expected {
				t.Errorf("IsBlocked() = %v, want %v", got, tt.expected)
			}
			if got := tt.state.TimeUntilUnblocked(now); got != tt.wait {
				t.Errorf("TimeUntilUnblocked() = %v, want %v", got, tt.wait)
			}
		})
	}
}

func TestQuotaState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    QuotaState
		maxAge   time.Duration
		expected bool
	}{
		{"fresh state", QuotaState{LastUpdate: time.Now()}, 5 * time.Minute, false},
		{"stale state", QuotaState{LastUpdate: time.Now().Add(-10 * time.Minute)}, 5 * time.Minute, true},
		{"just under max age", QuotaState{LastUpdate: time.Now().Add(-4 * time.Minute)}, 5 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsStale(tt.maxAge); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}
}
