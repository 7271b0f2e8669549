package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newLocalTracker(now time.Time) *Tracker {
	tracker := NewTracker(nil, zerolog.Nop())
	tracker.now = func() time.Time { return now }
	return tracker
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"missing header", "", DefaultBackoff},
		{"seconds", "30", 30 * time.Second},
		{"zero seconds", "0", DefaultBackoff},
		{"garbage", "soon", DefaultBackoff},
		{"http date", now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{"http date in the past", now.Add(-time.Minute).Format(http.TimeFormat), DefaultBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.value, now); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestTracker_LocalBackoffWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	tracker := newLocalTracker(now)

	allowed, wait, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest: %v", err)
	}
	if !allowed || wait != 0 {
		t.Fatalf("fresh tracker should allow requests, got allowed=%v wait=%v", allowed, wait)
	}

	headers := http.Header{}
	headers.Set("Retry-After", "20")
	if err := tracker.RecordThrottle(ctx, headers); err != nil {
		t.Fatalf("RecordThrottle: %v", err)
	}

	allowed, wait, err = tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest: %v", err)
	}
	if allowed {
		t.Error("request should be refused inside the back-off window")
	}
	if wait != 20*time.Second {
		t.Errorf("wait = %v, want 20s", wait)
	}

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Throttles != 1 {
		t.Errorf("Throttles = %d, want 1", state.Throttles)
	}

	// Window elapses.
	tracker.now = func() time.Time { return now.Add(21 * time.Second) }
	allowed, _, err = tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest: %v", err)
	}
	if !allowed {
		t.Error("request should be allowed once the window has closed")
	}
}

func TestTracker_ShorterRetryAfterDoesNotShrinkWindow(t *testing.T) {
	ctx := context.Background()
	tracker := newLocalTracker(time.Now())

	long := http.Header{}
	long.Set("Retry-After", "120")
	short := http.Header{}
	short.Set("Retry-After", "5")

	if err := tracker.RecordThrottle(ctx, long); err != nil {
		t.Fatal(err)
	}
	if err := tracker.RecordThrottle(ctx, short); err != nil {
		t.Fatal(err)
	}

	_, wait, _ := tracker.ShouldAllowRequest(ctx)
	if wait != 120*time.Second {
		t.Errorf("wait = %v, want 120s", wait)
	}
}

func TestTracker_Reset(t *testing.T) {
	ctx := context.Background()
	tracker := newLocalTracker(time.Now())

	if err := tracker.RecordThrottle(ctx, http.Header{}); err != nil {
		t.Fatal(err)
	}
	if err := tracker.Reset(ctx); err != nil {
		t.Fatal(err)
	}

	allowed, _, _ := tracker.ShouldAllowRequest(ctx)
	if !allowed {
		t.Error("reset tracker should allow requests")
	}
}

func TestTracker_RedisSharedState(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	client.FlushDB(ctx)
	defer client.FlushDB(ctx)

	first := NewTracker(client, zerolog.Nop())
	second := NewTracker(client, zerolog.Nop())

	headers := http.Header{}
	headers.Set("Retry-After", "10")
	if err := first.RecordThrottle(ctx, headers); err != nil {
		t.Fatalf("RecordThrottle: %v", err)
	}

	allowed, wait, err := second.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest: %v", err)
	}
	if allowed {
		t.Error("second tracker should see the shared back-off window")
	}
	if wait <= 0 || wait > 10*time.Second {
		t.Errorf("wait = %v, want (0, 10s]", wait)
	}
}
