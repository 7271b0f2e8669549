//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

// Two processes sharing Redis see the same back-off window: a 429 seen by
// the server also pauses a CLI search.
func TestTracker_Integration_SharedWindow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()
	ctx := context.Background()

	serverSide := NewTracker(redisClient, zerolog.Nop())
	cliSide := NewTracker(redisClient, zerolog.Nop())

	headers := http.Header{}
	headers.Set("Retry-After", "1")
	if err := serverSide.RecordThrottle(ctx, headers); err != nil {
		t.Fatalf("RecordThrottle() error = %v", err)
	}

	allowed, wait, err := cliSide.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Fatal("second tracker should see the back-off window")
	}
	if wait <= 0 || wait > time.Second {
		t.Errorf("wait = %v, want (0, 1s]", wait)
	}

	// The blocked_until key carries the window as its TTL.
	time.Sleep(1200 * time.Millisecond)

	for name, tr := range map[string]*Tracker{"server": serverSide, "cli": cliSide} {
		allowed, _, err := tr.ShouldAllowRequest(ctx)
		if err != nil {
			t.Fatalf("%s: ShouldAllowRequest() error = %v", name, err)
		}
		if !allowed {
			t.Errorf("%s: request should be allowed after the window expired", name)
		}
	}

	state, err := cliSide.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Throttles != 1 || state.LastUpdate.IsZero() {
		t.Errorf("state = %+v, want one recorded throttle", state)
	}
}

// A longer window recorded later extends the shared block; throttles add up.
func TestTracker_Integration_RepeatedThrottles(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()
	ctx := context.Background()

	a := NewTracker(redisClient, zerolog.Nop())
	b := NewTracker(redisClient, zerolog.Nop())

	short := http.Header{}
	short.Set("Retry-After", "1")
	long := http.Header{}
	long.Set("Retry-After", "30")

	if err := a.RecordThrottle(ctx, short); err != nil {
		t.Fatal(err)
	}
	if err := b.RecordThrottle(ctx, long); err != nil {
		t.Fatal(err)
	}

	state, err := a.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Throttles != 2 {
		t.Errorf("Throttles = %d, want 2", state.Throttles)
	}
	if d := time.Until(state.BlockedUntil); d < 20*time.Second {
		t.Errorf("blocked for %v, want about 30s", d)
	}

	if err := a.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	n, err := redisClient.Exists(ctx, RedisKeyBlockedUntil, RedisKeyThrottles, RedisKeyLastUpdate).Result()
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if n != 0 {
		t.Errorf("expected all quota keys deleted, %d remain", n)
	}
	if allowed, _, _ := b.ShouldAllowRequest(ctx); !allowed {
		t.Error("request should be allowed after Reset")
	}
}
