package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestCatalogError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CatalogError
		want string
	}{
		{
			name: "without wrapped error",
			err:  &CatalogError{StatusCode: 503, ErrorClass: ErrorClassServer, Message: "503 Service Unavailable"},
			want: "catalog server error (status 503): 503 Service Unavailable",
		},
		{
			name: "with wrapped error",
			err:  &CatalogError{StatusCode: 429, ErrorClass: ErrorClassRateLimit, Message: "back-off active for 30s", Err: ErrRateLimited},
			want: "catalog rate_limit error (status 429): back-off active for 30s: catalog rate limited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCatalogError_Unwrap(t *testing.T) {
	err := fmt.Errorf("search page 3: %w", &CatalogError{ErrorClass: ErrorClassRateLimit, Err: ErrRateLimited})

	if !errors.Is(err, ErrRateLimited) {
		t.Error("errors.Is should find ErrRateLimited")
	}
	if ClassOf(err) != ErrorClassRateLimit {
		t.Errorf("ClassOf() = %q, want rate_limit", ClassOf(err))
	}
	if ClassOf(errors.New("plain")) != "" {
		t.Error("ClassOf(plain error) should be empty")
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{200, ""},
		{304, ""},
		{400, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  bool
	}{
		{ErrorClassClient, false},
		{ErrorClassDecode, false},
		{ErrorClassServer, true},
		{ErrorClassRateLimit, true},
		{ErrorClassNetwork, true},
		{"", false},
	}

	for _, tt := range tests {
		if got := shouldRetry(tt.class); got != tt.want {
			t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestRetryWithBackoff_ClientErrorNotRetried(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 2}

	calls := 0
	err := retryWithBackoff(context.Background(), cfg, zerolog.Nop(), func() (ErrorClass, error) {
		calls++
		return ErrorClassClient, errors.New("bad request")
	})

	if err == nil || calls != 1 {
		t.Errorf("calls = %d, err = %v; want one call and an error", calls, err)
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("client errors must be returned as-is")
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 5, InitialBackoff: time.Second, MaxBackoff: time.Second, BackoffMultiplier: 2}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- retryWithBackoff(ctx, cfg, zerolog.Nop(), func() (ErrorClass, error) {
			calls++
			return ErrorClassServer, errors.New("unavailable")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrContextCancelled) {
			t.Errorf("expected ErrContextCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not stop on cancellation")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoff_SingleAttemptReturnsErrorUnwrapped(t *testing.T) {
	want := &CatalogError{StatusCode: 502, ErrorClass: ErrorClassServer}

	err := retryWithBackoff(context.Background(), DefaultRetryConfig(), zerolog.Nop(), func() (ErrorClass, error) {
		return ErrorClassServer, want
	})

	if err != want {
		t.Errorf("err = %v, want the original error", err)
	}
}
