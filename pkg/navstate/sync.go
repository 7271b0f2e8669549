package navstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Sternrassler/book-search-client/pkg/logging"
	"github.com/rs/zerolog"
)

// SyncConfig holds Sync configuration.
type SyncConfig struct {
	// WriteTimeout bounds a single store write.
	WriteTimeout time.Duration

	// RestoreTimeout bounds the restore read.
	RestoreTimeout time.Duration
}

// DefaultSyncConfig returns the default Sync configuration.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		WriteTimeout:   2 * time.Second,
		RestoreTimeout: 2 * time.Second,
	}
}

// Sync is a fire-and-forget writer in front of a Store. Publish never
// blocks: it fills a single pending slot that a background goroutine
// drains, so a slow store only ever sees the latest state. Store failures
// are logged and counted, never returned.
type Sync struct {
	store  Store
	config SyncConfig
	logger zerolog.Logger

	mu      sync.Mutex
	pending *State
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewSync creates a Sync and starts its writer goroutine.
func NewSync(store Store, cfg SyncConfig) *Sync {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultSyncConfig().WriteTimeout
	}
	if cfg.RestoreTimeout <= 0 {
		cfg.RestoreTimeout = DefaultSyncConfig().RestoreTimeout
	}

	s := &Sync{
		store:  store,
		config: cfg,
		logger: logging.NewLogger("navstate"),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.loop()
	return s
}

// Restore reads the stored state, falling back to Default on any error.
func (s *Sync) Restore(ctx context.Context) State {
	ctx, cancel := context.WithTimeout(ctx, s.config.RestoreTimeout)
	defer cancel()

	state, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoState):
		navRestoresTotal.WithLabelValues("empty").Inc()
		return Default()
	case err != nil:
		navRestoresTotal.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Msg("Navigation state restore failed - using defaults")
		return Default()
	}

	navRestoresTotal.WithLabelValues("ok").Inc()
	state = state.Normalize()
	s.logger.Debug().Str("query", state.Query).Int("page", state.Page).Msg("Navigation state restored")
	return state
}

// Publish schedules state to be written. A state still waiting in the slot
// is replaced.
func (s *Sync) Publish(state State) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.pending != nil {
		navWritesTotal.WithLabelValues("superseded").Inc()
	}
	st := state.Normalize()
	s.pending = &st
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Close writes any pending state and stops the writer goroutine.
func (s *Sync) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return nil
}

func (s *Sync) loop() {
	defer close(s.done)

	for {
		select {
		case <-s.wake:
			s.flush()
		case <-s.stop:
			s.flush()
			return
		}
	}
}

func (s *Sync) flush() {
	s.mu.Lock()
	state := s.pending
	s.pending = nil
	s.mu.Unlock()

	if state == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
	defer cancel()

	if err := s.store.Save(ctx, *state); err != nil {
		navWritesTotal.WithLabelValues("error").Inc()
		s.logger.Warn().
			Err(err).
			Str("query", state.Query).
			Int("page", state.Page).
			Msg("Navigation state write failed")
		return
	}
	navWritesTotal.WithLabelValues("ok").Inc()
}
