package server

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/book-search-client/pkg/engine"
	"github.com/Sternrassler/book-search-client/pkg/navstate"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// session is one search engine bound to an address-bar location.
type session struct {
	id       string
	engine   *engine.Engine
	location *navstate.URLStore
	sync     *navstate.Sync
	created  time.Time
}

func (s *session) close() {
	s.engine.Close()
	_ = s.sync.Close()
}

// sessionRegistry holds live sessions in an expirable LRU. Sessions are
// closed when they expire, are evicted or are deleted.
type sessionRegistry struct {
	config   Config
	searcher engine.Searcher
	redis    *redis.Client
	sessions *expirable.LRU[string, *session]
	logger   zerolog.Logger

	// closing tracks sessions whose engines are shutting down.
	closing sync.WaitGroup
}

func newSessionRegistry(cfg Config, searcher engine.Searcher, redisClient *redis.Client, logger zerolog.Logger) *sessionRegistry {
	r := &sessionRegistry{
		config:   cfg,
		searcher: searcher,
		redis:    redisClient,
		logger:   logger,
	}
	r.sessions = expirable.NewLRU[string, *session](cfg.MaxSessions, r.onEvict, cfg.SessionTTL)
	return r
}

func (r *sessionRegistry) onEvict(id string, s *session) {
	r.logger.Debug().Str("session_id", id).Msg("Search session closed")
	// Runs under the LRU lock, so the engine is closed off to the side.
	r.closing.Add(1)
	go func() {
		defer r.closing.Done()
		s.close()
	}()
}

// create starts a session restored from the address-bar query rawQuery.
func (r *sessionRegistry) create(ctx context.Context, rawQuery string) (*session, error) {
	location, err := navstate.NewURLStore(rawQuery)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	stores := navstate.Tee{location}
	if r.redis != nil {
		stores = append(stores, navstate.NewRedisStore(r.redis, id, r.config.SessionTTL))
	}
	nav := navstate.NewSync(stores, navstate.DefaultSyncConfig())

	cfg := r.config.Engine
	cfg.Navigator = nav
	cfg.SessionID = id
	eng, err := engine.New(ctx, r.searcher, cfg)
	if err != nil {
		_ = nav.Close()
		return nil, err
	}

	s := &session{
		id:       id,
		engine:   eng,
		location: location,
		sync:     nav,
		created:  time.Now(),
	}
	r.sessions.Add(id, s)
	r.logger.Info().Str("session_id", id).Str("query", eng.View().Query).Msg("Search session created")
	return s, nil
}

// get returns a session and refreshes its idle timer.
func (r *sessionRegistry) get(id string) (*session, bool) {
	s, ok := r.sessions.Get(id)
	if !ok {
		return nil, false
	}
	r.sessions.Add(id, s)
	return s, true
}

func (r *sessionRegistry) remove(id string) bool {
	return r.sessions.Remove(id)
}

func (r *sessionRegistry) len() int {
	return r.sessions.Len()
}

func (r *sessionRegistry) closeAll() {
	r.sessions.Purge()
	r.closing.Wait()
}
