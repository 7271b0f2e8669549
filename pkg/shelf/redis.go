package shelf

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/book-search-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore keeps each user's shelf in a hash keyed by catalog id:
// bookscout:users:{uid}:library
type RedisStore struct {
	redis  *redis.Client
	logger zerolog.Logger
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed shelf store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis:  redisClient,
		logger: logging.NewLogger("shelf"),
		now:    time.Now,
	}
}

// LibraryKey returns the hash key holding userID's shelf.
func LibraryKey(userID string) string {
	return fmt.Sprintf("bookscout:users:%s:library", userID)
}

func (s *RedisStore) Add(ctx context.Context, userID string, entry Entry) (err error) {
	defer func() { record("redis", "add", err) }()

	entry, err = prepare(userID, entry, s.now())
	if err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode shelf entry: %w", err)
	}

	added, err := s.redis.HSetNX(ctx, LibraryKey(userID), entry.ID, data).Result()
	if err != nil {
		return fmt.Errorf("redis hsetnx: %w", err)
	}
	s.logger.Debug().
		Str("user_id", userID).
		Str("key", entry.ID).
		Bool("added", added).
		Msg("Shelf entry stored")
	return nil
}

func (s *RedisStore) List(ctx context.Context, userID string) (entries []Entry, err error) {
	defer func() { record("redis", "list", err) }()

	raw, err := s.redis.HGetAll(ctx, LibraryKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}

	entries = make([]Entry, 0, len(raw))
	for id, data := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Str("key", id).Msg("Skipping corrupt shelf entry")
			continue
		}
		e.ID = id
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}

func (s *RedisStore) Remove(ctx context.Context, userID, id string) (err error) {
	defer func() { record("redis", "remove", err) }()

	n, err := s.redis.HDel(ctx, LibraryKey(userID), id).Result()
	if err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
