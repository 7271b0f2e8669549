package navstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix prefixes every navigation state key.
const RedisKeyPrefix = "bookscout:navstate:"

// RedisStore keeps the navigation state of one namespace (typically a
// search session) in Redis.
type RedisStore struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

// NewRedisStore creates a store for namespace. A zero ttl keeps the key
// forever.
func NewRedisStore(redisClient *redis.Client, namespace string, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
		key:   RedisKeyPrefix + namespace,
		ttl:   ttl,
	}
}

// Key returns the Redis key used by the store.
func (s *RedisStore) Key() string {
	return s.key
}

// Load reads the saved state. Returns ErrNoState if the key does not exist.
func (s *RedisStore) Load(ctx context.Context) (State, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Default(), ErrNoState
		}
		return Default(), fmt.Errorf("redis get: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return Default(), fmt.Errorf("decode navigation state: %w", err)
	}
	return state.Normalize(), nil
}

// Save stores state, refreshing the TTL.
func (s *RedisStore) Save(ctx context.Context, state State) error {
	data, err := json.Marshal(state.Normalize())
	if err != nil {
		return fmt.Errorf("encode navigation state: %w", err)
	}
	if err := s.redis.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the saved state.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
