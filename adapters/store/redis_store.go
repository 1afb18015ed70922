package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of the SessionStore interface.
// Each session is one hash.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client redis.UniversalClient) ports.SessionStore {
	return &RedisStore{
		client: client,
		prefix: "learnchain:session:",
	}
}

// Set merges fields into the session hash and refreshes its expiry
func (s *RedisStore) Set(ctx context.Context, sessionID string, fields map[string]string, ttl time.Duration) error {
	key := s.prefix + sessionID

	values := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		values = append(values, k, v)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.HSet(ctx, key, values...)
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		} else {
			pipe.Persist(ctx, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// Get returns one field of the session hash
func (s *RedisStore) Get(ctx context.Context, sessionID, field string) (string, error) {
	value, err := s.client.HGet(ctx, s.prefix+sessionID, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", core.ErrSessionNotFound
		}
		return "", fmt.Errorf("failed to read session field: %w", err)
	}
	return value, nil
}

// GetAll returns the whole session hash
func (s *RedisStore) GetAll(ctx context.Context, sessionID string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, s.prefix+sessionID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(fields) == 0 {
		return nil, core.ErrSessionNotFound
	}
	return fields, nil
}

// Clear deletes the session hash
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.prefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
