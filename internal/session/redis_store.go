package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed session store. Records expire with
// their session through the key TTL.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "auth-client:session:",
	}
}

func (r *RedisStore) key(profile string) string {
	return r.prefix + profile
}

func (r *RedisStore) Save(ctx context.Context, s Record) error {
	if err := validate(s, time.Now()); err != nil {
		return err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	return r.client.Set(ctx, r.key(s.Profile), data, time.Until(s.ExpiresAt)).Err()
}

func (r *RedisStore) Get(ctx context.Context, profile string) (*Record, error) {
	val, err := r.client.Get(ctx, r.key(profile)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	var s Record
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}

	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, profile string) error {
	return r.client.Del(ctx, r.key(profile)).Err()
}
