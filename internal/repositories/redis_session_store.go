package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "vidrate:session:"

// RedisSessionStore keeps session values in Redis, namespaced by profile.
// A positive ttl makes every value expire after that long without a write.
type RedisSessionStore struct {
	rdb     redis.UniversalClient
	profile string
	ttl     time.Duration
}

// NewRedisSessionStore constructs a store on an existing client.
func NewRedisSessionStore(rdb redis.UniversalClient, profile string, ttl time.Duration) *RedisSessionStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisSessionStore{rdb: rdb, profile: profile, ttl: ttl}
}

// OpenRedis parses url and returns a connected client.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Get loads the value stored under key.
func (s *RedisSessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get session value: %w", err)
	}
	return value, true, nil
}

// Set stores value under key and records the key in the profile index.
func (s *RedisSessionStore) Set(ctx context.Context, key, value string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(key), value, s.ttl)
		pipe.SAdd(ctx, s.indexKey(), key)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.indexKey(), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set session value: %w", err)
	}
	return nil
}

// Clear removes every value of the profile.
func (s *RedisSessionStore) Clear(ctx context.Context) error {
	keys, err := s.rdb.SMembers(ctx, s.indexKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("list session keys: %w", err)
	}

	toDelete := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		toDelete = append(toDelete, s.key(k))
	}
	toDelete = append(toDelete, s.indexKey())

	if err := s.rdb.Del(ctx, toDelete...).Err(); err != nil {
		return fmt.Errorf("delete session values: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) key(key string) string {
	return redisKeyPrefix + s.profile + ":" + key
}

func (s *RedisSessionStore) indexKey() string {
	return redisKeyPrefix + s.profile + ":keys"
}
