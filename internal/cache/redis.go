package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DialRedis connects to Redis and verifies the connection with a ping.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// RedisStore keeps entries in Redis under a per-cache key prefix. Redis
// evicts expired keys itself, so invalid entries never accumulate.
type RedisStore struct {
	name    string
	ttl     time.Duration
	persist bool
	client  *redis.Client
	prefix  string
}

func NewRedisStore(client *redis.Client, name string, ttl time.Duration, persist bool) *RedisStore {
	return &RedisStore{
		name:    name,
		ttl:     ttl,
		persist: persist,
		client:  client,
		prefix:  "whitebit:cache:" + name + ":",
	}
}

func (s *RedisStore) Name() string { return s.name }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return fmt.Errorf("scan cache %s: %w", s.name, err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisStore) Stats(ctx context.Context) Stats {
	stats := Stats{Name: s.name, Persist: s.persist}
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return stats
	}
	stats.ValidEntries = int64(len(keys))
	stats.TotalEntries = stats.ValidEntries
	return stats
}

func (s *RedisStore) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
