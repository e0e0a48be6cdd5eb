package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis"
)

// RedisKeyPrefix namespaces memoized bodies in a shared Redis.
const RedisKeyPrefix = "sectors:memo:"

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // zero keeps entries forever
}

// RedisStore keeps memoized bodies in Redis so several processes can share them.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if _, err := client.Ping().Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: connect %s: %v", ErrStoreUnavailable, opts.Addr, err)
	}
	return &RedisStore{client: client, ttl: opts.TTL}, nil
}

func (s *RedisStore) Name() string { return "redis" }

// Get reads key. A missing key is a miss, not an error.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := s.client.WithContext(ctx).Get(RedisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get: %v", ErrStoreUnavailable, err)
	}
	return body, true, nil
}

// Set writes key with the store TTL.
func (s *RedisStore) Set(ctx context.Context, key string, body []byte) error {
	if err := s.client.WithContext(ctx).Set(RedisKey(key), body, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// RedisKey returns the Redis key used for a request URL.
func RedisKey(url string) string {
	return RedisKeyPrefix + url
}
