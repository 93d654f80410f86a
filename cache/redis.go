package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZaguanLabs/doclai"
)

// DefaultRedisPrefix is prepended to every key when no prefix is configured.
const DefaultRedisPrefix = "doclai:"

// RedisCache is a Redis-backed translation cache, shared between CI runs.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	TTL       int    // TTL in seconds (0 = no expiration)
	KeyPrefix string // Prefix for all keys (default: "doclai:")
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, &doclai.CacheError{Message: "invalid redis url", Cause: err}
	}

	c := NewRedisCacheFromClient(redis.NewClient(opts), cfg.TTL, cfg.KeyPrefix)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		_ = c.client.Close()
		return nil, &doclai.CacheError{Message: "redis unreachable", Cause: err}
	}
	return c, nil
}

// NewRedisCacheFromClient creates a RedisCache from an existing Redis client.
func NewRedisCacheFromClient(client *redis.Client, ttlSeconds int, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisPrefix
	}
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	return &RedisCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

// Get retrieves an entry. Values written by older releases as a bare
// translation string are returned without source text.
func (c *RedisCache) Get(key string) (Entry, bool) {
	val, err := c.client.Get(context.Background(), c.keyPrefix+key).Result()
	if err != nil {
		// redis.Nil and transport errors are both misses.
		return Entry{}, false
	}
	var e Entry
	if json.Unmarshal([]byte(val), &e) != nil || e.Trans == "" {
		return Entry{Trans: val}, true
	}
	return e, true
}

// Set stores an entry as JSON.
func (c *RedisCache) Set(key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return &doclai.CacheError{Message: "encode entry", Cause: err}
	}
	if err := c.client.Set(context.Background(), c.keyPrefix+key, string(data), c.ttl).Err(); err != nil {
		return &doclai.CacheError{Message: "redis set", Cause: err}
	}
	return nil
}

// Flush is a no-op: every Set is already persisted.
func (c *RedisCache) Flush() error {
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping tests the Redis connection.
func (c *RedisCache) Ping() error {
	return c.client.Ping(context.Background()).Err()
}
