package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// DefaultRedisPrefix namespaces quote keys in a shared Redis.
const DefaultRedisPrefix = "quote:"

// RedisCache is a Cache shared between processes. Expiry is delegated to Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps a connected client. A non-positive ttl selects DefaultCacheTTL.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis opens a Redis client and checks that it is reachable.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Get treats any Redis failure as a miss.
func (c *RedisCache) Get(ctx context.Context, symbol string) (model.Price, bool) {
	data, err := c.client.Get(ctx, c.prefix+symbol).Bytes()
	if err != nil {
		return model.Price{}, false
	}

	var price model.Price
	if err := json.Unmarshal(data, &price); err != nil {
		return model.Price{}, false
	}
	return price, true
}

func (c *RedisCache) Set(ctx context.Context, symbol string, price model.Price) error {
	data, err := json.Marshal(price)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+symbol, data, c.ttl).Err()
}

// Clear removes every key under the prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan quote keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
