package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// keyPrefix namespaces balance entries in a shared Redis.
const keyPrefix = "splitledger:balances:"

// Config is the Redis configuration.
type Config struct {
	Addr     string
	Password string
	DB       int

	// TTL bounds how long an entry can outlive a missed invalidation.
	TTL time.Duration
}

// RedisCache implements BalanceCache on Redis. Values are JSON objects mapping
// participant ID to a decimal string.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, cfg Config) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisCache{rdb: rdb, ttl: cfg.TTL}, nil
}

// Close releases the Redis connection pool.
func (r *RedisCache) Close() error {
	return r.rdb.Close()
}

func (r *RedisCache) makeKey(groupID string) string {
	return keyPrefix + groupID
}

// Get reads and decodes the balances for groupID.
func (r *RedisCache) Get(ctx context.Context, groupID string) (map[string]decimal.Decimal, bool, error) {
	val, err := r.rdb.Get(ctx, r.makeKey(groupID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read balances from redis: %w", err)
	}

	var balances map[string]decimal.Decimal
	if err := json.Unmarshal(val, &balances); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached balances: %w", err)
	}
	return balances, true, nil
}

// Set writes the balances for groupID with the configured TTL.
func (r *RedisCache) Set(ctx context.Context, groupID string, balances map[string]decimal.Decimal) error {
	value, err := json.Marshal(balances)
	if err != nil {
		return fmt.Errorf("failed to encode balances: %w", err)
	}
	if err := r.rdb.Set(ctx, r.makeKey(groupID), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write balances to redis: %w", err)
	}
	return nil
}

// Invalidate deletes the entry for groupID.
func (r *RedisCache) Invalidate(ctx context.Context, groupID string) error {
	if err := r.rdb.Del(ctx, r.makeKey(groupID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate balances in redis: %w", err)
	}
	return nil
}
