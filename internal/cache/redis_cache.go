package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/alttext/media/application"
	"github.com/dfryer1193/alttext/media/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const statsKey = "alttext:stats"

var _ application.StatsCache = (*RedisCache)(nil)

// RedisCache keeps the library stats in Redis with a TTL
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheWithClient(client, ttl), nil
}

func NewRedisCacheWithClient(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// GetStats returns the cached stats; any failure reads as a miss
func (c *RedisCache) GetStats(ctx context.Context) (*domain.Stats, bool) {
	val, err := c.client.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read stats from cache")
		return nil, false
	}

	var stats domain.Stats
	if err := json.Unmarshal(val, &stats); err != nil {
		log.Warn().Err(err).Msg("Discarding malformed cached stats")
		return nil, false
	}
	return &stats, true
}

func (c *RedisCache) SetStats(ctx context.Context, stats *domain.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	if err := c.client.Set(ctx, statsKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	if closer, ok := c.client.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
