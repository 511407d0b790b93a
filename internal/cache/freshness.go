package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Freshness invalidates the serving layer's cached query results after a
// dataset reloads and publishes a small freshness document per dataset.
// The pipeline works fine without it; callers treat failures as warnings.
type Freshness struct {
	client *redis.Client
	config *Config
	logger *zap.Logger
}

// New connects to Redis and verifies the connection
func New(config *Config, logger *zap.Logger) (*Freshness, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.PoolSize = config.MaxConnections

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Serving-cache connection initialized",
		zap.String("redis_url", maskRedisURL(config.RedisURL)),
		zap.String("key_prefix", config.KeyPrefix))

	return &Freshness{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// Invalidate drops every cached query key for one dataset
func (f *Freshness) Invalidate(ctx context.Context, dataset string) error {
	pattern := f.config.KeyPrefix + dataset + ":*"

	iter := f.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache key scan failed: %w", err)
	}

	if len(keys) > 0 {
		if err := f.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("cache invalidation failed: %w", err)
		}
	}

	f.logger.Debug("Serving cache invalidated",
		zap.String("dataset", dataset),
		zap.Int("keys_dropped", len(keys)))
	return nil
}

// RecordRefresh publishes the freshness document for one dataset
func (f *Freshness) RecordRefresh(ctx context.Context, record *RefreshRecord) error {
	record.RefreshedAt = time.Now().UTC()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh record: %w", err)
	}

	key := f.config.KeyPrefix + "meta:" + record.Dataset
	if err := f.client.Set(ctx, key, data, f.config.FreshnessTTL).Err(); err != nil {
		return fmt.Errorf("failed to publish refresh record: %w", err)
	}

	f.logger.Debug("Dataset refresh published",
		zap.String("key", key),
		zap.Int64("record_count", record.RecordCount))
	return nil
}

// Close closes the Redis connection
func (f *Freshness) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// maskRedisURL masks credentials in a Redis URL for logging
func maskRedisURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			return "redis://***@" + parts[len(parts)-1]
		}
	}
	return url
}
