package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// This file implements the advisory forecast cache. Every value is an opaque
// compact-JSON string keyed by "{prefix}{cityID}". The cache is never
// load-bearing: any backend error is logged and reduced to a miss on reads or
// a false on writes, so callers fall through to the upstream providers.

// Cache TTL classes. Current conditions share the hourly class because both
// derive from the same upstream payload.
const (
	hourlyCacheTTL       = 1 * time.Hour
	dailyCacheTTL        = 3 * time.Hour
	municipalityMeshTTL  = 7 * 24 * time.Hour
)

// Batch chunk limits per backend round trip.
const (
	batchGetChunkSize = 100
	batchSetChunkSize = 25
)

type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) bool
	Delete(ctx context.Context, key string) bool
	BatchGet(ctx context.Context, keys []string) map[string]string
	BatchSet(ctx context.Context, items map[string]string, ttl time.Duration) map[string]bool
	Flush(ctx context.Context) error
}

type RedisCache struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewRedisCache(client redis.UniversalClient, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		cacheOpsTotal.WithLabelValues("get", "miss").Inc()
		return "", false
	}
	if err != nil {
		c.logger.Warn("cache get failed, treating as miss", "key", key, "error", err)
		cacheOpsTotal.WithLabelValues("get", "error").Inc()
		return "", false
	}
	cacheOpsTotal.WithLabelValues("get", "hit").Inc()
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
		cacheOpsTotal.WithLabelValues("set", "error").Inc()
		return false
	}
	cacheOpsTotal.WithLabelValues("set", "ok").Inc()
	return true
}

func (c *RedisCache) Delete(ctx context.Context, key string) bool {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("cache delete failed", "key", key, "error", err)
		cacheOpsTotal.WithLabelValues("delete", "error").Inc()
		return false
	}
	cacheOpsTotal.WithLabelValues("delete", "ok").Inc()
	return true
}

// BatchGet fetches many keys in chunks of at most batchGetChunkSize per round
// trip. The result contains hits only; a failed chunk contributes nothing.
func (c *RedisCache) BatchGet(ctx context.Context, keys []string) map[string]string {
	hits := make(map[string]string, len(keys))
	for start := 0; start < len(keys); start += batchGetChunkSize {
		end := min(start+batchGetChunkSize, len(keys))
		chunk := keys[start:end]

		values, err := c.client.MGet(ctx, chunk...).Result()
		if err != nil {
			c.logger.Warn("cache batch get chunk failed", "keys", len(chunk), "error", err)
			cacheOpsTotal.WithLabelValues("batch_get", "error").Inc()
			continue
		}
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			hits[chunk[i]] = s
		}
		cacheOpsTotal.WithLabelValues("batch_get", "ok").Inc()
	}
	return hits
}

// BatchSet writes many items in chunks of at most batchSetChunkSize per round
// trip, reporting per-key success. Keys in a failed chunk report false.
func (c *RedisCache) BatchSet(ctx context.Context, items map[string]string, ttl time.Duration) map[string]bool {
	results := make(map[string]bool, len(items))

	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}

	for start := 0; start < len(keys); start += batchSetChunkSize {
		end := min(start+batchSetChunkSize, len(keys))
		chunk := keys[start:end]

		pipe := c.client.Pipeline()
		for _, k := range chunk {
			pipe.Set(ctx, k, items[k], ttl)
		}
		cmds, err := pipe.Exec(ctx)
		if err != nil {
			c.logger.Warn("cache batch set chunk failed", "keys", len(chunk), "error", err)
			cacheOpsTotal.WithLabelValues("batch_set", "error").Inc()
			for _, k := range chunk {
				results[k] = false
			}
			continue
		}
		for i, cmd := range cmds {
			results[chunk[i]] = cmd.Err() == nil
		}
		cacheOpsTotal.WithLabelValues("batch_set", "ok").Inc()
	}
	return results
}

func (c *RedisCache) Flush(ctx context.Context) error {
	return c.client.FlushDB(ctx).Err()
}

// noopCache stands in when CACHE_ENABLED is off: every read misses and every
// write reports false, so the pipeline always goes upstream.
type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, bool)       { return "", false }
func (noopCache) Set(context.Context, string, string, time.Duration) bool { return false }
func (noopCache) Delete(context.Context, string) bool              { return false }
func (noopCache) BatchGet(context.Context, []string) map[string]string {
	return map[string]string{}
}
func (noopCache) BatchSet(_ context.Context, items map[string]string, _ time.Duration) map[string]bool {
	results := make(map[string]bool, len(items))
	for k := range items {
		results[k] = false
	}
	return results
}
func (noopCache) Flush(context.Context) error { return nil }
