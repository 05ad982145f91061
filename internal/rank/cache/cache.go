// Package cache stores ranked row sets in Redis keyed by a digest of
// the request, so identical batches are ranked once. Concurrent misses
// for the same key are collapsed with singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/vocabworks/vocab-ranking-platform/internal/rank"
	"github.com/vocabworks/vocab-ranking-platform/pkg/config"
	pkgredis "github.com/vocabworks/vocab-ranking-platform/pkg/redis"
)

const keyPrefix = "rank:"

type ResultCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *ResultCache {
	return &ResultCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "result-cache"),
	}
}

// Key digests the documents, settings, and baseline into a stable
// cache key.
func Key(docs []rank.Document, settings config.RankingConfig, baseline int) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	enc.Encode(docs)
	enc.Encode(settings)
	enc.Encode(baseline)
	return fmt.Sprintf("%s%x", keyPrefix, h.Sum(nil))
}

func (c *ResultCache) Get(ctx context.Context, key string) ([]rank.Row, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var rows []rank.Row
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return rows, true
}

func (c *ResultCache) Set(ctx context.Context, key string, rows []rank.Row) {
	data, err := json.Marshal(rows)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached rows for key, or computes and caches
// them. The second return reports whether the result came from cache.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	key string,
	computeFn func() ([]rank.Row, error),
) ([]rank.Row, bool, error) {
	if rows, ok := c.Get(ctx, key); ok {
		return rows, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if rows, ok := c.Get(ctx, key); ok {
			return rows, nil
		}
		rows, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, rows)
		return rows, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]rank.Row), false, nil
}

// Stats reports cache hits and misses since startup.
func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
