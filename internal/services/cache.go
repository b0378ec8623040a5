package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix  = "ytp:video:"
	DefaultCacheTTL = 24 * time.Hour
)

// CachedProvider serves video metadata from Redis, falling through to the wrapped provider
// for misses. Any Redis error degrades to an uncached call.
type CachedProvider struct {
	inner  VideoProvider
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewRedisClient parses a redis:// url and verifies the server is reachable.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis url: %v", shared.ErrInvalidConfig, err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%w: redis: %v", shared.ErrServiceUnavailable, err)
	}
	return rdb, nil
}

// NewCachedProvider wraps inner. A non-positive ttl uses [DefaultCacheTTL].
func NewCachedProvider(inner VideoProvider, rdb *redis.Client, ttl time.Duration, logger *log.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CachedProvider{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachedProvider) Name() string {
	return c.inner.Name() + " (cached)"
}

// Search is never cached; the detailed results it returns are.
func (c *CachedProvider) Search(ctx context.Context, query string, max int) ([]models.VideoMetadata, error) {
	results, err := c.inner.Search(ctx, query, max)
	if err != nil {
		return nil, err
	}

	detailed := make(map[string]models.VideoMetadata, len(results))
	for _, r := range results {
		if r.DurationISO8601 != "" {
			detailed[r.ID] = r
		}
	}
	c.store(ctx, detailed)
	return results, nil
}

// Videos returns cached entries and fetches the rest from the wrapped provider.
func (c *CachedProvider) Videos(ctx context.Context, ids []string) (map[string]models.VideoMetadata, error) {
	if len(ids) == 0 {
		return map[string]models.VideoMetadata{}, nil
	}

	out, missing := c.lookup(ctx, ids)
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.inner.Videos(ctx, missing)
	if err != nil {
		return nil, err
	}
	c.store(ctx, fetched)

	for id, m := range fetched {
		out[id] = m
	}
	return out, nil
}

func (c *CachedProvider) lookup(ctx context.Context, ids []string) (map[string]models.VideoMetadata, []string) {
	out := make(map[string]models.VideoMetadata, len(ids))

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKeyPrefix + id
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("video cache read failed", "error", err)
		return out, ids
	}

	var missing []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}

		var m models.VideoMetadata
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			c.logger.Warn("discarding corrupt cache entry", "key", keys[i], "error", err)
			missing = append(missing, ids[i])
			continue
		}
		out[ids[i]] = m
	}
	return out, missing
}

func (c *CachedProvider) store(ctx context.Context, videos map[string]models.VideoMetadata) {
	if len(videos) == 0 {
		return
	}

	pipe := c.rdb.Pipeline()
	for id, m := range videos {
		data, err := json.Marshal(m)
		if err != nil {
			continue
		}
		pipe.Set(ctx, cacheKeyPrefix+id, data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("video cache write failed", "error", err)
	}
}
