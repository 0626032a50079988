package holiday

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
)

const cacheKeyPrefix = "backplan:holidays:"

// DefaultCacheTTL is used when Cached is built with a zero TTL.
const DefaultCacheTTL = 24 * time.Hour

// Cache is the subset of a Redis client the cache needs.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Cached reads holidays through a Redis cache. Redis failures never fail a
// lookup; the wrapped provider answers instead.
type Cached struct {
	cache  Cache
	next   Provider
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps next with a cache.
func NewCached(cache Cache, next Provider, ttl time.Duration, logger *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{cache: cache, next: next, ttl: ttl, logger: logger}
}

// NewRedisClient connects to the Redis server at addr.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Holidays implements Provider.
func (c *Cached) Holidays(ctx context.Context, codes []string) (calendar.Holidays, error) {
	out := calendar.Holidays{}
	var missing []string
	for _, code := range codes {
		dates, ok := c.lookup(ctx, code)
		if !ok {
			missing = append(missing, code)
			continue
		}
		for _, d := range dates {
			out.Add(code, d)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.next.Holidays(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, code := range missing {
		dates := fetched.Dates(code)
		c.store(ctx, code, dates)
		for _, d := range dates {
			out.Add(code, d)
		}
	}
	return out, nil
}

func (c *Cached) lookup(ctx context.Context, code string) ([]date.Date, bool) {
	val, err := c.cache.Get(ctx, cacheKeyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("holiday cache read failed, fetching",
			zap.String("country", code),
			zap.Error(err),
		)
		return nil, false
	}
	if val == "" {
		return nil, true
	}

	var dates []date.Date
	for _, s := range strings.Split(val, ",") {
		d, err := date.Parse(s)
		if err != nil {
			c.logger.Warn("corrupt holiday cache entry, fetching",
				zap.String("country", code),
				zap.Error(err),
			)
			return nil, false
		}
		dates = append(dates, d)
	}
	return dates, true
}

func (c *Cached) store(ctx context.Context, code string, dates []date.Date) {
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = d.String()
	}
	if err := c.cache.Set(ctx, cacheKeyPrefix+code, strings.Join(parts, ","), c.ttl).Err(); err != nil {
		c.logger.Warn("holiday cache write failed",
			zap.String("country", code),
			zap.Error(err),
		)
	}
}
