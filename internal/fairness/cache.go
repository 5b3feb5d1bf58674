package fairness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	platformredis "fairlend/internal/platform/redis"
)

// cacheKey derives one key per window so a bounded report never shadows the
// whole-ledger one.
func cacheKey(w Window) string {
	return fmt.Sprintf("fairlend:fairness:report:%d:%d", w.From, w.To)
}

// Cache stores the most recent report in Redis so repeated dashboard loads do
// not replay the whole ledger. A nil Cache is a valid no-op cache.
type Cache struct {
	client *platformredis.Client
	ttl    time.Duration
}

// NewCache wraps the Redis client. Returns nil when Redis is not configured,
// which callers treat as cache-always-miss.
func NewCache(client *platformredis.Client, ttl time.Duration) *Cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached report for the window, if any. Cache errors degrade
// to a miss; the report can always be recomputed from the ledger.
func (c *Cache) Get(ctx context.Context, window Window) (Report, bool) {
	if c == nil {
		return Report{}, false
	}

	raw, err := c.client.Get(ctx, cacheKey(window)).Bytes()
	if err != nil {
		return Report{}, false
	}
	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return Report{}, false
	}
	return report, true
}

// Set stores the report under its window for the configured TTL.
func (c *Cache) Set(ctx context.Context, window Window, report Report) error {
	if c == nil {
		return nil
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	err = c.client.Set(ctx, cacheKey(window), raw, c.ttl).Err()
	if err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}

// Invalidate drops the cached report for the window, forcing the next read to
// recompute.
func (c *Cache) Invalidate(ctx context.Context, window Window) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, cacheKey(window)).Err()
}
