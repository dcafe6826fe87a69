package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
)

// ResolveResult is what a published lookup hands back to callers.
type ResolveResult struct {
	RevisionID uuid.UUID      `json:"revision_id"`
	ContentID  uuid.UUID      `json:"content_id"`
	Lang       string         `json:"lang"`
	VariantKey string         `json:"variant_key"`
	RevisionNo int            `json:"revision_no"`
	Payload    datatypes.JSON `json:"payload"`
}

// ResolveCache memoizes exact-tuple hits only. Fallback results are never
// cached, so invalidating one tuple's key is always sufficient when that
// tuple's published revision changes.
type ResolveCache interface {
	Get(ctx context.Context, key string) (*ResolveResult, bool)
	Set(ctx context.Context, key string, res *ResolveResult)
	Delete(ctx context.Context, key string)
}

// CacheKey identifies one head tuple within a project.
func CacheKey(contentID uuid.UUID, lang, variantKey string) string {
	return fmt.Sprintf("resolve:%s:%s:%s", contentID, lang, variantKey)
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*ResolveResult
}

// NewMemoryResolveCache is the single-process default.
func NewMemoryResolveCache() ResolveCache {
	return &memoryCache{entries: map[string]*ResolveResult{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (*ResolveResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[key]
	return res, ok
}

func (c *memoryCache) Set(_ context.Context, key string, res *ResolveResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = res
}

func (c *memoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

type redisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewRedisResolveCache shares hits across replicas. Entries carry a TTL
// as a backstop for missed invalidations.
func NewRedisResolveCache(rdb *redis.Client, ttl time.Duration, baseLog *logger.Logger) ResolveCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisCache{rdb: rdb, ttl: ttl, log: baseLog.With("component", "resolve_cache")}
}

func (c *redisCache) Get(ctx context.Context, key string) (*ResolveResult, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var res ResolveResult
	if err := json.Unmarshal(raw, &res); err != nil {
		c.log.Warn("cache entry corrupt, dropping", "key", key, "error", err)
		c.rdb.Del(ctx, key)
		return nil, false
	}
	return &res, true
}

func (c *redisCache) Set(ctx context.Context, key string, res *ResolveResult) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.Warn("cache delete failed", "key", key, "error", err)
	}
}
