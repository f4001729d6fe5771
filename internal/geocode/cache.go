package geocode

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/saferides/internal/models"
)

// SuggestionCache stores autocomplete results keyed by normalized query.
type SuggestionCache interface {
	Get(query string) ([]models.Suggestion, bool)
	Set(query string, s []models.Suggestion)
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// MemoryCache is a small TTL cache for a single process.
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]memEntry
	ttl   time.Duration
}

type memEntry struct {
	v  []models.Suggestion
	ts time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: make(map[string]memEntry), ttl: ttl}
}

func (c *MemoryCache) Get(query string) ([]models.Suggestion, bool) {
	k := cacheKey(query)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, k)
		c.mu.Unlock()
		return nil, false
	}
	return e.v, true
}

func (c *MemoryCache) Set(query string, s []models.Suggestion) {
	c.mu.Lock()
	c.store[cacheKey(query)] = memEntry{v: s, ts: time.Now()}
	c.mu.Unlock()
}

// RedisCache shares autocomplete results across processes. Misses on any
// redis error; the resolver falls through to the geocoder.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	ctx    context.Context
}

func NewRedisCache(addr, password string, ttl time.Duration) *RedisCache {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisCache{client: c, ttl: ttl, ctx: context.Background()}
}

func (c *RedisCache) Get(query string) ([]models.Suggestion, bool) {
	b, err := c.client.Get(c.ctx, redisKey(query)).Bytes()
	if err != nil {
		return nil, false
	}
	var out []models.Suggestion
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *RedisCache) Set(query string, s []models.Suggestion) {
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	_ = c.client.Set(c.ctx, redisKey(query), b, c.ttl).Err()
}

func redisKey(query string) string { return "geocode:suggest:" + cacheKey(query) }
