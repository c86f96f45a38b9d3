package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// QueryCache memoizes upstream query results for a fixed TTL.
type QueryCache struct {
	cache map[string]*CacheEntry
	mu    sync.RWMutex
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheEntry is one memoized value.
type CacheEntry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// CacheStats is a point-in-time view of cache usage.
type CacheStats struct {
	Entries int           `json:"entries"`
	Hits    int64         `json:"hits"`
	Misses  int64         `json:"misses"`
	TTL     time.Duration `json:"ttl_ns"`
}

// NewQueryCache creates a cache. Call StartCleanup to evict expired entries in the background.
func NewQueryCache(ttl time.Duration) *QueryCache {
	return &QueryCache{
		cache: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns a live entry.
func (c *QueryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.cache[key]
	if !exists || c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Data, true
}

// Set stores data under key for the cache TTL.
func (c *QueryCache) Set(key string, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[key] = &CacheEntry{
		Data:      data,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// GetOrLoad returns the cached value for key or calls load once, even when
// several goroutines miss at the same time. Errors are not cached.
func (c *QueryCache) GetOrLoad(key string, load func() (interface{}, error)) (interface{}, error) {
	if data, ok := c.Get(key); ok {
		c.hits.Add(1)
		return data, nil
	}
	c.misses.Add(1)

	data, err, _ := c.group.Do(key, func() (interface{}, error) {
		if data, ok := c.Get(key); ok {
			return data, nil
		}
		data, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, data)
		return data, nil
	})
	return data, err
}

// Delete removes one key and reports whether it was present.
func (c *QueryCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.cache[key]
	delete(c.cache, key)
	return ok
}

// DeletePrefix removes every key starting with prefix and reports how many went.
func (c *QueryCache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.cache {
		if strings.HasPrefix(key, prefix) {
			delete(c.cache, key)
			n++
		}
	}
	return n
}

// Clear drops all entries.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*CacheEntry)
}

// Size returns the number of stored entries, expired or not.
func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.cache)
}

// Stats reports usage counters.
func (c *QueryCache) Stats() CacheStats {
	return CacheStats{
		Entries: c.Size(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		TTL:     c.ttl,
	}
}

// StartCleanup evicts expired entries every interval until ctx is done.
func (c *QueryCache) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *QueryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.cache {
		if now.After(entry.ExpiresAt) {
			delete(c.cache, key)
		}
	}
}

// GenerateCacheKey hashes params into a stable key under prefix.
func GenerateCacheKey(prefix string, params interface{}) string {
	jsonBytes, err := json.Marshal(params)
	if err != nil {
		// unhashable params get a unique key, i.e. are never shared
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}

	hash := sha256.Sum256(jsonBytes)
	return fmt.Sprintf("%s_%x", prefix, hash[:16])
}

// cachedAs is GetOrLoad with a typed result.
func cachedAs[T any](c *QueryCache, key string, load func() (T, error)) (T, error) {
	data, err := c.GetOrLoad(key, func() (interface{}, error) {
		return load()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := data.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry %s holds %T", key, data)
	}
	return typed, nil
}
