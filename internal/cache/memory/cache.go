package memory

import (
	"context"
	"sync"
	"time"

	"github.com/toolgrid/toolgrid/internal/cache"
	"github.com/toolgrid/toolgrid/internal/domain"
)

type entry struct {
	result    domain.DuplicateResult
	expiresAt time.Time
}

// Cache implements cache.Cache using in-memory storage with per-entry expiry
type Cache struct {
	data  map[string]entry
	mutex sync.RWMutex
	now   func() time.Time
}

// New creates a new in-memory cache
func New() *Cache {
	return &Cache{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get retrieves a cached duplicate result by normalized URL. Expired entries
// are removed lazily.
func (c *Cache) Get(ctx context.Context, key string) (*domain.DuplicateResult, bool) {
	c.mutex.RLock()
	e, exists := c.data[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	if c.now().After(e.expiresAt) {
		c.mutex.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it
		if current, ok := c.data[key]; ok && c.now().After(current.expiresAt) {
			delete(c.data, key)
		}
		c.mutex.Unlock()
		return nil, false
	}

	// Return a copy to prevent external modification
	result := e.result
	if e.result.Tool != nil {
		tool := *e.result.Tool
		result.Tool = &tool
	}
	return &result, true
}

// Set stores a duplicate result under the normalized URL with a TTL
func (c *Cache) Set(ctx context.Context, key string, result *domain.DuplicateResult, ttl time.Duration) error {
	stored := *result
	if result.Tool != nil {
		tool := *result.Tool
		stored.Tool = &tool
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = entry{
		result:    stored,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Delete removes a cached result
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Len returns the number of live entries
func (c *Cache) Len(ctx context.Context) int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	count := 0
	now := c.now()
	for _, e := range c.data {
		if now.Before(e.expiresAt) {
			count++
		}
	}
	return count
}

// Close releases cache resources
func (c *Cache) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]entry)
	return nil
}

// Ensure Cache implements the interface
var _ cache.Cache = (*Cache)(nil)
