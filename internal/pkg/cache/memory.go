package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is the in-process Cache used when Redis is disabled. Values are
// stored JSON-encoded so callers see the same copy semantics as with Redis.
type MemoryCache struct {
	mu          sync.RWMutex
	entries     map[string]memoryEntry
	generations map[string]int64
	now         func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:     make(map[string]memoryEntry),
		generations: make(map[string]int64),
		now:         time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || (!entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt)) {
		return ErrMiss
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		return fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return nil
}

// Set stores value; a non-positive ttl never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %s: %w", key, err)
	}

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *MemoryCache) Generation(ctx context.Context, scope string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[scope], nil
}

func (c *MemoryCache) Bump(ctx context.Context, scopes ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, scope := range scopes {
		c.generations[scope]++
	}
	return nil
}

// Has reports whether key is present and unexpired.
func (c *MemoryCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	return ok && (entry.expiresAt.IsZero() || c.now().Before(entry.expiresAt))
}
