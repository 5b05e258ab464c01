package quote

import (
	"context"
	"sync"
	"time"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// DefaultCacheTTL is how long a quote stays fresh.
const DefaultCacheTTL = 60 * time.Second

// Cache stores one recent quote per Yahoo symbol.
// An expired entry is never returned.
type Cache interface {
	Get(ctx context.Context, symbol string) (model.Price, bool)
	Set(ctx context.Context, symbol string, price model.Price) error
	Clear(ctx context.Context) error
}

type cacheEntry struct {
	price     model.Price
	fetchedAt time.Time
}

// MemoryCache is an in-process Cache safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an empty MemoryCache. A non-positive ttl selects DefaultCacheTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) Get(_ context.Context, symbol string) (model.Price, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[symbol]
	if !ok || c.now().Sub(entry.fetchedAt) >= c.ttl {
		return model.Price{}, false
	}
	return entry.price, true
}

func (c *MemoryCache) Set(_ context.Context, symbol string, price model.Price) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[symbol] = cacheEntry{price: price, fetchedAt: c.now()}
	return nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
	return nil
}

// Len returns the number of stored entries, fresh or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
