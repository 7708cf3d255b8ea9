package price

import (
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	price     float64
	expiresAt time.Time
}

// quoteCache keeps recently fetched prices so repeated requests within the TTL skip the network.
type quoteCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newQuoteCache(ttl time.Duration) *quoteCache {
	return &quoteCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *quoteCache) get(ticker string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[ticker]
	if !ok || c.now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.price, true
}

func (c *quoteCache) set(ticker string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[ticker] = cacheEntry{
		price:     price,
		expiresAt: c.now().Add(c.ttl),
	}
}
