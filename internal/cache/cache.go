// Package cache implements the resolver's longest-suffix TTL cache: a
// map from requested name to a cached response Message, with absolute
// per-entry expiry. Unlike the teacher's generic TTLCache[K,V] (LRU
// eviction plus tiered negative caching), this cache is TTL-driven only
// and matches on the longest stored name that is a suffix of the
// requested one, mirroring the zone package's matching rule.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/fu-berlin/dnslab/internal/dnsmsg"
)

type entry struct {
	response dnsmsg.Message
	expiry   time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Add unconditionally stores response under name, replacing any
// existing entry. The expiry is computed from response's TTL field at
// write time (insertion_time + ttl_seconds).
func (c *Cache) Add(name string, response dnsmsg.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = entry{
		response: response,
		expiry:   c.now().Add(time.Duration(response.TTL()) * time.Second),
	}
}

// Get sweeps expired entries, then returns the response cached under
// the longest stored name that is a suffix of name. The returned
// Message is a clone with its TTL field rewritten to the entry's
// remaining lifetime, so callers never observe or mutate cache state
// directly.
func (c *Cache) Get(name string) (dnsmsg.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if !e.expiry.After(now) {
			delete(c.entries, key)
		}
	}

	var bestKey string
	var best entry
	found := false
	for key, e := range c.entries {
		if !strings.HasSuffix(name, key) {
			continue
		}
		if !found || len(key) > len(bestKey) {
			bestKey = key
			best = e
			found = true
		}
	}
	if !found {
		return dnsmsg.Message{}, false
	}

	remaining := int(best.expiry.Sub(now) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	out := best.response.Clone()
	out.SetUpdatedTTL(remaining)
	return out, true
}

// Len reports the number of stored entries without sweeping, so entries
// that have expired but not yet been removed by Get are counted too.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
