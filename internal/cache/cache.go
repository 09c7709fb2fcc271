// Package cache memoizes complete pipeline results for a short window so that
// repeated requests for the same query do not repeat the external calls.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pfrederiksen/event-scout/internal/pipeline"
)

// DefaultTTL is how long a run result stays fresh
const DefaultTTL = 5 * time.Minute

// Key identifies a cached run
type Key struct {
	Query        string
	UseValidator bool
}

// String keeps the query's case so a cached Result always reports the
// query it was run with. Surrounding whitespace is ignored.
func (k Key) String() string {
	return strings.TrimSpace(k.Query) + "|" + strconv.FormatBool(k.UseValidator)
}

// ResultCache manages cached run results with TTL.
// It is safe for concurrent use.
type ResultCache struct {
	mu       sync.Mutex
	results  map[string]*pipeline.Result
	cachedAt map[string]time.Time
	TTL      time.Duration
	now      func() time.Time
}

// New creates a new result cache. A non-positive ttl uses DefaultTTL.
func New(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{
		results:  make(map[string]*pipeline.Result),
		cachedAt: make(map[string]time.Time),
		TTL:      ttl,
		now:      time.Now,
	}
}

// Get retrieves a result from cache if not expired.
// Returns nil if not found or expired.
func (c *ResultCache) Get(key Key) *pipeline.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key.String()
	res, exists := c.results[k]
	if !exists {
		return nil
	}

	cachedTime, hasTime := c.cachedAt[k]
	if !hasTime || c.now().Sub(cachedTime) > c.TTL {
		delete(c.results, k)
		delete(c.cachedAt, k)
		return nil
	}

	return res
}

// Set stores a result in cache. Nil results are ignored so that failed runs
// are never memoized.
func (c *ResultCache) Set(key Key, res *pipeline.Result) {
	if res == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key.String()
	c.results[k] = res
	c.cachedAt[k] = c.now()
}

// CleanExpired removes expired entries from cache
func (c *ResultCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()

	for key, cachedTime := range c.cachedAt {
		if now.Sub(cachedTime) > c.TTL {
			delete(c.results, key)
			delete(c.cachedAt, key)
			removed++
		}
	}

	return removed
}

// Size returns the number of cached entries
func (c *ResultCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}
