package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/roach88/facet/internal/tabular"
)

// DefaultMaxItems bounds the cache when no explicit size is configured.
const DefaultMaxItems = 128

// Entry is one cached execution result. Owned exclusively by the cache;
// Get and Set copy the row and column payloads so callers never hold
// references into cache internals.
type Entry struct {
	Columns     []string
	Rows        []tabular.RowMap
	RowCount    int
	ExecutionMs float64
	Truncated   bool
	CachedAt    time.Time
}

// Stats holds the cache counters plus current size and configuration.
// Counters are process-lifetime and reset only by Flush.
type Stats struct {
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Bypassed   uint64 `json:"bypassed"`
	Size       int    `json:"size"`
	MaxItems   int    `json:"max_items"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// ResultCache is a bounded, TTL-aware, LRU-ordered store of execution
// results. A TTL of zero disables the cache entirely: every Get misses and
// every Set is a no-op. Safe for concurrent use from multiple goroutines
// sharing one façade instance.
type ResultCache struct {
	mu sync.Mutex

	ttl      time.Duration
	maxItems int
	now      func() time.Time

	order *list.List               // front = most recently touched
	items map[Key]*list.Element

	hits     uint64
	misses   uint64
	bypassed uint64
}

type cacheNode struct {
	key   Key
	entry Entry
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithNow injects the wall-clock source. Tests use this to drive TTL
// expiry with a simulated clock.
func WithNow(now func() time.Time) Option {
	return func(c *ResultCache) {
		c.now = now
	}
}

// New creates a ResultCache with the given entry TTL and item bound.
// ttl == 0 disables caching. maxItems <= 0 falls back to DefaultMaxItems.
func New(ttl time.Duration, maxItems int, opts ...Option) *ResultCache {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	c := &ResultCache{
		ttl:      ttl,
		maxItems: maxItems,
		now:      time.Now,
		order:    list.New(),
		items:    make(map[Key]*list.Element, maxItems),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether caching is active (TTL > 0).
func (c *ResultCache) Enabled() bool {
	return c.ttl > 0
}

// Get returns the entry for key if present and fresh. A stale entry is
// deleted on this read path, not swept proactively. A hit refreshes the
// LRU order. With the cache disabled the read counts as bypassed, since
// the caller opted out of caching globally rather than missing.
func (c *ResultCache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl <= 0 {
		c.bypassed++
		return Entry{}, false
	}

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return Entry{}, false
	}

	node := elem.Value.(*cacheNode)
	if c.now().Sub(node.entry.CachedAt) > c.ttl {
		c.order.Remove(elem)
		delete(c.items, key)
		c.misses++
		return Entry{}, false
	}

	c.order.MoveToFront(elem)
	c.hits++
	return copyEntry(node.entry), true
}

// Bypass records that a caller skipped the cache for one read.
func (c *ResultCache) Bypass() {
	c.mu.Lock()
	c.bypassed++
	c.mu.Unlock()
}

// Set inserts or overwrites the entry for key, touching it in LRU order.
// If the insert pushes the cache past its item bound, the single
// least-recently-touched entry is evicted. No-op when the cache is disabled.
func (c *ResultCache) Set(key Key, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl <= 0 {
		return
	}

	stored := copyEntry(entry)
	if stored.CachedAt.IsZero() {
		stored.CachedAt = c.now()
	}

	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheNode).entry = stored
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheNode{key: key, entry: stored})
	c.items[key] = elem

	if c.order.Len() > c.maxItems {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheNode).key)
		}
	}
}

// Flush clears all entries and resets the counters. Returns the number of
// entries cleared.
func (c *ResultCache) Flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleared := c.order.Len()
	c.order.Init()
	c.items = make(map[Key]*list.Element, c.maxItems)
	c.hits = 0
	c.misses = 0
	c.bypassed = 0
	return cleared
}

// Stats returns a snapshot of the counters and current configuration.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:       c.hits,
		Misses:     c.misses,
		Bypassed:   c.bypassed,
		Size:       c.order.Len(),
		MaxItems:   c.maxItems,
		TTLSeconds: int(c.ttl / time.Second),
	}
}

// TTL returns the configured entry time-to-live.
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}

func copyEntry(e Entry) Entry {
	e.Columns = tabular.CopyColumns(e.Columns)
	e.Rows = tabular.CopyRows(e.Rows)
	return e
}
