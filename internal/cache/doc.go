// Package cache implements the façade's bounded, TTL-aware result cache.
//
// The cache is process-local, in-memory, and best-effort. Entries are keyed
// by (canonical query text, row limit), evicted lazily on read once their
// age exceeds the TTL, and evicted by LRU order when the item bound is
// exceeded. Both insertion and successful reads count as an LRU touch.
//
// A single mutex guards the ordered map. The critical section covers map
// and list manipulation only; engine execution always happens outside it so
// a slow query cannot block unrelated cache reads.
package cache
