package facade

import (
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/facet/internal/cache"
	"github.com/roach88/facet/internal/schema"
	"github.com/roach88/facet/internal/tabular"
)

const (
	// DefaultRowCap bounds how many rows one call may return.
	DefaultRowCap = 10000

	// DefaultCacheTTL is the result cache freshness window.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultCommandTimeout bounds one engine round trip.
	DefaultCommandTimeout = 30 * time.Second
)

// Facade fronts a tabular engine connection with query rewriting, result
// caching, metadata resolution, and fallback strategies. All state lives
// here; callers construct one per connection.
type Facade struct {
	conn    tabular.Connection
	cache   *cache.ResultCache
	ids     *schema.IdentifierCache
	log     *slog.Logger
	timeout time.Duration
	rowCap  int

	mu      sync.Mutex // guards history
	history HistorySink
	now     func() time.Time
}

// Option configures a Facade.
type Option func(*options)

type options struct {
	cacheTTL  time.Duration
	cacheSize int
	timeout   time.Duration
	rowCap    int
	log       *slog.Logger
	now       func() time.Time
	history   HistorySink
}

// WithCacheTTL sets the result cache freshness window. Zero or negative
// disables caching entirely.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

// WithCacheSize sets the maximum number of cached results.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithCommandTimeout bounds each engine command.
func WithCommandTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRowCap sets the per-call row ceiling.
func WithRowCap(n int) Option {
	return func(o *options) { o.rowCap = n }
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithHistory installs a telemetry sink invoked once per top-level call.
func WithHistory(sink HistorySink) Option {
	return func(o *options) { o.history = sink }
}

// New builds a Facade over conn.
func New(conn tabular.Connection, opts ...Option) *Facade {
	o := options{
		cacheTTL:  DefaultCacheTTL,
		cacheSize: cache.DefaultMaxItems,
		timeout:   DefaultCommandTimeout,
		rowCap:    DefaultRowCap,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	f := &Facade{
		conn:    conn,
		cache:   cache.New(o.cacheTTL, o.cacheSize, cache.WithNow(o.now)),
		ids:     schema.NewIdentifierCache(conn, o.timeout, o.log),
		log:     o.log,
		timeout: o.timeout,
		rowCap:  o.rowCap,
		history: o.history,
		now:     o.now,
	}
	return f
}

// SetHistoryLogger installs (or, with nil, removes) the telemetry sink
// after construction.
func (f *Facade) SetHistoryLogger(sink HistorySink) {
	f.mu.Lock()
	f.history = sink
	f.mu.Unlock()
}

// CacheStats reports result-cache counters and configuration.
func (f *Facade) CacheStats() cache.Stats {
	return f.cache.Stats()
}

// FlushCache empties the result cache and returns how many entries
// were dropped.
func (f *Facade) FlushCache() int {
	n := f.cache.Flush()
	f.log.Info("result cache flushed", "evicted", n)
	return n
}

// InvalidateMetadata discards the identifier cache so the next metadata
// lookup refetches from the engine.
func (f *Facade) InvalidateMetadata() {
	f.ids.Invalidate()
	f.log.Info("identifier cache invalidated")
}

// Close releases the underlying connection.
func (f *Facade) Close() error {
	return f.conn.Close()
}
