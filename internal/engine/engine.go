package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/TomasB/ip2geo/internal/data"
	"github.com/TomasB/ip2geo/internal/geo"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds each dispatched lookup.
const DefaultTimeout = 5 * time.Second

// ErrNoLookup is returned when an engine has no lookup capability.
var ErrNoLookup = errors.New("engine: no lookup configured")

// Engine resolves batches of IP address lines, memoizing successful records
// for its whole lifetime. An Engine is safe for concurrent use; hold one
// instance to share its cache across batches.
type Engine struct {
	lookup         data.Lookup
	cache          *Cache
	logger         *slog.Logger
	timeout        time.Duration
	maxConcurrency int

	inflight singleflight.Group
	stats    counters
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTimeout sets the per-lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxConcurrency bounds the number of lookups in flight per batch.
// Zero or less leaves the fan-out unbounded.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) {
		e.maxConcurrency = n
	}
}

// WithCache makes the engine use c, for sharing one cache between engines.
func WithCache(c *Cache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// New returns an engine resolving misses through lookup.
func New(lookup data.Lookup, opts ...Option) (*Engine, error) {
	if lookup == nil {
		return nil, ErrNoLookup
	}
	e := &Engine{
		lookup:  lookup,
		cache:   NewCache(),
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RunBatch resolves lines and returns exactly one result per line, in input
// order. Each distinct valid address is looked up at most once and only if
// it is not cached. Per-address failures never fail the batch; the only
// errors are a missing lookup capability and a context that is already done
// before dispatch begins.
func (e *Engine) RunBatch(ctx context.Context, lines []string) ([]Result, error) {
	if e == nil || e.lookup == nil {
		return nil, ErrNoLookup
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	p := dedupe(lines)

	hits := make(map[string]geo.Record)
	misses := make(map[string]netip.Addr)
	for key, addr := range p.unique {
		if rec, ok := e.cache.Get(key); ok {
			hits[key] = rec
			e.logger.Debug("found in cache", "ip", key)
			continue
		}
		misses[key] = addr
	}

	dispatched := e.dispatch(ctx, misses)
	results := e.assemble(lines, p, hits, dispatched)

	e.stats.batches.Add(1)
	e.stats.lines.Add(int64(len(lines)))
	e.stats.hits.Add(int64(len(hits)))

	e.logger.Info("batch resolved",
		"lines", len(lines),
		"unique", len(p.unique),
		"cache_hits", len(hits),
		"dispatched", len(misses),
		"cache_size", e.cache.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// ClearCache drops every memoized record.
func (e *Engine) ClearCache() {
	e.cache.Clear()
	e.logger.Info("cache cleared")
}

// Cache returns the engine's cache.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Stats is a snapshot of the engine's cumulative counters.
type Stats struct {
	Batches    int64 `json:"batches"`
	Lines      int64 `json:"lines"`
	CacheHits  int64 `json:"cache_hits"`
	Dispatched int64 `json:"dispatched"`
	Successes  int64 `json:"successes"`
	Failures   int64 `json:"failures"`
	Errors     int64 `json:"errors"`
	CacheSize  int   `json:"cache_size"`
}

// Stats returns the current counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Batches:    e.stats.batches.Load(),
		Lines:      e.stats.lines.Load(),
		CacheHits:  e.stats.hits.Load(),
		Dispatched: e.stats.dispatched.Load(),
		Successes:  e.stats.successes.Load(),
		Failures:   e.stats.failures.Load(),
		Errors:     e.stats.errors.Load(),
		CacheSize:  e.cache.Len(),
	}
}

type counters struct {
	batches    atomic.Int64
	lines      atomic.Int64
	hits       atomic.Int64
	dispatched atomic.Int64
	successes  atomic.Int64
	failures   atomic.Int64
	errors     atomic.Int64
}
