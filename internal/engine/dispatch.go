package engine

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	"golang.org/x/sync/errgroup"
)

// dispatch resolves every key in misses concurrently and waits for all of
// them to settle. A failing key never stops its siblings.
func (e *Engine) dispatch(ctx context.Context, misses map[string]netip.Addr) map[string]settled {
	out := make(map[string]settled, len(misses))
	if len(misses) == 0 {
		return out
	}

	// Dispatched lookups run to completion or timeout even if the caller
	// goes away.
	ctx = context.WithoutCancel(ctx)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	if e.maxConcurrency > 0 {
		g.SetLimit(e.maxConcurrency)
	}
	for key, addr := range misses {
		g.Go(func() error {
			s := e.resolve(ctx, key, addr)
			mu.Lock()
			out[key] = s
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// resolve performs the lookup for key, sharing the call with any concurrent
// batch resolving the same key, and caches a successful record before
// returning.
func (e *Engine) resolve(ctx context.Context, key string, addr netip.Addr) settled {
	v, _, shared := e.inflight.Do(key, func() (any, error) {
		e.stats.dispatched.Add(1)
		s := e.call(ctx, addr)
		switch s.outcome {
		case OutcomeSuccess:
			e.cache.Put(key, s.record)
			e.stats.successes.Add(1)
			e.logger.Debug("added to cache", "ip", key)
		case OutcomeFailure:
			e.stats.failures.Add(1)
			e.logger.Warn("lookup failed upstream", "ip", key, "status", s.record.Status, "message", s.record.Message)
		case OutcomeError:
			e.stats.errors.Add(1)
			e.logger.Warn("lookup error", "ip", key, "error", s.err)
		}
		return s, nil
	})
	if shared {
		e.logger.Debug("lookup shared with concurrent batch", "ip", key)
	}
	return v.(settled)
}

func (e *Engine) call(ctx context.Context, addr netip.Addr) (s settled) {
	defer func() {
		if r := recover(); r != nil {
			s = settled{outcome: OutcomeError, err: fmt.Errorf("lookup panicked: %v", r)}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rec, err := e.lookup.Lookup(ctx, addr)
	if err != nil {
		return settled{outcome: OutcomeError, err: err}
	}
	if !rec.Succeeded() {
		return settled{outcome: OutcomeFailure, record: rec}
	}
	return settled{outcome: OutcomeSuccess, record: rec}
}
