package worldbank

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/clock"
	"github.com/aouyang1/go-inflation-forecaster/observation"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a fetched series is served before it is fetched again
const DefaultCacheTTL = 24 * time.Hour

// CachedSource memoises a single series from the underlying source. A ttl of 0 keeps the
// series until Invalidate is called. Concurrent misses share one fetch.
type CachedSource struct {
	src   Source
	ttl   time.Duration
	clock clock.Clock

	mu        sync.RWMutex
	series    observation.Series
	fetchedAt time.Time
	gen       uint64 // bumped by Invalidate

	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheOption allows customizing the cached source
type CacheOption func(*CachedSource)

// WithClock replaces the wall clock used for expiry
func WithClock(c clock.Clock) CacheOption {
	return func(cs *CachedSource) {
		cs.clock = c
	}
}

// NewCachedSource wraps the source with a ttl cache. Negative ttls are treated as 0.
func NewCachedSource(src Source, ttl time.Duration, opts ...CacheOption) *CachedSource {
	if ttl < 0 {
		ttl = 0
	}
	cs := &CachedSource{
		src:   src,
		ttl:   ttl,
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// Fetch returns a copy of the cached series, fetching it from the source on a miss. The shared
// fetch is not cancelled with the caller's context, the caller only stops waiting for it. A
// fetch that started before Invalidate is returned to its waiters but not cached.
func (c *CachedSource) Fetch(ctx context.Context) (observation.Series, error) {
	if series, ok := c.get(); ok {
		c.hits.Add(1)
		slog.Debug("series cache hit", "rows", len(series))
		return series, nil
	}
	c.misses.Add(1)
	slog.Debug("series cache miss")

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		// another caller may have filled the cache since the miss
		if series, ok := c.get(); ok {
			return series, nil
		}
		series, err := c.src.Fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.series = series.Copy()
			c.fetchedAt = c.clock.Now()
		} else {
			slog.Debug("series cache invalidated during fetch, not storing")
		}
		c.mu.Unlock()
		return series, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(observation.Series).Copy(), nil
	}
}

func (c *CachedSource) get() (observation.Series, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.series == nil {
		return nil, false
	}
	if c.ttl > 0 && c.clock.Since(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return c.series.Copy(), true
}

// Invalidate drops the cached series so the next Fetch goes to the source
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	c.series = nil
	c.fetchedAt = time.Time{}
	c.gen++
	c.mu.Unlock()
	slog.Info("series cache invalidated")
}

// FetchedAt returns when the cached series was fetched and false if nothing is cached
func (c *CachedSource) FetchedAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt, c.series != nil
}

// GetMetrics returns cache performance metrics
func (c *CachedSource) GetMetrics() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
