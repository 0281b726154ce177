// Package catalog shares one player/club catalog across all requests.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aatrey56/fpl-league-hub/internal/model"
)

// Loader fetches a fresh catalog.
type Loader func(ctx context.Context) (*model.Catalog, error)

// Cache holds the catalog for the process lifetime, or for TTL when set.
// Concurrent misses collapse into a single load.
type Cache struct {
	load        Loader
	ttl         time.Duration
	loadTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time

	group singleflight.Group
	loads atomic.Int64

	mu      sync.RWMutex
	current *model.Catalog
	loaded  time.Time
}

type Option func(*Cache)

// WithTTL refreshes the catalog after d. Zero keeps it forever.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		c.ttl = d
	}
}

// WithLoadTimeout bounds each upstream load, independent of the caller
// that triggered it.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.loadTimeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func withClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func New(load Loader, opts ...Option) *Cache {
	c := &Cache{
		load:        load,
		loadTimeout: 30 * time.Second,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the shared catalog. Callers must not modify it. A failed load
// is returned to every waiter and is not cached.
func (c *Cache) Get(ctx context.Context) (*model.Catalog, error) {
	if cat, ok := c.fresh(); ok {
		return cat, nil
	}

	ch := c.group.DoChan("catalog", func() (any, error) {
		if cat, ok := c.fresh(); ok {
			return cat, nil
		}
		// Detached so one caller giving up does not fail the others.
		lctx := context.WithoutCancel(ctx)
		if c.loadTimeout > 0 {
			var cancel context.CancelFunc
			lctx, cancel = context.WithTimeout(lctx, c.loadTimeout)
			defer cancel()
		}
		cat, err := c.load(lctx)
		c.loads.Add(1)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		c.mu.Lock()
		c.current = cat
		c.loaded = c.now()
		c.mu.Unlock()
		c.logger.Info("catalog loaded", "players", len(cat.Players), "clubs", len(cat.Clubs))
		return cat, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Catalog), nil
	}
}

// Loads reports how many upstream loads have run.
func (c *Cache) Loads() int64 {
	return c.loads.Load()
}

// Invalidate drops the cached catalog so the next Get reloads it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

func (c *Cache) fresh() (*model.Catalog, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(c.loaded) >= c.ttl {
		return nil, false
	}
	return c.current, true
}
