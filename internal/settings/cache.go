// Package settings caches the CMS branding row so link-preview renders do
// not hit the content store on every request.
package settings

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
	"github.com/shakilemon73/Tni-news-sub001/internal/clock"
	"github.com/shakilemon73/Tni-news-sub001/internal/metrics"
)

// DefaultTTL is how long a loaded settings row is served before reloading.
const DefaultTTL = 5 * time.Minute

// Source loads the settings row.
type Source interface {
	SiteSettings(ctx context.Context) (article.SiteSettings, error)
}

// Cache is a read-through TTL cache over a Source. Concurrent refreshes are
// collapsed into one store call.
type Cache struct {
	src    Source
	ttl    time.Duration
	clock  clock.Clock
	logger *zap.Logger
	group  singleflight.Group

	mu       sync.RWMutex
	value    article.SiteSettings
	loadedAt time.Time
	loaded   bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL. Non-positive values disable caching.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock replaces the system clock.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) { c.clock = clk }
}

// WithLogger sets the logger used for refresh failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a Cache over src.
func New(src Source, opts ...Option) *Cache {
	c := &Cache{
		src:    src,
		ttl:    DefaultTTL,
		clock:  clock.System{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached settings, reloading them once the TTL has passed.
// A missing row yields zero settings so renders fall back to defaults. When
// a reload fails and a previous value exists, the stale value is served.
func (c *Cache) Get(ctx context.Context) (article.SiteSettings, error) {
	if v, ok := c.fresh(); ok {
		return v, nil
	}

	ch := c.group.DoChan("settings", func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return article.SiteSettings{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return c.stale(res.Err)
		}
		return res.Val.(article.SiteSettings), nil
	}
}

// Invalidate drops the cached value so the next Get reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}

func (c *Cache) fresh() (article.SiteSettings, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded || c.ttl <= 0 || c.clock.Now().Sub(c.loadedAt) >= c.ttl {
		return article.SiteSettings{}, false
	}
	return c.value, true
}

func (c *Cache) refresh(ctx context.Context) (article.SiteSettings, error) {
	v, err := c.src.SiteSettings(ctx)
	switch {
	case errors.Is(err, article.ErrNotFound):
		v = article.SiteSettings{}
	case err != nil:
		metrics.ObserveSettingsRefresh("error")
		c.logger.Warn("site settings refresh failed", zap.Error(err))
		return article.SiteSettings{}, err
	}
	metrics.ObserveSettingsRefresh("ok")

	c.mu.Lock()
	c.value = v
	c.loadedAt = c.clock.Now()
	c.loaded = true
	c.mu.Unlock()
	return v, nil
}

func (c *Cache) stale(err error) (article.SiteSettings, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loadedAt.IsZero() {
		return article.SiteSettings{}, err
	}
	return c.value, nil
}
