// Package ratelimit implements per-client token buckets for forced renders.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shakilemon73/Tni-news-sub001/internal/clock"
)

// idleAfter is how long an unused bucket is kept before it is swept.
const idleAfter = 10 * time.Minute

// Limiter manages per-key rate limits.
type Limiter struct {
	mu        sync.Mutex
	limiters  map[string]*entry
	rate      rate.Limit
	burst     int
	clock     clock.Clock
	lastSweep time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Config holds rate limiter configuration.
type Config struct {
	RPS   float64
	Burst int
	// Clock defaults to the system clock.
	Clock clock.Clock
}

// New creates a new Limiter. A non-positive RPS disables limiting.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}
	return &Limiter{
		limiters:  make(map[string]*entry),
		rate:      r,
		burst:     burst,
		clock:     clk,
		lastSweep: clk.Now(),
	}
}

// Allow reports whether key may proceed now, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.rate == rate.Inf {
		return true
	}
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)
	e, ok := l.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleAfter {
		return
	}
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) >= idleAfter {
			delete(l.limiters, k)
		}
	}
	l.lastSweep = now
}
