// Package ratelimit keeps one token bucket per user.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdle = 10 * time.Minute
	sweepEvery  = 256
)

// PerKey limits events per key. A nil *PerKey allows everything.
type PerKey struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	calls   uint64
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// New returns a limiter admitting perSecond events per key with the given
// burst. It returns nil, which admits everything, when either is not positive.
func New(perSecond float64, burst int) *PerKey {
	if perSecond <= 0 || burst <= 0 {
		return nil
	}
	return &PerKey{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    defaultIdle,
		buckets: make(map[string]*bucket),
	}
}

// Allow consumes one token of key's bucket at now.
func (p *PerKey) Allow(key string, now time.Time) bool {
	if p == nil || key == "" {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(p.limit, p.burst)}
		p.buckets[key] = b
	}
	b.seen = now
	ok = b.lim.AllowN(now, 1)

	p.calls++
	if p.calls%sweepEvery == 0 {
		p.sweepLocked(now)
	}
	return ok
}

// Len returns the number of tracked keys.
func (p *PerKey) Len() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets)
}

func (p *PerKey) sweepLocked(now time.Time) {
	cutoff := now.Add(-p.idle)
	for k, b := range p.buckets {
		if b.seen.Before(cutoff) {
			delete(p.buckets, k)
		}
	}
}
