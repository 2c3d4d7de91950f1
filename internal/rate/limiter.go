package rate

import (
	"sync"
	"time"
)

type bucket struct {
	count int
	start time.Time
}

// Limiter is a fixed-window in-memory rate limiter keyed by caller-chosen
// strings (email, IP). It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]bucket
	lastGC  time.Time

	now func() time.Time
}

// NewLimiter builds an empty limiter.
func NewLimiter() *Limiter {
	clock := func() time.Time { return time.Now().UTC() }
	return &Limiter{buckets: map[string]bucket{}, lastGC: clock(), now: clock}
}

// Allow records one attempt for key and reports whether it fits inside
// limit attempts per window.
func (l *Limiter) Allow(key string, limit int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastGC) > time.Minute {
		for k, b := range l.buckets {
			if now.Sub(b.start) > 3*window {
				delete(l.buckets, k)
			}
		}
		l.lastGC = now
	}
	b, ok := l.buckets[key]
	if !ok || now.Sub(b.start) >= window {
		l.buckets[key] = bucket{count: 1, start: now}
		return true
	}
	if b.count >= limit {
		return false
	}
	b.count++
	l.buckets[key] = b
	return true
}
