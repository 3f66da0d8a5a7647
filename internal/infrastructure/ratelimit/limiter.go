package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter holds one token bucket per API key.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

type entry struct {
	limiter   *rate.Limiter
	perMinute int
	lastSeen  time.Time
}

func NewKeyedLimiter(burst int) *KeyedLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &KeyedLimiter{
		limiters: make(map[string]*entry),
		burst:    burst,
		idleTTL:  30 * time.Minute,
		now:      time.Now,
	}
}

// Allow consumes one token for key at perMinute requests per minute.
// A changed perMinute rebuilds the bucket for that key.
func (l *KeyedLimiter) Allow(key string, perMinute int) bool {
	if perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	now := l.now()
	e, ok := l.limiters[key]
	if !ok || e.perMinute != perMinute {
		e = &entry{
			limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), l.burst),
			perMinute: perMinute,
		}
		l.limiters[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Cleanup drops buckets idle longer than the idle TTL.
func (l *KeyedLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	removed := 0
	for k, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, k)
			removed++
		}
	}
	return removed
}
