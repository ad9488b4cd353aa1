// Package ratelimit provides a per-key token bucket used to throttle chatty
// endpoints such as the username availability check.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed hands out one rate.Limiter per key and evicts idle entries so the map
// does not grow with every user ever seen.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	maxIdle time.Duration
}

func NewKeyed(limit rate.Limit, burst int) *Keyed {
	return &Keyed{
		entries: make(map[string]*entry),
		limit:   limit,
		burst:   burst,
		maxIdle: 10 * time.Minute,
	}
}

// Allow reports whether the event for key may proceed now.
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := time.Now()
	e, ok := k.entries[key]
	if !ok {
		if len(k.entries) > 4096 {
			k.evictLocked(now)
		}
		e = &entry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.entries[key] = e
	}
	e.lastSeen = now

	return e.limiter.Allow()
}

func (k *Keyed) evictLocked(now time.Time) {
	for key, e := range k.entries {
		if now.Sub(e.lastSeen) > k.maxIdle {
			delete(k.entries, key)
		}
	}
}
