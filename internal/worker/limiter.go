package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per client key
type Limiter struct {
	limiters     map[string]*clientLimiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

// NewLimiter creates a limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*clientLimiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until the client may proceed or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.getLimiter(key).Wait(ctx)
}

// Allow reports whether the client may proceed now, consuming a token if so
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

// getLimiter returns the bucket for a client, creating it on first use
func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	cl, exists := l.limiters[key]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		// Double-check after acquiring write lock
		if cl, exists = l.limiters[key]; !exists {
			cl = &clientLimiter{limiter: rate.NewLimiter(l.defaultRate, l.defaultBurst)}
			l.limiters[key] = cl
		}
		l.mu.Unlock()
	}

	cl.mu.Lock()
	cl.lastSeen = time.Now()
	cl.mu.Unlock()

	return cl.limiter
}

// SetClientRate sets a custom rate for one client
func (l *Limiter) SetClientRate(key string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[key] = &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		lastSeen: time.Now(),
	}
}

// Sweep forgets clients idle for longer than idle and returns how many were removed
func (l *Limiter) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, cl := range l.limiters {
		cl.mu.Lock()
		stale := cl.lastSeen.Before(cutoff)
		cl.mu.Unlock()
		if stale {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked clients
func (l *Limiter) Clients() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}
