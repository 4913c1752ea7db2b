package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientIdleTTL is how long an unused client bucket is kept.
const clientIdleTTL = 10 * time.Minute

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client IP.
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	limit   rate.Limit
	burst   int
	now     func() time.Time

	lastSweep time.Time
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		clients: make(map[string]*clientEntry),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether the client may act now.
func (l *clientLimiter) Allow(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	entry, ok := l.clients[clientID]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[clientID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops idle buckets at most once per TTL. Caller holds mu.
func (l *clientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < clientIdleTTL {
		return
	}
	l.lastSweep = now
	for id, e := range l.clients {
		if now.Sub(e.lastSeen) >= clientIdleTTL {
			delete(l.clients, id)
		}
	}
}

func (l *clientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
