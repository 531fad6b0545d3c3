package gate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdleTimeout is how long a client address may sit unused before
// its limiter is pruned.
const limiterIdleTimeout = time.Hour

// loginLimiters throttles login attempts per client address. Each
// address gets its own token bucket so one noisy client cannot lock the
// whole gate.
type loginLimiters struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLoginLimiters(rps float64, burst int) *loginLimiters {
	return &loginLimiters{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
	}
}

// allow reports whether addr may attempt a login right now.
func (l *loginLimiters) allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	client, ok := l.clients[addr]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[addr] = client
	}
	client.lastSeen = time.Now()

	return client.limiter.Allow()
}

// prune drops limiters idle since before now minus limiterIdleTimeout
// and returns how many were removed.
func (l *loginLimiters) prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-limiterIdleTimeout)
	removed := 0
	for addr, client := range l.clients {
		if client.lastSeen.Before(cutoff) {
			delete(l.clients, addr)
			removed++
		}
	}
	return removed
}
