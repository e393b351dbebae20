package webserver

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const minLimiterIdle = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters keeps one token bucket per client address and forgets
// clients that have been quiet long enough for their bucket to refill.
type clientLimiters struct {
	mu        sync.Mutex
	every     rate.Limit
	burst     int
	idle      time.Duration
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiters(perMinute, burst int) *clientLimiters {
	every := rate.Limit(perMinute) / 60

	// A bucket idle for this long is full again, so dropping it is
	// indistinguishable from keeping it.
	idle := minLimiterIdle
	if perMinute > 0 {
		if refill := time.Duration(burst) * time.Minute / time.Duration(perMinute); refill > idle {
			idle = refill
		}
	}

	return &clientLimiters{
		every:     every,
		burst:     burst,
		idle:      idle,
		clients:   map[string]*clientLimiter{},
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// allow reports whether the client at ip may make a request now
func (l *clientLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}

	client, ok := l.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(l.every, l.burst)}
		l.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

func (l *clientLimiters) sweep(now time.Time) {
	for ip, client := range l.clients {
		if now.Sub(client.lastSeen) >= l.idle {
			delete(l.clients, ip)
		}
	}
	l.lastSweep = now
}

func (l *clientLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
