// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mdhender/aresmem"
	"golang.org/x/time/rate"
)

// IdleTimeout is how long a client's bucket is kept after its last request.
const IdleTimeout = 10 * time.Minute

// RateLimiter keeps one token bucket per client address.
// Buckets idle for IdleTimeout are dropped on a later request.
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*client
	rate       rate.Limit
	burst      int
	trustProxy bool
	lastSweep  time.Time
	now        func() time.Time
}

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter allows requestsPerMinute per client with the given burst.
// When trustProxy is set the client is taken from X-Forwarded-For.
func NewRateLimiter(requestsPerMinute, burst int, trustProxy bool) *RateLimiter {
	return &RateLimiter{
		clients:    make(map[string]*client),
		rate:       rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:      burst,
		trustProxy: trustProxy,
		lastSweep:  time.Now(),
		now:        time.Now,
	}
}

// SetClock sets the time source for testing.
func (rl *RateLimiter) SetClock(now func() time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.now = now
	rl.lastSweep = now()
}

// Allow reports whether the client may make a request now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= IdleTimeout {
		for k, c := range rl.clients {
			if now.Sub(c.seen) >= IdleTimeout {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = c
	}
	c.seen = now
	return c.limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(ClientIP(r, rl.trustProxy)) {
			writeDetail(w, aresmem.StatusCode(aresmem.ErrRateLimited), aresmem.ErrRateLimited.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the remote host. Behind a trusted proxy it returns the
// first X-Forwarded-For address instead, when there is one.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
