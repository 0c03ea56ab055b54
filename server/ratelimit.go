package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client request limits.
type RateLimitConfig struct {
	// Enabled turns the limiter on.
	Enabled bool

	// RPS is the sustained request rate per client. Default: 10
	RPS float64

	// Burst is the number of requests a client may make at once. Default: 20
	Burst int

	// IdleTimeout is how long an unused client bucket is kept. Default: 10m
	IdleTimeout time.Duration
}

// RateLimiter keeps one token bucket per client key. A bucket unused for
// IdleTimeout is dropped by the next sweep, so the map holds at most the
// clients seen within roughly two idle periods.
type RateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.RPS <= 0 {
		config.RPS = 10
	}
	if config.Burst <= 0 {
		config.Burst = 20
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 10 * time.Minute
	}
	return &RateLimiter{
		limit:     rate.Limit(config.RPS),
		burst:     config.Burst,
		idle:      config.IdleTimeout,
		now:       time.Now,
		clients:   make(map[string]*client),
		lastSweep: time.Now(),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idle {
		rl.sweep(now)
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

// sweep drops clients idle for longer than the idle timeout. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) >= rl.idle {
			delete(rl.clients, key)
		}
	}
	rl.lastSweep = now
}

// Clients returns the number of tracked client keys.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Allow reports whether a request from key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}
