// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// limiterCache holds per-key rate limiters.
type limiterCache[K comparable] struct {
	mu       sync.Mutex
	limiters map[K]*rate.Limiter
	rps      float64
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (c *limiterCache[K]) get(key K) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(c.rps), c.burst)
		c.limiters[key] = limiter
	}
	return limiter
}

// clearIfExceeds drops all limiters when the cache grows past max.
// Crude but bounds memory for abusive traffic patterns.
func (c *limiterCache[K]) clearIfExceeds(max int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.limiters) <= max {
		return false
	}
	c.limiters = make(map[K]*rate.Limiter)
	return true
}

// maxTrackedClients bounds the per-IP limiter map. Forwarding headers
// are client-controlled, so the key space is effectively unbounded.
const maxTrackedClients = 10000

// GlobalRateLimiter rate limits requests per client IP.
type GlobalRateLimiter struct {
	limiters *limiterCache[string]
}

// NewGlobalRateLimiter creates a rate limiter allowing rps requests per
// second with the given burst, tracked per client IP.
func NewGlobalRateLimiter(rps float64, burst int) *GlobalRateLimiter {
	return &GlobalRateLimiter{
		limiters: newLimiterCache[string](rps, burst),
	}
}

// Middleware returns HTTP middleware enforcing the rate limit.
func (g *GlobalRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.limiters.clearIfExceeds(maxTrackedClients)
			if !g.limiters.get(getClientIP(r)).Allow() {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Set by reverse proxies
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	// X-Forwarded-For can contain multiple IPs; take the first one
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
