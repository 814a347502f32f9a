package handlers

import (
	"net"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/duitku/backend/src/logger"
	"github.com/username/duitku/backend/src/utils"
)

// ipRateLimiter is a fixed-window per-IP counter for sensitive endpoints
// (email lookups, password reset requests). The window resets when the cache
// entry expires.
type ipRateLimiter struct {
	counters *cache.Cache
	limit    int
	window   time.Duration
	name     string
}

func newIPRateLimiter(name string, limit int, window time.Duration) *ipRateLimiter {
	return &ipRateLimiter{
		counters: cache.New(window, 2*window),
		limit:    limit,
		window:   window,
		name:     name,
	}
}

// allow records a hit for the client IP and reports whether it stays within
// the window limit.
func (l *ipRateLimiter) allow(r *http.Request) bool {
	ip := clientIP(r)
	if err := l.counters.Add(ip, 1, l.window); err == nil {
		return true
	}
	count, err := l.counters.IncrementInt(ip, 1)
	if err != nil {
		// Entry expired between Add and Increment; start a new window.
		l.counters.Set(ip, 1, l.window)
		return true
	}
	if count > l.limit {
		logger.L.Warn("Rate limit exceeded", "limiter", l.name, "ip", ip, "count", count, "limit", l.limit)
		return false
	}
	return true
}

// middleware wraps a handler and answers 429 once the limit is hit.
func (l *ipRateLimiter) middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(r) {
			w.Header().Set("Retry-After", l.window.String())
			utils.SendJSONError(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
