package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type ipWindow struct {
	count       int
	windowStart time.Time
}

// RateLimiter is a per-IP fixed-window rate limiter: up to max requests per
// window, with the counter reset at each window boundary. Stale entries are
// removed by a janitor goroutine.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*ipWindow
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter creates a fixed-window limiter allowing max requests per window per IP.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*ipWindow),
		max:     max,
		window:  window,
		now:     time.Now,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.windowStart) >= rl.window {
		rl.windows[ip] = &ipWindow{count: 1, windowStart: now}
		return true
	}
	if w.count >= rl.max {
		return false
	}
	w.count++
	return true
}

// cleanup removes entries whose window has long elapsed.
func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(5 * time.Minute)
		rl.mu.Lock()
		for ip, w := range rl.windows {
			if rl.now().Sub(w.windowStart) > 2*rl.window {
				delete(rl.windows, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Limit is the middleware handler that enforces the rate limit per remote IP.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(realIP(r)) {
			writeJSONError(w, http.StatusTooManyRequests, "too many requests from this IP, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// realIP resolves the client address from proxy headers, falling back to RemoteAddr.
func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.Index(xff, ","); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xr := r.Header.Get("X-Real-Ip"); xr != "" {
		return xr
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
