package api

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter provides simple in-memory sliding-window rate limiting per client.
type RateLimiter struct {
	requests   map[string][]time.Time
	mu         sync.Mutex
	limit      int
	window     time.Duration
	maxEntries int
	now        func() time.Time
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewRateLimiter creates a rate limiter with specified limit per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return NewRateLimiterWithMax(limit, window, 10000) // Default 10k max entries
}

// NewRateLimiterWithMax creates a rate limiter with configurable max entries
func NewRateLimiterWithMax(limit int, window time.Duration, maxEntries int) *RateLimiter {
	rl := &RateLimiter{
		requests:   make(map[string][]time.Time),
		limit:      limit,
		window:     window,
		maxEntries: maxEntries,
		now:        time.Now,
		stopChan:   make(chan struct{}),
	}
	// Cleanup old entries periodically
	go rl.cleanup()
	return rl
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for client, times := range rl.requests {
				if valid := rl.recent(times, now); len(valid) == 0 {
					delete(rl.requests, client)
				} else {
					rl.requests[client] = valid
				}
			}
			rl.mu.Unlock()
		case <-rl.stopChan:
			return
		}
	}
}

// recent filters times to those within the window ending at now.
func (rl *RateLimiter) recent(times []time.Time, now time.Time) []time.Time {
	valid := times[:0:0]
	for _, t := range times {
		if now.Sub(t) < rl.window {
			valid = append(valid, t)
		}
	}
	return valid
}

// Allow checks if a request from the given client is allowed
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := rl.recent(rl.requests[client], now)
	if len(valid) >= rl.limit {
		rl.requests[client] = valid
		return false
	}

	// Evict the entry with the oldest first request to stay under max
	if _, exists := rl.requests[client]; !exists && len(rl.requests) >= rl.maxEntries {
		var oldest string
		var oldestTime time.Time
		for c, times := range rl.requests {
			if len(times) > 0 && (oldest == "" || times[0].Before(oldestTime)) {
				oldest, oldestTime = c, times[0]
			}
		}
		if oldest != "" {
			delete(rl.requests, oldest)
			slog.Debug("Rate limiter evicted oldest client", "client", oldest)
		}
	}

	rl.requests[client] = append(valid, now)
	return true
}

// Wrap adds rate limiting to a handler
func (rl *RateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Use RemoteAddr directly - X-Forwarded-For is not trusted.
		client := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			client = host
		}

		if !rl.Allow(client) {
			slog.Warn("Rate limit exceeded", "client", client)
			w.Header().Set("Retry-After", "60")
			http.Error(w, `{"success":false,"error":{"code":"RATE_LIMIT","message":"Too many requests"}}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LimitBodySize wraps a handler with request body size limiting
func LimitBodySize(next http.Handler, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}
