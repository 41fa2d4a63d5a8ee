package ratelimit

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config holds rate limiting configuration. The limiter is an independent
// collaborator consulted before any form processing; it is not intertwined
// with the verification state machine.
type Config struct {
	Enabled    bool
	Capacity   int     // Max burst per source address
	RefillRate float64 // Requests per second per source address

	// Bucket TTL (how long to keep inactive buckets in memory)
	BucketTTL time.Duration
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:    false,
		Capacity:   30,
		RefillRate: 30.0 / 60.0, // 30 requests per minute

		// Keep buckets for 1 hour after last use
		BucketTTL: 1 * time.Hour,
	}
}

// Middleware holds the rate limiting middleware state
type Middleware struct {
	config  *Config
	limiter *RateLimiter
}

// NewMiddleware creates a new per-source-address rate limiting middleware
func NewMiddleware(config *Config) *Middleware {
	if config == nil {
		config = DefaultConfig()
	}

	m := &Middleware{config: config}

	if config.Enabled {
		m.limiter = NewRateLimiter(config.Capacity, config.RefillRate, config.BucketTTL)
	}

	return m
}

// Handler returns the rate limiting middleware handler
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := ClientIP(r)
		if ip != "" && !m.limiter.Allow(ip) {
			slog.Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path, "method", r.Method)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client IP address from the request
func ClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (set by proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header (set by some proxies/load balancers)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr, which is in "IP:port" form
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}

	return addr
}
