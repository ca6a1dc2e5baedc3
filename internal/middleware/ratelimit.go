package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"talawa-graphql/internal/currentclient"
	"talawa-graphql/internal/logging"
)

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// idleBucketTTL bounds how long an unused bucket is kept.
const idleBucketTTL = 10 * time.Minute

// RateLimitMiddleware limits each client separately. Authenticated requests
// are keyed by user id, anonymous ones by remote IP, so it must run after
// AuthMiddleware.
func RateLimitMiddleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	limiter := newClientLimiter(cfg.RPS, cfg.Burst, time.Now)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)
			if !limiter.allow(key) {
				logging.FromContext(r.Context()).Warn("rate limit exceeded")
				w.Header().Set("Retry-After", "1")
				writeGraphQLError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", "too_many_requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if client := currentclient.FromContext(r.Context()); client.IsAuthenticated {
		return "user:" + client.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

type clientLimiter struct {
	mu        sync.Mutex
	rate      float64
	burst     float64
	buckets   map[string]*tokenBucket
	now       func() time.Time
	lastSweep time.Time
}

type tokenBucket struct {
	tokens float64
	last   time.Time
}

func newClientLimiter(rps float64, burst int, now func() time.Time) *clientLimiter {
	return &clientLimiter{
		rate:      rps,
		burst:     float64(burst),
		buckets:   make(map[string]*tokenBucket),
		now:       now,
		lastSweep: now(),
	}
}

func (l *clientLimiter) allow(key string) bool {
	if l.rate <= 0 || l.burst <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: l.burst, last: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(l.burst, b.tokens+elapsed*l.rate)
		b.last = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets that have been idle for idleBucketTTL.
func (l *clientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleBucketTTL {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.last) >= idleBucketTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
