package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"talawa-graphql/internal/currentclient"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	handler := RateLimitMiddleware(RateLimitConfig{Enabled: false, RPS: 1, Burst: 1})(okHandler())

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/graphql", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimitMiddleware_BurstExceeded(t *testing.T) {
	handler := RateLimitMiddleware(RateLimitConfig{Enabled: true, RPS: 0.01, Burst: 2})(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), `"code":"too_many_requests"`)
}

func TestRateLimitMiddleware_SeparateBucketsPerClient(t *testing.T) {
	handler := RateLimitMiddleware(RateLimitConfig{Enabled: true, RPS: 0.01, Burst: 1})(okHandler())

	serve := func(remoteAddr, userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.RemoteAddr = remoteAddr
		if userID != "" {
			req = req.WithContext(currentclient.WithClient(req.Context(), currentclient.Client{IsAuthenticated: true, UserID: userID}))
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, serve("10.0.0.1:1111", ""))
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.1:2222", ""), "same IP shares a bucket across ports")
	assert.Equal(t, http.StatusOK, serve("10.0.0.2:1111", ""))
	assert.Equal(t, http.StatusOK, serve("10.0.0.1:1111", "user-a"), "authenticated callers are keyed by user")
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.9:1111", "user-a"))
}

func TestClientLimiter_RefillsAndSweeps(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newClientLimiter(1, 1, func() time.Time { return now })

	assert.True(t, limiter.allow("a"))
	assert.False(t, limiter.allow("a"))

	now = now.Add(time.Second)
	assert.True(t, limiter.allow("a"))

	now = now.Add(idleBucketTTL)
	assert.True(t, limiter.allow("b"))
	assert.NotContains(t, limiter.buckets, "a")
	assert.Contains(t, limiter.buckets, "b")
}
