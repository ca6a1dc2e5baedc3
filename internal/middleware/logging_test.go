package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"talawa-graphql/internal/logging"

	"github.com/stretchr/testify/assert"
)

func TestLoggingMiddleware_PropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Level: "info", Format: "json", Output: &buf})

	var seenID string
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = logging.GetRequestID(r.Context())
		logging.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "req-42", seenID)
	assert.Equal(t, "req-42", rr.Header().Get(RequestIDHeader))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, `"request_id":"req-42"`))
	assert.Contains(t, out, `"msg":"request completed"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestLoggingMiddleware_GeneratesRequestID(t *testing.T) {
	logger := logging.NewLogger(logging.Config{Output: &bytes.Buffer{}})
	handler := LoggingMiddleware(logger)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Len(t, rr.Header().Get(RequestIDHeader), 36)
}
