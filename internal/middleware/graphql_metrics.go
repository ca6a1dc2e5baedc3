package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"talawa-graphql/internal/observability"
)

// GraphQLMetricsMiddleware records request metrics and makes metrics available
// to resolvers through the context.
func GraphQLMetricsMiddleware(metrics *observability.GraphQLMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, info := graphQLRequestInfo(r)
			// GraphiQL page loads carry no operation.
			if r.Method != http.MethodPost && info.operation == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := observability.ContextWithGraphQLMetrics(r.Context(), metrics)
			r = r.WithContext(ctx)

			metrics.IncrementActiveRequests(ctx)
			defer metrics.DecrementActiveRequests(ctx)

			start := time.Now()
			operationType := info.operationType()
			if operationType == "" {
				operationType = "unknown"
			}

			wrapped := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			hasErrors := wrapped.statusCode >= 400 || responseHasGraphQLErrors(wrapped.body.Bytes())
			metrics.RecordRequest(ctx, time.Since(start), hasErrors, operationType)
		})
	}
}

// metricsResponseWriter keeps a copy of the body so GraphQL errors returned
// with status 200 are still counted.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	body       bytes.Buffer
}

func (w *metricsResponseWriter) WriteHeader(statusCode int) {
	if !w.written {
		w.statusCode = statusCode
		w.written = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	_, _ = w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func responseHasGraphQLErrors(body []byte) bool {
	var payload struct {
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &payload); err != nil {
		return false
	}
	return len(payload.Errors) > 0
}
