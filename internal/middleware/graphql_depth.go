package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"talawa-graphql/internal/logging"
	"talawa-graphql/internal/observability"
)

// QueryDepthMiddleware rejects operations whose selection depth exceeds
// maxDepth. A maxDepth of zero disables the check; depth is still recorded.
func QueryDepthMiddleware(maxDepth int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, info := graphQLRequestInfo(r)
			if info.operation == nil {
				next.ServeHTTP(w, r)
				return
			}

			depth := info.depth()
			observability.GraphQLMetricsFromContext(r.Context()).RecordQueryDepth(r.Context(), int64(depth), info.operationType())

			if maxDepth > 0 && depth > maxDepth {
				logging.FromContext(r.Context()).Warn("query depth limit exceeded",
					slog.Int("depth", depth),
					slog.Int("max_depth", maxDepth),
					slog.String("operation_name", info.operationName),
				)
				writeGraphQLError(w, http.StatusBadRequest,
					fmt.Sprintf("Query depth %d exceeds the maximum allowed depth of %d.", depth, maxDepth), "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
