package middleware

import (
	"bytes"
	"log/slog"
	"net/http"

	"talawa-graphql/internal/dbexec"
	"talawa-graphql/internal/logging"
	"talawa-graphql/internal/resolver"

	"github.com/graphql-go/graphql/language/ast"
)

// MutationTransactionMiddleware runs every mutation field of a request in one
// transaction. Resolvers scope their writes with savepoints, so failed fields
// roll back alone and the transaction is committed once the handler returns.
// It is rolled back instead when it was doomed.
func MutationTransactionMiddleware(executor dbexec.QueryExecutor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if executor == nil {
				next.ServeHTTP(w, r)
				return
			}

			r, info := graphQLRequestInfo(r)
			if info.operationType() != ast.OperationTypeMutation {
				next.ServeHTTP(w, r)
				return
			}

			logger := logging.FromContext(r.Context())
			tx, err := executor.BeginTx(r.Context())
			if err != nil {
				logger.Error("failed to start mutation transaction", slog.String("error", err.Error()))
				writeGraphQLError(w, http.StatusInternalServerError, "Something went wrong. Please try again later.", "unexpected")
				return
			}

			mc := resolver.NewMutationContext(tx)
			ctx := resolver.WithMutationContext(r.Context(), mc)

			// The response is held back until the transaction is finalized so
			// a failed commit is never reported to the client as success.
			buffered := &bufferedResponseWriter{header: w.Header(), statusCode: http.StatusOK}
			defer func() {
				if rec := recover(); rec != nil {
					mc.MarkError()
					_ = mc.Finalize()
					panic(rec)
				}
			}()

			next.ServeHTTP(buffered, r.WithContext(ctx))

			// A doomed transaction discards writes the buffered body may
			// report as successful, so it is answered like a failed commit.
			doomed := mc.Failed()
			if err := mc.Finalize(); err != nil {
				logger.Error("failed to finalize mutation transaction",
					slog.Bool("rolled_back", doomed),
					slog.String("error", err.Error()),
				)
				doomed = true
			} else if doomed {
				logger.Error("mutation transaction rolled back")
			}
			if doomed {
				writeGraphQLError(w, http.StatusInternalServerError, "Something went wrong. Please try again later.", "unexpected")
				return
			}
			buffered.flushTo(w)
		})
	}
}

type bufferedResponseWriter struct {
	header     http.Header
	statusCode int
	body       bytes.Buffer
}

func (b *bufferedResponseWriter) Header() http.Header { return b.header }

func (b *bufferedResponseWriter) WriteHeader(statusCode int) { b.statusCode = statusCode }

func (b *bufferedResponseWriter) Write(p []byte) (int, error) { return b.body.Write(p) }

func (b *bufferedResponseWriter) flushTo(w http.ResponseWriter) {
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(b.body.Bytes())
}
