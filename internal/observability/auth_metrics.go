package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics counts bearer token handling in the authentication middleware.
type AuthMetrics struct {
	attempts              metric.Int64Counter
	failures              metric.Int64Counter
	successes             metric.Int64Counter
	anonymous             metric.Int64Counter
	tokenValidationErrors metric.Int64Counter
}

// InitAuthMetrics creates the authentication instruments.
func InitAuthMetrics() (*AuthMetrics, error) {
	b := newInstruments("talawa-graphql/auth")
	m := &AuthMetrics{
		attempts:              b.counter("auth.attempts.total", "Requests that presented a bearer token"),
		failures:              b.counter("auth.failures.total", "Bearer tokens that were rejected"),
		successes:             b.counter("auth.successes.total", "Bearer tokens that resolved to a user"),
		anonymous:             b.counter("auth.anonymous.total", "Requests served without a current user"),
		tokenValidationErrors: b.counter("auth.token.validation_errors.total", "Token validation errors by type"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// RecordAttempt records a request carrying a bearer token.
func (m *AuthMetrics) RecordAttempt(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordFailure records a rejected token. reason is a short stable label.
func (m *AuthMetrics) RecordFailure(ctx context.Context, mode, reason string) {
	if m == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("reason", reason),
	))
	m.tokenValidationErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("error_type", reason),
	))
}

// RecordSuccess records a token that resolved to a user id.
func (m *AuthMetrics) RecordSuccess(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.successes.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordAnonymous records a request that continues without a current user.
func (m *AuthMetrics) RecordAnonymous(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.anonymous.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
