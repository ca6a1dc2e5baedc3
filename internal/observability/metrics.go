package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// instruments creates instruments on one meter and keeps the first error, so
// constructors can declare every instrument before checking.
type instruments struct {
	meter metric.Meter
	err   error
}

func newInstruments(scope string) *instruments {
	return &instruments{meter: otel.Meter(scope)}
}

func (b *instruments) counter(name, description string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(description))
	b.keep(name, err)
	return c
}

func (b *instruments) upDownCounter(name, description string) metric.Int64UpDownCounter {
	c, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(description))
	b.keep(name, err)
	return c
}

func (b *instruments) histogram(name, description string) metric.Int64Histogram {
	h, err := b.meter.Int64Histogram(name, metric.WithDescription(description))
	b.keep(name, err)
	return h
}

func (b *instruments) durationHistogram(name, description string) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(name, metric.WithDescription(description), metric.WithUnit("ms"))
	b.keep(name, err)
	return h
}

func (b *instruments) keep(name string, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("failed to create instrument %s: %w", name, err)
	}
}

// GraphQLMetrics records /graphql traffic and per-operation resolver results.
type GraphQLMetrics struct {
	requestDuration   metric.Float64Histogram
	requests          metric.Int64Counter
	failedRequests    metric.Int64Counter
	activeRequests    metric.Int64UpDownCounter
	queryDepth        metric.Int64Histogram
	operationOutcomes metric.Int64Counter
	unexpected        metric.Int64Counter
}

// InitGraphQLMetrics creates the GraphQL instruments on the global meter
// provider.
func InitGraphQLMetrics() (*GraphQLMetrics, error) {
	b := newInstruments("talawa-graphql")
	m := &GraphQLMetrics{
		requestDuration:   b.durationHistogram("graphql.request.duration", "Duration of GraphQL requests in milliseconds"),
		requests:          b.counter("graphql.requests.total", "GraphQL requests by operation type"),
		failedRequests:    b.counter("graphql.errors.total", "GraphQL responses carrying at least one error"),
		activeRequests:    b.upDownCounter("graphql.requests.active", "GraphQL requests in flight"),
		queryDepth:        b.histogram("graphql.query.depth", "Selection depth of GraphQL operations"),
		operationOutcomes: b.counter("graphql.operation.outcomes.total", "Resolver outcomes by operation and error code"),
		unexpected:        b.counter("graphql.operation.unexpected.total", "Resolver failures reported to clients as unexpected"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// InitMetrics is InitGraphQLMetrics with startup logging.
func InitMetrics(logger *slog.Logger) (*GraphQLMetrics, error) {
	m, err := InitGraphQLMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GraphQL metrics: %w", err)
	}
	logger.Info("GraphQL metrics initialized")
	return m, nil
}

// RecordRequest records one finished /graphql request.
func (m *GraphQLMetrics) RecordRequest(ctx context.Context, duration time.Duration, hasErrors bool, operationType string) {
	if m == nil {
		return
	}
	opType := attribute.String("operation_type", operationType)
	attrs := metric.WithAttributes(opType, attribute.Bool("has_errors", hasErrors))

	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	m.requests.Add(ctx, 1, attrs)
	if hasErrors {
		m.failedRequests.Add(ctx, 1, metric.WithAttributes(opType))
	}
}

// RecordQueryDepth records the selection depth of an operation.
func (m *GraphQLMetrics) RecordQueryDepth(ctx context.Context, depth int64, operationType string) {
	if m == nil {
		return
	}
	m.queryDepth.Record(ctx, depth, metric.WithAttributes(attribute.String("operation_type", operationType)))
}

// RecordOperationOutcome counts one resolver result. code is empty on success.
func (m *GraphQLMetrics) RecordOperationOutcome(ctx context.Context, operation, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "ok"
	}
	m.operationOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("code", code),
	))
}

// RecordUnexpected counts a resolver failure surfaced as unexpected, such as
// a vote that disappeared between the read and the write.
func (m *GraphQLMetrics) RecordUnexpected(ctx context.Context, operation, reason string) {
	if m == nil {
		return
	}
	m.unexpected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("reason", reason),
	))
}

func (m *GraphQLMetrics) IncrementActiveRequests(ctx context.Context) {
	if m != nil {
		m.activeRequests.Add(ctx, 1)
	}
}

func (m *GraphQLMetrics) DecrementActiveRequests(ctx context.Context) {
	if m != nil {
		m.activeRequests.Add(ctx, -1)
	}
}

type graphQLMetricsKey struct{}

// ContextWithGraphQLMetrics makes m available to resolvers.
func ContextWithGraphQLMetrics(ctx context.Context, m *GraphQLMetrics) context.Context {
	return context.WithValue(ctx, graphQLMetricsKey{}, m)
}

// GraphQLMetricsFromContext returns the metrics stored in ctx, or nil. Every
// recording method accepts a nil receiver.
func GraphQLMetricsFromContext(ctx context.Context) *GraphQLMetrics {
	m, _ := ctx.Value(graphQLMetricsKey{}).(*GraphQLMetrics)
	return m
}
