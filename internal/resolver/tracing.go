package resolver

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "talawa-graphql/resolver"

// startResolverSpan opens the span of one root field. graphql-go can hand
// resolvers a nil context.
func startResolverSpan(ctx context.Context, field string) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return otel.Tracer(tracerName).Start(ctx, "graphql.resolve."+field,
		trace.WithAttributes(attribute.String("graphql.operation.field", field)))
}

// endResolverSpan tags the span with the result code ("success" when err is
// nil) and ends it.
func endResolverSpan(span trace.Span, code string, err error) {
	if err == nil {
		code = "success"
	}
	span.SetAttributes(attribute.String("graphql.resolver.outcome", code))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
	}
	span.End()
}
