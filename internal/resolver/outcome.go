package resolver

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"talawa-graphql/internal/apierror"
	"talawa-graphql/internal/logging"
	"talawa-graphql/internal/observability"
	"talawa-graphql/internal/validation"
)

// errVoteVanished reports that a vote seen during lookup was gone by the time
// it was written.
var errVoteVanished = errors.New("post vote matched no row at write time")

// errNothingDeleted reports that a delete seen as valid during lookup removed
// no row.
var errNothingDeleted = errors.New("post vote delete removed no row")

// finish records the outcome of an operation and converts err into the
// error returned to graphql-go. Untyped errors become unexpected so driver
// messages never reach the client.
func finish(ctx context.Context, span trace.Span, operation string, err error) error {
	metrics := observability.GraphQLMetricsFromContext(ctx)
	if err == nil {
		metrics.RecordOperationOutcome(ctx, operation, "")
		endResolverSpan(span, "", nil)
		return nil
	}

	apiErr := apierror.Normalize(err)
	code := string(apiErr.Code)
	metrics.RecordOperationOutcome(ctx, operation, code)

	logger := logging.FromContext(ctx)
	if apiErr.Code == apierror.CodeUnexpected {
		reason := "fault"
		if errors.Is(apiErr, errVoteVanished) || errors.Is(apiErr, errNothingDeleted) {
			reason = "lost_race"
		}
		metrics.RecordUnexpected(ctx, operation, reason)
		logger.Error("operation failed unexpectedly",
			slog.String("operation", operation),
			slog.String("reason", reason),
			slog.String("error", apierror.Describe(apiErr)),
		)
	} else {
		logger.Debug("operation rejected",
			slog.String("operation", operation),
			slog.String("code", code),
		)
	}

	endResolverSpan(span, code, apiErr)
	return apiErr
}

func invalidArguments(issues []validation.Issue) *apierror.Error {
	out := make([]apierror.Issue, len(issues))
	for i, issue := range issues {
		out[i] = apierror.Issue{ArgumentPath: issue.Path, Message: issue.Message}
	}
	return apierror.InvalidArguments(out)
}

// inputObject returns args["input"] after it has passed validation.
func inputObject(args map[string]interface{}) map[string]interface{} {
	input, _ := args["input"].(map[string]interface{})
	return input
}

func stringField(input map[string]interface{}, name string) string {
	s, _ := input[name].(string)
	return s
}
