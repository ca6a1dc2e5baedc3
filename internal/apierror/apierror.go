// Package apierror defines the typed errors returned by GraphQL resolvers.
// Each error carries a machine-readable code and optional per-argument issues
// that graphql-go copies into the response's error extensions.
package apierror

import (
	"errors"
	"fmt"
)

// Code identifies a class of resolver failure.
type Code string

const (
	CodeUnauthenticated                                  Code = "unauthenticated"
	CodeInvalidArguments                                 Code = "invalid_arguments"
	CodeArgumentsAssociatedResourcesNotFound             Code = "arguments_associated_resources_not_found"
	CodeUnauthorizedActionOnArgumentsAssociatedResources Code = "unauthorized_action_on_arguments_associated_resources"
	CodeForbiddenActionOnArgumentsAssociatedResources    Code = "forbidden_action_on_arguments_associated_resources"
	CodeUnauthorizedAction                               Code = "unauthorized_action"
	CodeUnexpected                                       Code = "unexpected"
)

var defaultMessages = map[Code]string{
	CodeUnauthenticated:                                  "You must be authenticated to perform this action.",
	CodeInvalidArguments:                                 "You have provided invalid arguments for this action.",
	CodeArgumentsAssociatedResourcesNotFound:             "No associated resources found for the provided arguments.",
	CodeUnauthorizedActionOnArgumentsAssociatedResources: "You are not authorized to perform this action on the resources associated to the provided arguments.",
	CodeForbiddenActionOnArgumentsAssociatedResources:    "This action is forbidden on the resources associated to the provided arguments.",
	CodeUnauthorizedAction:                               "You are not authorized to perform this action.",
	CodeUnexpected:                                       "Something went wrong. Please try again later.",
}

// Issue points at one offending argument. Message is omitted when the code
// alone explains the problem.
type Issue struct {
	ArgumentPath []any
	Message      string
}

func (i Issue) extension() map[string]interface{} {
	out := map[string]interface{}{"argumentPath": i.ArgumentPath}
	if i.Message != "" {
		out["message"] = i.Message
	}
	return out
}

// Error is a resolver failure visible to clients.
type Error struct {
	Code    Code
	Issues  []Issue
	message string
	cause   error
}

// New returns an error with the default message for code.
func New(code Code, issues ...Issue) *Error {
	return &Error{Code: code, Issues: issues, message: defaultMessages[code]}
}

// Wrap returns an error with code that keeps cause for logging. The cause is
// never exposed through Error or Extensions.
func Wrap(code Code, cause error, issues ...Issue) *Error {
	e := New(code, issues...)
	e.cause = cause
	return e
}

func (e *Error) Error() string {
	if e.message == "" {
		return string(e.Code)
	}
	return e.message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Extensions implements gqlerrors.ExtendedError.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": string(e.Code)}
	if len(e.Issues) > 0 {
		issues := make([]map[string]interface{}, 0, len(e.Issues))
		for _, issue := range e.Issues {
			issues = append(issues, issue.extension())
		}
		ext["issues"] = issues
	}
	return ext
}

// Unauthenticated is returned when no usable client identity is present.
func Unauthenticated() *Error {
	return New(CodeUnauthenticated)
}

// InvalidArguments reports argument validation issues.
func InvalidArguments(issues []Issue) *Error {
	return New(CodeInvalidArguments, issues...)
}

// NotFound reports that the resources referenced by path do not exist.
func NotFound(path ...any) *Error {
	return New(CodeArgumentsAssociatedResourcesNotFound, Issue{ArgumentPath: path})
}

// UnauthorizedOnResources reports that the caller may not act on the resources
// referenced by path.
func UnauthorizedOnResources(path ...any) *Error {
	return New(CodeUnauthorizedActionOnArgumentsAssociatedResources, Issue{ArgumentPath: path})
}

// ForbiddenOnResources reports a state conflict on the referenced resources.
func ForbiddenOnResources(message string, path ...any) *Error {
	return New(CodeForbiddenActionOnArgumentsAssociatedResources, Issue{ArgumentPath: path, Message: message})
}

// UnauthorizedAction reports that the caller's role forbids the operation.
func UnauthorizedAction() *Error {
	return New(CodeUnauthorizedAction)
}

// Unexpected reports an internal failure. cause is retained for logs only.
func Unexpected(cause error) *Error {
	return Wrap(CodeUnexpected, cause)
}

// Normalize converts any error into an *Error. Untyped errors become
// CodeUnexpected so driver messages never reach clients.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Unexpected(err)
}

// Describe renders err with its cause for log output.
func Describe(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.cause != nil {
		return fmt.Sprintf("%s: %v", apiErr.Code, apiErr.cause)
	}
	return err.Error()
}
