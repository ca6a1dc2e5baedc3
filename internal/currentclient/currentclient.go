// Package currentclient carries the identity of the caller of a request.
package currentclient

import "context"

// Client is the caller as established by the authentication middleware.
type Client struct {
	IsAuthenticated bool
	UserID          string
}

type contextKey struct{}

// WithClient stores c in ctx.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the client stored in ctx. A missing client is
// unauthenticated.
func FromContext(ctx context.Context) Client {
	if ctx == nil {
		return Client{}
	}
	c, _ := ctx.Value(contextKey{}).(Client)
	if c.UserID == "" {
		c.IsAuthenticated = false
	}
	return c
}
