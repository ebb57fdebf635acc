// Package request carries per-request identity and client details through context.
package request

import (
	"context"

	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/shortener"
)

type contextKey struct{}

// Context describes the caller of the current request.
type Context struct {
	Owner     shortener.OwnerID // empty when the request is not authenticated
	Host      string
	ClientIP  string
	UserAgent string
	Referrer  string
}

// Authenticated reports whether the request carried a valid owner token.
func (c Context) Authenticated() bool {
	return !c.Owner.Anonymous()
}

// Visitor returns the click attribution for this request.
func (c Context) Visitor() analytics.Visitor {
	return analytics.Visitor{
		ClientIP:  c.ClientIP,
		UserAgent: c.UserAgent,
		Referrer:  c.Referrer,
	}
}

// WithContext stores rc in ctx.
func WithContext(ctx context.Context, rc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext returns the request context stored in ctx, or an anonymous zero value.
func FromContext(ctx context.Context) Context {
	if rc, ok := ctx.Value(contextKey{}).(Context); ok {
		return rc
	}

	return Context{}
}
