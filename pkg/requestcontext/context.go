// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the values; services read them without importing net/http:
//
//	actor := requestcontext.Actor(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActor(ctx, "admin-1", "reinstate")
package requestcontext

import (
	"context"
	"slices"
	"time"
)

type (
	actorKey       struct{}
	grantsKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// GrantReinstate allows an administrator to move a suspended driver back into review.
const GrantReinstate = "reinstate"

// Actor returns the administrator identity recorded as changed_by.
func Actor(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok {
		return a
	}
	return ""
}

// WithActor injects the acting administrator and the grants they hold.
func WithActor(ctx context.Context, actor string, grants ...string) context.Context {
	ctx = context.WithValue(ctx, actorKey{}, actor)
	return context.WithValue(ctx, grantsKey{}, slices.Clone(grants))
}

// HasGrant reports whether the acting administrator holds grant.
func HasGrant(ctx context.Context, grant string) bool {
	grants, _ := ctx.Value(grantsKey{}).([]string)
	return slices.Contains(grants, grant)
}

func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() outside HTTP requests (workers, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
