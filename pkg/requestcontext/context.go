// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Context keys and getter/setter functions live here so that services can read
// values set by middleware without importing net/http. Tests inject values the
// same way middleware does.
//
// Usage in services (read values):
//
//	actor := requestcontext.Actor(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithActor(ctx, actor)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// ActorRole is the already-resolved role of the calling identity. The core
// never authenticates; the auth edge supplies the role.
type ActorRole string

const (
	RoleIssuer   ActorRole = "ISSUER"
	RoleVerifier ActorRole = "VERIFIER"
)

// IsValid checks the role against the closed role set.
func (r ActorRole) IsValid() bool {
	return r == RoleIssuer || r == RoleVerifier
}

// ActorInfo carries identity facts resolved by the authentication collaborator.
type ActorInfo struct {
	ID   string
	Role ActorRole
}

// Context key types (unexported for encapsulation).
type (
	actorKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyActor       = actorKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Actor retrieves the resolved actor from the context. Returns the zero value
// when unauthenticated.
func Actor(ctx context.Context) ActorInfo {
	if a, ok := ctx.Value(ContextKeyActor).(ActorInfo); ok {
		return a
	}
	return ActorInfo{}
}

// WithActor injects a resolved actor into the context.
func WithActor(ctx context.Context, actor ActorInfo) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, sweeper, tests that
// don't care about time).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for the sweeper, which needs one consistent time per pass.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
