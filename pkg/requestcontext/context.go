// Package requestcontext carries request-scoped values (caller, request id,
// client metadata, request clock) from middleware to services without
// importing net/http.
//
// Tests set values directly:
//
//	ctx = requestcontext.WithTime(ctx, fixed)
//	ctx = requestcontext.WithPrincipal(ctx, requestcontext.Principal{UserID: 1, Role: "admin"})
package requestcontext

import (
	"context"
	"time"
)

type (
	principalKey   struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Principal is the authenticated officiant or operator.
type Principal struct {
	UserID   int64
	Username string
	Role     string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// UserID is 0 for anonymous calls.
func UserID(ctx context.Context) int64 {
	p, _ := PrincipalFrom(ctx)
	return p.UserID
}

func Role(ctx context.Context) string {
	p, _ := PrincipalFrom(ctx)
	return p.Role
}

func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

func ClientIP(ctx context.Context) string { return stringValue(ctx, clientIPKey{}) }

func UserAgent(ctx context.Context) string { return stringValue(ctx, userAgentKey{}) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey{}) }

// WithTime fixes the clock seen by Now for the rest of the request.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the request time, or time.Now outside a request (workers, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func stringValue(ctx context.Context, key any) string {
	s, _ := ctx.Value(key).(string)
	return s
}
