package testutil

import (
	"context"
	"net/http"

	"sacra360/pkg/requestcontext"
)

// WithPrincipal adds an authenticated caller to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithPrincipal(req *http.Request, userID int64, role string) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), requestcontext.Principal{
		UserID:   userID,
		Username: "test-user",
		Role:     role,
	})
	return req.WithContext(ctx)
}

// WithAdmin adds an authenticated admin to the request context.
func WithAdmin(req *http.Request) *http.Request {
	return WithPrincipal(req, 1, "admin")
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
