package admin

import (
	"log/slog"
	"net/http"

	request "sacra360/pkg/platform/middleware/request"
	"sacra360/pkg/requestcontext"
)

const RoleAdmin = "admin"

// RequireRole allows the request only when the authenticated caller has one
// of roles. It must run after auth.RequireAuth.
func RequireRole(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, ok := requestcontext.PrincipalFrom(ctx)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"autenticación requerida"}`))
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.WarnContext(ctx, "forbidden - role mismatch",
				"user_id", p.UserID,
				"role", p.Role,
				"request_id", request.GetRequestID(ctx),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"permisos insuficientes"}`))
		})
	}
}

// RequireAdmin is RequireRole for the admin role.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, RoleAdmin)
}
