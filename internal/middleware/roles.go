package middleware

import (
	"net/http"

	"github.com/ratewise/store-ratings/internal/api/httpx"
	"github.com/ratewise/store-ratings/internal/models"
)

// RequireRole allows only the given role through. Every protected route
// group is gated by exactly one role; there is no role hierarchy.
func RequireRole(need models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
				return
			}
			if id.Role != need {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "access denied", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
