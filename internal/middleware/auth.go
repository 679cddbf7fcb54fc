package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ratewise/store-ratings/internal/api/httpx"
	"github.com/ratewise/store-ratings/internal/auth"
	"github.com/ratewise/store-ratings/internal/models"
)

type claimsKey struct{}

// Identity is the resolved caller attached to the request context.
type Identity struct {
	UserID string
	Role   models.Role
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, claimsKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(claimsKey{}).(Identity)
	return id, ok
}

type AuthMiddleware struct {
	TM *auth.TokenManager
}

func NewAuthMiddleware(tm *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{TM: tm}
}

// Auth requires a valid bearer token and puts the caller's identity on
// the context. Missing header and bad token are both 401, with distinct
// codes.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
			return
		}
		token := strings.TrimSpace(ah[len("Bearer "):])

		claims, err := m.TM.Parse(token)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token", nil)
			return
		}
		ctx := WithIdentity(r.Context(), Identity{UserID: claims.UserID, Role: claims.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
