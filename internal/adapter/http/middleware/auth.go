package middleware

import (
	"net/http"
	"strings"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/auth"
)

// Headers set by the upstream authentication gateway when JWT auth is off.
const (
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"
)

// AuthMiddleware verifies the bearer token and stores the principal in the
// request context.
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := domain.WithPrincipal(r.Context(), claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HeaderAuth trusts the identity headers of the gateway. A missing role
// defaults to investor.
func HeaderAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+UserIDHeader+" header")
			return
		}

		role := domain.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(UserRoleHeader))))
		if role == "" {
			role = domain.RoleInvestor
		}
		if !role.IsValid() {
			writeError(w, http.StatusUnauthorized, "unknown role")
			return
		}

		ctx := domain.WithPrincipal(r.Context(), domain.Principal{UserID: userID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers without role. Admins pass every check.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := domain.PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if p.Role != role && !p.IsAdmin() {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
