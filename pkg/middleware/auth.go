package middleware

import (
	"net/http"
	"strings"

	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/contextkeys"
	"github.com/entitykit/entityauth/pkg/httputil"
)

// BearerAuth verifies the Authorization header and puts the token claims and
// user id on the request context.
type BearerAuth struct {
	issuer *auth.TokenIssuer
}

// NewBearerAuth creates bearer-token authentication middleware.
func NewBearerAuth(issuer *auth.TokenIssuer) *BearerAuth {
	return &BearerAuth{issuer: issuer}
}

// Handler wraps an HTTP handler with authentication
func (m *BearerAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		claims, err := m.issuer.VerifyAccessToken(parts[1])
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := contextkeys.WithClaims(r.Context(), claims)
		ctx = contextkeys.WithUserID(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClaims extracts verified token claims from the request, or nil when the
// request is unauthenticated.
func GetClaims(r *http.Request) *auth.Claims {
	claims, ok := r.Context().Value(contextkeys.ClaimsKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}
