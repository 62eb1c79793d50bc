package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/clientpulse/clientpulse/internal/adapter/http/response"
	"github.com/clientpulse/clientpulse/internal/service/jwt"
)

type contextKey string

// AuthOperatorKey carries the validated token claims in the request context
const AuthOperatorKey contextKey = "auth_operator"

// TokenValidator validates operator access tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Claims, error)
}

// AuthMiddleware guards operator endpoints with bearer tokens
type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid bearer token
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(w, "invalid authorization header format")
			return
		}

		claims, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), AuthOperatorKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
