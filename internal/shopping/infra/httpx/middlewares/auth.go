package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is an unexported type for context keys in this package.
// Using a custom type prevents collisions with keys from other packages.
type contextKey string

const (
	contextKeyCustomerID contextKey = "customer_id"
	contextKeyRole       contextKey = "role"
)

// RoleAdmin is the role claim required by administrative routes.
const RoleAdmin = "admin"

// CustomerID returns the authenticated customer id injected by Authenticate.
func CustomerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKeyCustomerID).(string)
	return id, ok && id != ""
}

// Role returns the role claim of the authenticated customer.
func Role(ctx context.Context) string {
	role, _ := ctx.Value(contextKeyRole).(string)
	return role
}

// Authenticate validates the Bearer token and injects the customer identity
// into the request context. The signing secret is shared with the customer
// service that issues the tokens.
func Authenticate(secret string) func(http.Handler) http.Handler {
	keyFunc := func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return []byte(secret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			claims := jwt.MapClaims{}
			if _, err := jwt.ParseWithClaims(raw, claims, keyFunc); err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				http.Error(w, "token has no subject", http.StatusUnauthorized)
				return
			}
			role, _ := claims["role"].(string)

			ctx := context.WithValue(r.Context(), contextKeyCustomerID, sub)
			ctx = context.WithValue(ctx, contextKeyRole, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a route behind a role claim.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Role(r.Context()) != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
