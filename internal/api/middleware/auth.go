package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sublyime/plumewatch/internal/api/models"
	"github.com/sublyime/plumewatch/internal/auth"
)

// operatorIDKey is the context key for the authenticated operator ID.
type operatorIDKey struct{}

// operatorRoleKey is the context key for the authenticated operator role.
type operatorRoleKey struct{}

// Auth creates authentication middleware that validates JWT bearer tokens.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract bearer token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, r, "missing authorization header")
				return
			}

			// Check for Bearer prefix (case-insensitive)
			const bearerPrefix = "Bearer "
			if len(authHeader) < len(bearerPrefix) ||
				!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
				writeUnauthorized(w, r, "invalid authorization header format")
				return
			}

			tokenString := authHeader[len(bearerPrefix):]
			if tokenString == "" {
				writeUnauthorized(w, r, "missing bearer token")
				return
			}

			// Validate the token
			operatorID, role, err := authService.ValidateAccessToken(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrAccessTokenExpired):
					writeUnauthorized(w, r, "access token has expired")
				case errors.Is(err, auth.ErrInvalidAccessToken):
					writeUnauthorized(w, r, "invalid access token")
				default:
					writeUnauthorized(w, r, "authentication failed")
				}
				return
			}

			// Add operator identity to context
			ctx := context.WithValue(r.Context(), operatorIDKey{}, operatorID)
			ctx = context.WithValue(ctx, operatorRoleKey{}, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole creates middleware that rejects requests whose operator
// does not hold the given role. Must run after Auth.
func RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetOperatorRole(r.Context()) != role {
				traceID := GetRequestID(r.Context())
				problem := models.NewForbidden(traceID, "insufficient role for this operation")
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeUnauthorized writes a 401 Unauthorized response.
// This is implemented directly here to avoid import cycle with response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := GetRequestID(r.Context())
	problem := models.NewUnauthorized(traceID, detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetOperatorID retrieves the authenticated operator ID from the context.
// Returns an empty string if not authenticated.
func GetOperatorID(ctx context.Context) string {
	if id, ok := ctx.Value(operatorIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GetOperatorRole retrieves the authenticated operator role from the
// context. Returns an empty role if not authenticated.
func GetOperatorRole(ctx context.Context) auth.Role {
	if role, ok := ctx.Value(operatorRoleKey{}).(auth.Role); ok {
		return role
	}
	return ""
}
