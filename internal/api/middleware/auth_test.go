package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyime/plumewatch/internal/api/middleware"
	"github.com/sublyime/plumewatch/internal/auth"
)

func TestAuth_MissingAuthorizationHeader(t *testing.T) {
	authService := createTestAuthService(t)
	authMiddleware := middleware.Auth(authService)

	handler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization header")
}

func TestAuth_InvalidAuthorizationFormat(t *testing.T) {
	authService := createTestAuthService(t)
	authMiddleware := middleware.Auth(authService)

	handler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "token123"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"just bearer", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	authService := createTestAuthService(t)
	authMiddleware := middleware.Auth(authService)

	handler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer invalid.jwt.token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid access token")
}

func TestAuth_ValidToken(t *testing.T) {
	authService := createTestAuthService(t)
	authMiddleware := middleware.Auth(authService)

	token := issueTestToken(t, &auth.Operator{
		ID:   "opr_testoperator1",
		Role: auth.RoleReporter,
	})

	var capturedID string
	var capturedRole auth.Role
	handler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = middleware.GetOperatorID(r.Context())
		capturedRole = middleware.GetOperatorRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "opr_testoperator1", capturedID)
	assert.Equal(t, auth.RoleReporter, capturedRole)
}

func TestAuth_CaseInsensitiveBearer(t *testing.T) {
	authService := createTestAuthService(t)
	authMiddleware := middleware.Auth(authService)

	token := issueTestToken(t, &auth.Operator{ID: "opr_testoperator1", Role: auth.RoleReporter})

	handler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []string{"Bearer ", "bearer ", "BEARER "}
	for _, prefix := range cases {
		t.Run(prefix, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			req.Header.Set("Authorization", prefix+token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	authService := createTestAuthService(t)
	authMiddleware := middleware.Auth(authService)
	adminOnly := middleware.RequireRole(auth.RoleAdmin)

	handler := authMiddleware(adminOnly(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	t.Run("reporter is rejected", func(t *testing.T) {
		token := issueTestToken(t, &auth.Operator{ID: "opr_reporter", Role: auth.RoleReporter})

		req := httptest.NewRequest(http.MethodDelete, "/test", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin is allowed", func(t *testing.T) {
		token := issueTestToken(t, &auth.Operator{ID: "opr_admin", Role: auth.RoleAdmin})

		req := httptest.NewRequest(http.MethodDelete, "/test", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGetOperatorID_NoAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	assert.Empty(t, middleware.GetOperatorID(req.Context()))
	assert.Empty(t, middleware.GetOperatorRole(req.Context()))
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T) *auth.Service {
	t.Helper()

	return auth.NewService(auth.ServiceConfig{
		JWTService:   testJWTService(),
		OperatorRepo: auth.NewInMemoryOperatorRepository(),
		RefreshRepo:  auth.NewInMemoryRefreshTokenRepository(),
	})
}

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.plumewatch.io",
		Audience:   "plumewatch-api",
	})
}

func issueTestToken(t *testing.T, op *auth.Operator) string {
	t.Helper()

	token, _, err := testJWTService().GenerateAccessToken(op)
	require.NoError(t, err)
	return token
}
