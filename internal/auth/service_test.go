package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyime/plumewatch/internal/auth"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()

	return auth.NewService(auth.ServiceConfig{
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey: "test-secret-key-for-testing-only",
			Issuer:     "https://api.plumewatch.io",
			Audience:   "plumewatch-api",
		}),
		OperatorRepo: auth.NewInMemoryOperatorRepository(),
		RefreshRepo:  auth.NewInMemoryRefreshTokenRepository(),
	})
}

func TestService_LoginFlow(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	op, err := svc.Provision(ctx, "Duty Officer", "duty@plant.example", auth.RoleReporter, "raw-api-key-1")
	require.NoError(t, err)
	assert.NotEmpty(t, op.ID)
	assert.NotEmpty(t, op.APIKeyHash)
	assert.NotEqual(t, "raw-api-key-1", op.APIKeyHash)

	tokens, err := svc.Login(ctx, &auth.LoginRequest{
		Email:  "duty@plant.example",
		APIKey: "raw-api-key-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, op.ID, tokens.Operator.ID)

	operatorID, role, err := svc.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, op.ID, operatorID)
	assert.Equal(t, auth.RoleReporter, role)
}

func TestService_Login_EmailIsCaseInsensitive(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Provision(ctx, "Duty Officer", "Duty@Plant.example", auth.RoleReporter, "raw-api-key-1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, &auth.LoginRequest{
		Email:  "duty@plant.example",
		APIKey: "raw-api-key-1",
	})
	assert.NoError(t, err)
}

func TestService_Login_WrongKey(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Provision(ctx, "Duty Officer", "duty@plant.example", auth.RoleReporter, "raw-api-key-1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, &auth.LoginRequest{
		Email:  "duty@plant.example",
		APIKey: "wrong-key",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_Login_UnknownEmail(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), &auth.LoginRequest{
		Email:  "nobody@plant.example",
		APIKey: "any-key",
	})

	// Indistinguishable from a wrong key.
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_RefreshRotation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Provision(ctx, "Duty Officer", "duty@plant.example", auth.RoleReporter, "raw-api-key-1")
	require.NoError(t, err)

	first, err := svc.Login(ctx, &auth.LoginRequest{
		Email:  "duty@plant.example",
		APIKey: "raw-api-key-1",
	})
	require.NoError(t, err)

	second, err := svc.RefreshAccessToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The used refresh token is revoked.
	_, err = svc.RefreshAccessToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestService_RevokeAllTokens(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	op, err := svc.Provision(ctx, "Duty Officer", "duty@plant.example", auth.RoleReporter, "raw-api-key-1")
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, &auth.LoginRequest{
		Email:  "duty@plant.example",
		APIKey: "raw-api-key-1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAllTokens(ctx, op.ID))

	_, err = svc.RefreshAccessToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestService_Provision_InvalidRole(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Provision(context.Background(), "X", "x@plant.example", auth.Role("OBSERVER"), "key")
	assert.Error(t, err)
}

func TestService_EnsureBootstrapAdmin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "admin@plant.example", "bootstrap-key"))

	// Idempotent on restart.
	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "admin@plant.example", "bootstrap-key"))

	tokens, err := svc.Login(ctx, &auth.LoginRequest{
		Email:  "admin@plant.example",
		APIKey: "bootstrap-key",
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, tokens.Operator.Role)
}

func TestService_EnsureBootstrapAdmin_Unconfigured(t *testing.T) {
	svc := newAuthService(t)

	// Missing config is a no-op, not an error.
	assert.NoError(t, svc.EnsureBootstrapAdmin(context.Background(), "", ""))
}
