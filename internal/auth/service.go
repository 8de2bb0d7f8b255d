package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Predefined service errors.
var (
	ErrOperatorNotFound   = errors.New("operator not found")
	ErrInvalidCredentials = errors.New("invalid email or api key")
)

// OperatorRepository defines the interface for operator data operations.
type OperatorRepository interface {
	// FindByEmail finds an operator by email, case-insensitively.
	FindByEmail(ctx context.Context, email string) (*Operator, error)

	// Create creates a new operator.
	Create(ctx context.Context, op *Operator) error

	// FindByID finds an operator by their internal ID.
	FindByID(ctx context.Context, id string) (*Operator, error)
}

// RefreshTokenRepository defines the interface for refresh token operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token.
	Create(ctx context.Context, token *RefreshToken) error

	// FindByToken finds a refresh token by its value.
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)

	// Revoke marks a refresh token as revoked.
	Revoke(ctx context.Context, token string) error

	// RevokeAllForOperator revokes all refresh tokens for an operator.
	RevokeAllForOperator(ctx context.Context, operatorID string) error
}

// Service provides authentication operations.
type Service struct {
	jwtService   *JWTService
	operatorRepo OperatorRepository
	refreshRepo  RefreshTokenRepository
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService   *JWTService
	OperatorRepo OperatorRepository
	RefreshRepo  RefreshTokenRepository
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		jwtService:   cfg.JWTService,
		operatorRepo: cfg.OperatorRepo,
		refreshRepo:  cfg.RefreshRepo,
	}
}

// Login authenticates an operator with their provisioned API key and
// returns a token pair. The comparison runs on hashes in constant time;
// a wrong email and a wrong key produce the same error.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("validation error: %s", errs[0].Message)
	}

	op, err := s.operatorRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrOperatorNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding operator: %w", err)
	}

	submitted := HashAPIKey(req.APIKey)
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(op.APIKeyHash)) != 1 {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokens(ctx, op)
}

// RefreshAccessToken refreshes an access token using a refresh token.
// The used token is revoked and a new pair is issued.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshTokenStr string) (*TokenResponse, error) {
	refreshToken, err := s.refreshRepo.FindByToken(ctx, refreshTokenStr)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if refreshToken.RevokedAt != nil {
		return nil, ErrInvalidRefreshToken
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		return nil, ErrRefreshTokenExpired
	}

	op, err := s.operatorRepo.FindByID(ctx, refreshToken.OperatorID)
	if err != nil {
		return nil, ErrOperatorNotFound
	}

	if err := s.refreshRepo.Revoke(ctx, refreshTokenStr); err != nil {
		return nil, fmt.Errorf("revoking old refresh token: %w", err)
	}

	return s.generateTokens(ctx, op)
}

// ValidateAccessToken validates an access token and returns the
// operator ID and role embedded in it.
func (s *Service) ValidateAccessToken(tokenString string) (string, Role, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return "", "", err
	}
	return claims.OperatorID, claims.Role, nil
}

// GetOperator retrieves an operator by ID.
func (s *Service) GetOperator(ctx context.Context, operatorID string) (*Operator, error) {
	return s.operatorRepo.FindByID(ctx, operatorID)
}

// RevokeRefreshToken revokes a specific refresh token.
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshTokenStr string) error {
	return s.refreshRepo.Revoke(ctx, refreshTokenStr)
}

// RevokeAllTokens revokes all refresh tokens for an operator (logout
// everywhere).
func (s *Service) RevokeAllTokens(ctx context.Context, operatorID string) error {
	return s.refreshRepo.RevokeAllForOperator(ctx, operatorID)
}

// Provision creates a new operator with the given API key. Returns the
// stored operator; the caller is responsible for delivering the raw key.
func (s *Service) Provision(ctx context.Context, name, email string, role Role, apiKey string) (*Operator, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if email == "" || apiKey == "" {
		return nil, errors.New("email and api key are required")
	}

	now := time.Now()
	op := &Operator{
		ID:         generateOperatorID(),
		Name:       name,
		Email:      email,
		Role:       role,
		APIKeyHash: HashAPIKey(apiKey),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.operatorRepo.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("creating operator: %w", err)
	}

	return op, nil
}

// EnsureBootstrapAdmin provisions the admin account named by the
// deployment config if no operator with that email exists yet. Startup
// is idempotent across restarts.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, email, apiKey string) error {
	if email == "" || apiKey == "" {
		return nil
	}

	_, err := s.operatorRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrOperatorNotFound) {
		return err
	}

	_, err = s.Provision(ctx, "Bootstrap Admin", email, RoleAdmin, apiKey)
	return err
}

// generateTokens generates both access and refresh tokens for an operator.
func (s *Service) generateTokens(ctx context.Context, op *Operator) (*TokenResponse, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(op)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	refreshTokenStr, err := GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	refreshToken := &RefreshToken{
		ID:         uuid.New().String(),
		Token:      refreshTokenStr,
		OperatorID: op.ID,
		ExpiresAt:  time.Now().Add(RefreshTokenExpiry),
		CreatedAt:  time.Now(),
	}

	if err := s.refreshRepo.Create(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
		RefreshToken: refreshTokenStr,
		Operator:     op,
	}, nil
}

// generateOperatorID generates a unique operator ID with prefix.
func generateOperatorID() string {
	return "opr_" + uuid.New().String()[:22]
}
