package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token policy
//
// Access tokens are HS256 JWTs valid for one hour, sent as Bearer
// tokens on API requests and held in memory only on the client.
// Refresh tokens are opaque 256-bit values valid for 30 days, rotated
// on every use and revocable via the logout endpoints. An incident
// console staying open for a long shift refreshes silently; a stolen
// access token goes stale within the hour.

// Token expiry constants.
const (
	// AccessTokenExpiry is how long access tokens are valid.
	AccessTokenExpiry = 1 * time.Hour

	// RefreshTokenExpiry is how long refresh tokens are valid.
	RefreshTokenExpiry = 30 * 24 * time.Hour // 30 days

	// RefreshTokenLength is the byte length of refresh tokens.
	RefreshTokenLength = 32
)

// Predefined JWT errors.
var (
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrAccessTokenExpired  = errors.New("access token has expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token has expired")
)

// JWTClaims represents the claims in our API access tokens.
type JWTClaims struct {
	jwt.RegisteredClaims

	// OperatorID is the authenticated operator's ID.
	OperatorID string `json:"oid"`

	// Role is the operator's role at issue time.
	Role Role `json:"role"`
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	// SigningKey is the secret key used to sign JWTs.
	SigningKey string

	// Issuer is the issuer claim for tokens (e.g., "https://api.plumewatch.io").
	Issuer string

	// Audience is the audience claim for tokens (e.g., "plumewatch-api").
	Audience string
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	return &JWTService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}
}

// GenerateAccessToken creates a new access token for the given operator.
func (s *JWTService) GenerateAccessToken(op *Operator) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(AccessTokenExpiry)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   op.ID,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
		OperatorID: op.ID,
		Role:       op.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateAccessToken validates an access token and returns the claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAccessTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

// RefreshToken represents a refresh token stored in the database.
type RefreshToken struct {
	ID         string
	Token      string
	OperatorID string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	RevokedAt  *time.Time
}

// GenerateRefreshToken creates a new opaque refresh token.
func GenerateRefreshToken() (string, error) {
	bytes := make([]byte, RefreshTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// generateTokenID generates a unique token ID.
func generateTokenID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
