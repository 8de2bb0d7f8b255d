// Package auth provides authentication for PlumeWatch operators.
//
// Operators are provisioned out of band with a long random API key. The
// key is exchanged at login for a short-lived JWT access token plus a
// rotating refresh token; mutating API endpoints require the JWT.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Role controls what an operator may do through the API.
type Role string

const (
	// RoleReporter can report releases and read everything.
	RoleReporter Role = "REPORTER"

	// RoleAdmin can additionally manage the chemical catalog and
	// delete releases.
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleReporter || r == RoleAdmin
}

// Operator is an authenticated account in the system.
type Operator struct {
	ID    string `json:"operatorId"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`

	// APIKeyHash is the SHA-256 of the provisioned key. The raw key is
	// never stored.
	APIKeyHash string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HashAPIKey returns the stored form of an API key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email  string `json:"email"`
	APIKey string `json:"apiKey"`
}

// Validate validates the login request.
func (r *LoginRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Email == "" {
		errs = append(errs, FieldError{
			Field:   "email",
			Message: "email is required",
			Code:    "REQUIRED",
		})
	}
	if r.APIKey == "" {
		errs = append(errs, FieldError{
			Field:   "apiKey",
			Message: "api key is required",
			Code:    "REQUIRED",
		})
	}

	return errs
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TokenResponse represents the response after successful authentication.
type TokenResponse struct {
	// AccessToken is the JWT access token for API authentication.
	AccessToken string `json:"accessToken"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType"`

	// ExpiresIn is the number of seconds until the access token expires.
	ExpiresIn int64 `json:"expiresIn"`

	// RefreshToken is the opaque token used to obtain new access tokens.
	RefreshToken string `json:"refreshToken,omitempty"`

	// Operator contains the authenticated operator's information.
	Operator *Operator `json:"operator"`
}

// RefreshTokenRequest represents the request to refresh an access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Validate validates the refresh token request.
func (r *RefreshTokenRequest) Validate() []FieldError {
	var errs []FieldError

	if r.RefreshToken == "" {
		errs = append(errs, FieldError{
			Field:   "refreshToken",
			Message: "refresh token is required",
			Code:    "REQUIRED",
		})
	}

	return errs
}
