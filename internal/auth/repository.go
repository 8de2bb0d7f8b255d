package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemoryOperatorRepository is an in-memory implementation of
// OperatorRepository for testing and local development.
type InMemoryOperatorRepository struct {
	mu        sync.RWMutex
	operators map[string]*Operator // keyed by operator ID
	byEmail   map[string]string    // lowercased email -> operator ID
}

// NewInMemoryOperatorRepository creates a new in-memory operator repository.
func NewInMemoryOperatorRepository() *InMemoryOperatorRepository {
	return &InMemoryOperatorRepository{
		operators: make(map[string]*Operator),
		byEmail:   make(map[string]string),
	}
}

// FindByEmail finds an operator by email, case-insensitively.
func (r *InMemoryOperatorRepository) FindByEmail(_ context.Context, email string) (*Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrOperatorNotFound
	}

	op, ok := r.operators[id]
	if !ok {
		return nil, ErrOperatorNotFound
	}

	opCopy := *op
	return &opCopy, nil
}

// Create creates a new operator.
func (r *InMemoryOperatorRepository) Create(_ context.Context, op *Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	opCopy := *op
	r.operators[op.ID] = &opCopy
	r.byEmail[strings.ToLower(op.Email)] = op.ID

	return nil
}

// FindByID finds an operator by their internal ID.
func (r *InMemoryOperatorRepository) FindByID(_ context.Context, id string) (*Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, ok := r.operators[id]
	if !ok {
		return nil, ErrOperatorNotFound
	}

	opCopy := *op
	return &opCopy, nil
}

// InMemoryRefreshTokenRepository is an in-memory implementation of
// RefreshTokenRepository for testing and local development.
type InMemoryRefreshTokenRepository struct {
	mu         sync.RWMutex
	tokens     map[string]*RefreshToken // keyed by token value
	byOperator map[string][]string      // operator ID -> token values
}

// NewInMemoryRefreshTokenRepository creates a new in-memory refresh token repository.
func NewInMemoryRefreshTokenRepository() *InMemoryRefreshTokenRepository {
	return &InMemoryRefreshTokenRepository{
		tokens:     make(map[string]*RefreshToken),
		byOperator: make(map[string][]string),
	}
}

// Create stores a new refresh token.
func (r *InMemoryRefreshTokenRepository) Create(_ context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokenCopy := *token
	r.tokens[token.Token] = &tokenCopy
	r.byOperator[token.OperatorID] = append(r.byOperator[token.OperatorID], token.Token)

	return nil
}

// FindByToken finds a refresh token by its value.
func (r *InMemoryRefreshTokenRepository) FindByToken(_ context.Context, tokenValue string) (*RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[tokenValue]
	if !ok {
		return nil, ErrInvalidRefreshToken
	}

	tokenCopy := *token
	return &tokenCopy, nil
}

// Revoke marks a refresh token as revoked.
func (r *InMemoryRefreshTokenRepository) Revoke(_ context.Context, tokenValue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenValue]
	if !ok {
		return nil // already gone, treat as revoked
	}

	now := time.Now()
	token.RevokedAt = &now

	return nil
}

// RevokeAllForOperator revokes all refresh tokens for an operator.
func (r *InMemoryRefreshTokenRepository) RevokeAllForOperator(_ context.Context, operatorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokenValues, ok := r.byOperator[operatorID]
	if !ok {
		return nil
	}

	now := time.Now()
	for _, tokenValue := range tokenValues {
		if token, ok := r.tokens[tokenValue]; ok {
			token.RevokedAt = &now
		}
	}

	return nil
}
