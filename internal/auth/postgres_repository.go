package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresOperatorRepository is a PostgreSQL implementation of OperatorRepository.
type PostgresOperatorRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOperatorRepository creates a new PostgreSQL operator repository.
func NewPostgresOperatorRepository(pool *pgxpool.Pool) *PostgresOperatorRepository {
	return &PostgresOperatorRepository{pool: pool}
}

// FindByEmail finds an operator by email, case-insensitively.
func (r *PostgresOperatorRepository) FindByEmail(ctx context.Context, email string) (*Operator, error) {
	query := `
		SELECT id, name, email, role, api_key_hash, created_at, updated_at
		FROM operators
		WHERE lower(email) = lower($1)
	`

	var op Operator
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&op.ID,
		&op.Name,
		&op.Email,
		&op.Role,
		&op.APIKeyHash,
		&op.CreatedAt,
		&op.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, err
	}

	return &op, nil
}

// Create creates a new operator.
func (r *PostgresOperatorRepository) Create(ctx context.Context, op *Operator) error {
	query := `
		INSERT INTO operators (id, name, email, role, api_key_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		op.ID,
		op.Name,
		op.Email,
		op.Role,
		op.APIKeyHash,
		op.CreatedAt,
		op.UpdatedAt,
	)
	return err
}

// FindByID finds an operator by their internal ID.
func (r *PostgresOperatorRepository) FindByID(ctx context.Context, id string) (*Operator, error) {
	query := `
		SELECT id, name, email, role, api_key_hash, created_at, updated_at
		FROM operators
		WHERE id = $1
	`

	var op Operator
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&op.ID,
		&op.Name,
		&op.Email,
		&op.Role,
		&op.APIKeyHash,
		&op.CreatedAt,
		&op.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, err
	}

	return &op, nil
}

// PostgresRefreshTokenRepository is a PostgreSQL implementation of RefreshTokenRepository.
type PostgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRefreshTokenRepository creates a new PostgreSQL refresh token repository.
func NewPostgresRefreshTokenRepository(pool *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{pool: pool}
}

// Create stores a new refresh token.
func (r *PostgresRefreshTokenRepository) Create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, token, operator_id, expires_at, created_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.Token,
		token.OperatorID,
		token.ExpiresAt,
		token.CreatedAt,
		token.RevokedAt,
	)
	return err
}

// FindByToken finds a refresh token by its value.
func (r *PostgresRefreshTokenRepository) FindByToken(ctx context.Context, tokenValue string) (*RefreshToken, error) {
	query := `
		SELECT id, token, operator_id, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token = $1
	`

	var token RefreshToken
	err := r.pool.QueryRow(ctx, query, tokenValue).Scan(
		&token.ID,
		&token.Token,
		&token.OperatorID,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	return &token, nil
}

// Revoke marks a refresh token as revoked.
func (r *PostgresRefreshTokenRepository) Revoke(ctx context.Context, tokenValue string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1
		WHERE token = $2 AND revoked_at IS NULL
	`

	_, err := r.pool.Exec(ctx, query, time.Now(), tokenValue)
	return err
}

// RevokeAllForOperator revokes all refresh tokens for an operator.
func (r *PostgresRefreshTokenRepository) RevokeAllForOperator(ctx context.Context, operatorID string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1
		WHERE operator_id = $2 AND revoked_at IS NULL
	`

	_, err := r.pool.Exec(ctx, query, time.Now(), operatorID)
	return err
}
