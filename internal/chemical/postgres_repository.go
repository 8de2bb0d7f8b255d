package chemical

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL chemical repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const chemicalColumns = `
	id, name, cas_number, molecular_weight, liquid_density, boiling_point,
	guideline_tier1, guideline_tier2, guideline_tier3, created_at, updated_at
`

// Get retrieves a chemical by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Chemical, error) {
	query := `SELECT` + chemicalColumns + `FROM chemicals WHERE id = $1`
	return r.scanChemical(ctx, query, id)
}

// GetByCAS retrieves a chemical by CAS registry number.
func (r *PostgresRepository) GetByCAS(ctx context.Context, cas string) (*Chemical, error) {
	query := `SELECT` + chemicalColumns + `FROM chemicals WHERE cas_number = $1`
	return r.scanChemical(ctx, query, cas)
}

func (r *PostgresRepository) scanChemical(ctx context.Context, query string, args ...interface{}) (*Chemical, error) {
	var chem Chemical

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&chem.ID,
		&chem.Name,
		&chem.CASNumber,
		&chem.MolecularWeight,
		&chem.LiquidDensity,
		&chem.BoilingPoint,
		&chem.GuidelineLevels.Tier1,
		&chem.GuidelineLevels.Tier2,
		&chem.GuidelineLevels.Tier3,
		&chem.CreatedAt,
		&chem.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChemicalNotFound
		}
		return nil, err
	}

	return &chem, nil
}

// List retrieves catalog chemicals, optionally filtered by a name or
// CAS substring.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	fetchLimit := limit + 1

	query := `
		SELECT` + chemicalColumns + `
		FROM chemicals
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR cas_number LIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, opts.Query, fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chemicals []*Chemical
	for rows.Next() {
		var chem Chemical
		err := rows.Scan(
			&chem.ID,
			&chem.Name,
			&chem.CASNumber,
			&chem.MolecularWeight,
			&chem.LiquidDensity,
			&chem.BoilingPoint,
			&chem.GuidelineLevels.Tier1,
			&chem.GuidelineLevels.Tier2,
			&chem.GuidelineLevels.Tier3,
			&chem.CreatedAt,
			&chem.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		chemicals = append(chemicals, &chem)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{Items: chemicals}
	if len(chemicals) > limit {
		result.Items = chemicals[:limit]
		result.NextCursor = chemicals[limit-1].ID
	}

	return result, nil
}

// Create adds a chemical to the catalog.
func (r *PostgresRepository) Create(ctx context.Context, chem *Chemical) error {
	query := `
		INSERT INTO chemicals (id, name, cas_number, molecular_weight, liquid_density, boiling_point,
			guideline_tier1, guideline_tier2, guideline_tier3, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		chem.ID,
		chem.Name,
		chem.CASNumber,
		chem.MolecularWeight,
		chem.LiquidDensity,
		chem.BoilingPoint,
		chem.GuidelineLevels.Tier1,
		chem.GuidelineLevels.Tier2,
		chem.GuidelineLevels.Tier3,
		chem.CreatedAt,
		chem.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCAS
		}
		return err
	}
	return nil
}

// Update updates an existing chemical.
func (r *PostgresRepository) Update(ctx context.Context, chem *Chemical) error {
	query := `
		UPDATE chemicals SET
			name = $2,
			molecular_weight = $3,
			liquid_density = $4,
			boiling_point = $5,
			guideline_tier1 = $6,
			guideline_tier2 = $7,
			guideline_tier3 = $8,
			updated_at = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		chem.ID,
		chem.Name,
		chem.MolecularWeight,
		chem.LiquidDensity,
		chem.BoilingPoint,
		chem.GuidelineLevels.Tier1,
		chem.GuidelineLevels.Tier2,
		chem.GuidelineLevels.Tier3,
		chem.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrChemicalNotFound
	}

	return nil
}

// Delete removes a chemical from the catalog.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM chemicals WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrChemicalNotFound
	}

	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
