package release

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sublyime/plumewatch/internal/dispersion"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL release repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const releaseColumns = `
	id, chemical_id, lat, lon, height, temperature, rate, total_mass, volume,
	duration_seconds, terrain, status, notes, started_at, stopped_at, created_at, updated_at
`

// Get retrieves a release by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Release, error) {
	query := `SELECT` + releaseColumns + `FROM releases WHERE id = $1`

	rel, err := scanRelease(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReleaseNotFound
		}
		return nil, err
	}
	return rel, nil
}

// List retrieves releases, optionally filtered by status.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	fetchLimit := limit + 1

	query := `
		SELECT` + releaseColumns + `
		FROM releases
		WHERE ($1 = '' OR status = $1)
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, string(opts.Status), fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	releases, err := collectReleases(rows)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Items: releases}
	if len(releases) > limit {
		result.Items = releases[:limit]
		result.NextCursor = releases[limit-1].ID
	}
	return result, nil
}

// ListActive retrieves all releases still marked active.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*Release, error) {
	query := `SELECT` + releaseColumns + `FROM releases WHERE status = $1 ORDER BY started_at`

	rows, err := r.pool.Query(ctx, query, string(StatusActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReleases(rows)
}

// Create creates a new release.
func (r *PostgresRepository) Create(ctx context.Context, rel *Release) error {
	query := `
		INSERT INTO releases (id, chemical_id, lat, lon, height, temperature, rate, total_mass, volume,
			duration_seconds, terrain, status, notes, started_at, stopped_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.pool.Exec(ctx, query,
		rel.ID,
		rel.ChemicalID,
		rel.Origin.Lat,
		rel.Origin.Lon,
		rel.Height,
		rel.Temperature,
		rel.Rate,
		rel.TotalMass,
		rel.Volume,
		rel.Duration.Seconds(),
		string(rel.Terrain),
		string(rel.Status),
		rel.Notes,
		rel.StartedAt,
		rel.StoppedAt,
		rel.CreatedAt,
		rel.UpdatedAt,
	)
	return err
}

// Update updates an existing release.
func (r *PostgresRepository) Update(ctx context.Context, rel *Release) error {
	query := `
		UPDATE releases SET
			height = $2,
			temperature = $3,
			rate = $4,
			total_mass = $5,
			volume = $6,
			duration_seconds = $7,
			terrain = $8,
			status = $9,
			notes = $10,
			stopped_at = $11,
			updated_at = $12
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		rel.ID,
		rel.Height,
		rel.Temperature,
		rel.Rate,
		rel.TotalMass,
		rel.Volume,
		rel.Duration.Seconds(),
		string(rel.Terrain),
		string(rel.Status),
		rel.Notes,
		rel.StoppedAt,
		rel.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrReleaseNotFound
	}
	return nil
}

// Delete deletes a release.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM releases WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrReleaseNotFound
	}
	return nil
}

func scanRelease(row pgx.Row) (*Release, error) {
	var (
		rel             Release
		durationSeconds float64
		terrain         string
		status          string
	)

	err := row.Scan(
		&rel.ID,
		&rel.ChemicalID,
		&rel.Origin.Lat,
		&rel.Origin.Lon,
		&rel.Height,
		&rel.Temperature,
		&rel.Rate,
		&rel.TotalMass,
		&rel.Volume,
		&durationSeconds,
		&terrain,
		&status,
		&rel.Notes,
		&rel.StartedAt,
		&rel.StoppedAt,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rel.Duration = time.Duration(durationSeconds * float64(time.Second))
	rel.Terrain = dispersion.Terrain(terrain)
	rel.Status = Status(status)
	return &rel, nil
}

func collectReleases(rows pgx.Rows) ([]*Release, error) {
	var releases []*Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		releases = append(releases, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return releases, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
