package plume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sublyime/plumewatch/internal/dispersion"
)

// PostgresSnapshotRepository is a PostgreSQL implementation of
// SnapshotRepository. Contours are stored as JSONB; they are opaque to
// SQL and only ever read back whole.
type PostgresSnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSnapshotRepository creates a new PostgreSQL snapshot repository.
func NewPostgresSnapshotRepository(pool *pgxpool.Pool) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{pool: pool}
}

// GetLatest retrieves the most recent snapshot for a release.
func (r *PostgresSnapshotRepository) GetLatest(ctx context.Context, releaseID string) (*Snapshot, error) {
	query := `
		SELECT id, release_id, chemical_name, lat, lon,
			wind_speed, wind_direction, temperature, cloud_cover, observed_at,
			stability, terrain, strength, effective_height, contours, truncated, computed_at
		FROM plume_snapshots
		WHERE release_id = $1
		ORDER BY computed_at DESC
		LIMIT 1
	`

	var (
		snap        Snapshot
		terrain     string
		contoursRaw []byte
	)

	err := r.pool.QueryRow(ctx, query, releaseID).Scan(
		&snap.ID,
		&snap.ReleaseID,
		&snap.ChemicalName,
		&snap.Origin.Lat,
		&snap.Origin.Lon,
		&snap.Conditions.WindSpeed,
		&snap.Conditions.WindDirection,
		&snap.Conditions.Temperature,
		&snap.Conditions.CloudCover,
		&snap.Conditions.ObservedAt,
		&snap.Stability,
		&terrain,
		&snap.Strength,
		&snap.EffectiveHeight,
		&contoursRaw,
		&snap.Truncated,
		&snap.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}

	snap.Terrain = dispersion.Terrain(terrain)
	if err := json.Unmarshal(contoursRaw, &snap.Contours); err != nil {
		return nil, fmt.Errorf("decoding contours: %w", err)
	}

	return &snap, nil
}

// Put stores a snapshot, replacing any older one for the release.
func (r *PostgresSnapshotRepository) Put(ctx context.Context, snap *Snapshot) error {
	contoursRaw, err := json.Marshal(snap.Contours)
	if err != nil {
		return fmt.Errorf("encoding contours: %w", err)
	}

	query := `
		INSERT INTO plume_snapshots (id, release_id, chemical_name, lat, lon,
			wind_speed, wind_direction, temperature, cloud_cover, observed_at,
			stability, terrain, strength, effective_height, contours, truncated, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (release_id) DO UPDATE SET
			id = EXCLUDED.id,
			chemical_name = EXCLUDED.chemical_name,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			wind_speed = EXCLUDED.wind_speed,
			wind_direction = EXCLUDED.wind_direction,
			temperature = EXCLUDED.temperature,
			cloud_cover = EXCLUDED.cloud_cover,
			observed_at = EXCLUDED.observed_at,
			stability = EXCLUDED.stability,
			terrain = EXCLUDED.terrain,
			strength = EXCLUDED.strength,
			effective_height = EXCLUDED.effective_height,
			contours = EXCLUDED.contours,
			truncated = EXCLUDED.truncated,
			computed_at = EXCLUDED.computed_at
	`

	_, err = r.pool.Exec(ctx, query,
		snap.ID,
		snap.ReleaseID,
		snap.ChemicalName,
		snap.Origin.Lat,
		snap.Origin.Lon,
		snap.Conditions.WindSpeed,
		snap.Conditions.WindDirection,
		snap.Conditions.Temperature,
		snap.Conditions.CloudCover,
		snap.Conditions.ObservedAt,
		snap.Stability,
		string(snap.Terrain),
		snap.Strength,
		snap.EffectiveHeight,
		contoursRaw,
		snap.Truncated,
		snap.ComputedAt,
	)
	return err
}

// DeleteByRelease removes the snapshot history for a release.
func (r *PostgresSnapshotRepository) DeleteByRelease(ctx context.Context, releaseID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM plume_snapshots WHERE release_id = $1`, releaseID)
	return err
}

// Ensure PostgresSnapshotRepository implements SnapshotRepository.
var _ SnapshotRepository = (*PostgresSnapshotRepository)(nil)
