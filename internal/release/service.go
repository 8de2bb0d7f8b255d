package release

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sublyime/plumewatch/internal/chemical"
	"github.com/sublyime/plumewatch/internal/dispersion"
)

// Catalog is the slice of the chemical service the release service
// needs: resolving a chemical ID to its catalog entry.
type Catalog interface {
	Get(ctx context.Context, id string) (*chemical.Chemical, error)
}

// ServiceConfig holds configuration for the release service.
type ServiceConfig struct {
	Repo    Repository
	Catalog Catalog
	Logger  zerolog.Logger

	// Clock is injectable for tests. Defaults to the real clock.
	Clock clockwork.Clock
}

// Service provides release event operations.
type Service struct {
	repo    Repository
	catalog Catalog
	logger  zerolog.Logger
	clock   clockwork.Clock
}

// NewService creates a new release service.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		repo:    cfg.Repo,
		catalog: cfg.Catalog,
		logger:  cfg.Logger,
		clock:   clock,
	}
}

// Create validates and records a new release event. The release starts
// active; the recompute worker picks it up on its next cycle.
func (s *Service) Create(ctx context.Context, rel *Release) (*Release, error) {
	chem, err := s.catalog.Get(ctx, rel.ChemicalID)
	if err != nil {
		return nil, fmt.Errorf("%w: chemical %s: %s", ErrInvalidRelease, rel.ChemicalID, err)
	}

	if rel.Volume != nil && chem.LiquidDensity == nil {
		return nil, fmt.Errorf("%w: %s has no liquid density, volumetric quantification cannot be resolved",
			ErrInvalidRelease, chem.Name)
	}

	// The source term must resolve to a strength now, not at recompute
	// time when nobody is watching for the error.
	if _, err := rel.Source(chem.LiquidDensity).Strength(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRelease, err)
	}

	if rel.Terrain != "" {
		if _, err := dispersion.CoefficientsFor(dispersion.StabilityD, rel.Terrain); err != nil {
			return nil, fmt.Errorf("%w: unknown terrain %q", ErrInvalidRelease, rel.Terrain)
		}
	}

	now := s.clock.Now()
	rel.ID = uuid.NewString()
	rel.Status = StatusActive
	rel.StoppedAt = nil
	if rel.StartedAt.IsZero() {
		rel.StartedAt = now
	}
	rel.CreatedAt = now
	rel.UpdatedAt = now

	if err := s.repo.Create(ctx, rel); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("release_id", rel.ID).
		Str("chemical", chem.Name).
		Float64("lat", rel.Origin.Lat).
		Float64("lon", rel.Origin.Lon).
		Msg("release reported")

	return rel, nil
}

// Get retrieves a release by ID.
func (s *Service) Get(ctx context.Context, id string) (*Release, error) {
	return s.repo.Get(ctx, id)
}

// List retrieves releases, optionally filtered by status.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	return s.repo.List(ctx, opts)
}

// ListActive retrieves all active releases.
func (s *Service) ListActive(ctx context.Context) ([]*Release, error) {
	return s.repo.ListActive(ctx)
}

// Update validates and applies changes to an existing release. The
// chemical and start time are immutable; quantification, geometry, and
// notes may change as field reports improve.
func (s *Service) Update(ctx context.Context, rel *Release) (*Release, error) {
	existing, err := s.repo.Get(ctx, rel.ID)
	if err != nil {
		return nil, err
	}

	chem, err := s.catalog.Get(ctx, existing.ChemicalID)
	if err != nil {
		return nil, fmt.Errorf("%w: chemical %s: %s", ErrInvalidRelease, existing.ChemicalID, err)
	}

	if _, err := rel.Source(chem.LiquidDensity).Strength(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRelease, err)
	}

	rel.ChemicalID = existing.ChemicalID
	rel.StartedAt = existing.StartedAt
	rel.CreatedAt = existing.CreatedAt
	rel.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// Stop marks a release as ended. Stopped releases drop out of the
// recompute cycle but keep their history.
func (s *Service) Stop(ctx context.Context, id string) (*Release, error) {
	rel, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if rel.Status == StatusStopped {
		return nil, ErrAlreadyStopped
	}

	now := s.clock.Now()
	rel.Status = StatusStopped
	rel.StoppedAt = &now
	rel.UpdatedAt = now

	if err := s.repo.Update(ctx, rel); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("release_id", rel.ID).
		Time("stopped_at", now).
		Msg("release stopped")

	return rel, nil
}

// Delete removes a release.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
