package chemical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service provides chemical catalog operations.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new chemical catalog service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get retrieves a chemical by ID.
func (s *Service) Get(ctx context.Context, id string) (*Chemical, error) {
	return s.repo.Get(ctx, id)
}

// GetByCAS retrieves a chemical by CAS registry number.
func (s *Service) GetByCAS(ctx context.Context, cas string) (*Chemical, error) {
	if !ValidCAS(cas) {
		return nil, fmt.Errorf("%w: malformed CAS number %q", ErrInvalidChemical, cas)
	}
	return s.repo.GetByCAS(ctx, cas)
}

// List retrieves catalog chemicals, optionally filtered.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	return s.repo.List(ctx, opts)
}

// Create validates and adds a chemical to the catalog.
func (s *Service) Create(ctx context.Context, chem *Chemical) (*Chemical, error) {
	if err := chem.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidChemical, err)
	}

	now := time.Now()
	chem.ID = uuid.NewString()
	chem.CreatedAt = now
	chem.UpdatedAt = now

	if err := s.repo.Create(ctx, chem); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("chemical_id", chem.ID).
		Str("cas", chem.CASNumber).
		Str("name", chem.Name).
		Msg("chemical added to catalog")

	return chem, nil
}

// Update validates and updates an existing chemical.
func (s *Service) Update(ctx context.Context, chem *Chemical) (*Chemical, error) {
	if err := chem.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidChemical, err)
	}

	chem.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, chem); err != nil {
		return nil, err
	}

	return chem, nil
}

// Delete removes a chemical from the catalog.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ContourLevels returns the contour thresholds for a chemical: its
// exposure guideline tiers.
func (s *Service) ContourLevels(ctx context.Context, id string) ([]float64, error) {
	chem, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return chem.GuidelineLevels.ContourLevels(), nil
}

// Seed loads the built-in catalog into an empty repository. Existing
// entries with the same CAS number are left untouched.
func (s *Service) Seed(ctx context.Context) error {
	seeded := 0
	for _, chem := range BuiltinCatalog() {
		if _, err := s.repo.GetByCAS(ctx, chem.CASNumber); err == nil {
			continue
		}

		now := time.Now()
		chem.ID = uuid.NewString()
		chem.CreatedAt = now
		chem.UpdatedAt = now

		if err := s.repo.Create(ctx, chem); err != nil {
			return fmt.Errorf("seeding %s: %w", chem.CASNumber, err)
		}
		seeded++
	}

	if seeded > 0 {
		s.logger.Info().Int("count", seeded).Msg("seeded chemical catalog")
	}
	return nil
}
