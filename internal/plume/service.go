package plume

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sublyime/plumewatch/internal/chemical"
	"github.com/sublyime/plumewatch/internal/dispersion"
	"github.com/sublyime/plumewatch/internal/release"
	"github.com/sublyime/plumewatch/internal/weather"
	"github.com/sublyime/plumewatch/pkg/geo"
)

// Releases is the slice of the release service the engine needs.
type Releases interface {
	Get(ctx context.Context, id string) (*release.Release, error)
}

// Catalog is the slice of the chemical service the engine needs.
type Catalog interface {
	Get(ctx context.Context, id string) (*chemical.Chemical, error)
}

// Weather is the slice of the weather service the engine needs.
type Weather interface {
	GetCurrentWeather(ctx context.Context, point geo.Point) (*weather.Observation, error)
}

// ServiceConfig holds configuration for the plume service.
type ServiceConfig struct {
	Releases  Releases
	Catalog   Catalog
	Weather   Weather
	Snapshots SnapshotRepository
	Logger    zerolog.Logger

	// Classifier assigns stability classes. Defaults apply when nil.
	Classifier *dispersion.Classifier

	// PlumeRise computes buoyant rise. Defaults apply when nil.
	PlumeRise *dispersion.PlumeRise

	// Contours tunes the footprint sweep. Zero value means engine
	// defaults.
	Contours dispersion.ContourConfig

	// Clock is injectable for tests. Defaults to the real clock.
	Clock clockwork.Clock
}

// Service runs the dispersion pipeline for release events.
type Service struct {
	releases   Releases
	catalog    Catalog
	weather    Weather
	snapshots  SnapshotRepository
	logger     zerolog.Logger
	classifier *dispersion.Classifier
	plumeRise  *dispersion.PlumeRise
	contours   dispersion.ContourConfig
	clock      clockwork.Clock
}

// NewService creates a new plume service.
func NewService(cfg ServiceConfig) *Service {
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = dispersion.NewClassifier(dispersion.DefaultClassifierConfig())
	}

	plumeRise := cfg.PlumeRise
	if plumeRise == nil {
		plumeRise = dispersion.NewPlumeRise(dispersion.PlumeRiseConfig{})
	}

	contours := cfg.Contours
	if contours.Sectors == 0 {
		contours = dispersion.DefaultContourConfig()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		releases:   cfg.Releases,
		catalog:    cfg.Catalog,
		weather:    cfg.Weather,
		snapshots:  cfg.Snapshots,
		logger:     cfg.Logger,
		classifier: classifier,
		plumeRise:  plumeRise,
		contours:   contours,
		clock:      clock,
	}
}

// Compute runs the full pipeline for one release and stores the
// resulting snapshot: fetch weather at the origin, classify stability,
// resolve the source term, apply plume rise, and sweep the contours at
// the chemical's guideline levels.
func (s *Service) Compute(ctx context.Context, releaseID string) (*Snapshot, error) {
	rel, err := s.releases.Get(ctx, releaseID)
	if err != nil {
		return nil, err
	}

	built, err := s.buildPlume(ctx, rel)
	if err != nil {
		return nil, err
	}

	contours, err := dispersion.GenerateContours(built.plume, s.contours, built.chem.GuidelineLevels.ContourLevels())
	if err != nil {
		return nil, fmt.Errorf("contour sweep for release %s: %w", releaseID, err)
	}

	truncated := false
	for _, c := range contours {
		if c.Truncated {
			truncated = true
			break
		}
	}

	snap := &Snapshot{
		ID:              uuid.NewString(),
		ReleaseID:       rel.ID,
		ChemicalName:    built.chem.Name,
		Origin:          rel.Origin,
		Conditions:      built.conditions,
		Stability:       built.stability.String(),
		Terrain:         built.terrain,
		Strength:        built.plume.Strength,
		EffectiveHeight: built.plume.EffectiveHeight,
		Contours:        contours,
		Truncated:       truncated,
		ComputedAt:      s.clock.Now(),
	}

	if err := s.snapshots.Put(ctx, snap); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("release_id", rel.ID).
		Str("chemical", built.chem.Name).
		Str("stability", snap.Stability).
		Float64("effective_height", snap.EffectiveHeight).
		Bool("truncated", snap.Truncated).
		Msg("plume snapshot computed")

	return snap, nil
}

// Latest returns the most recently stored snapshot for a release.
func (s *Service) Latest(ctx context.Context, releaseID string) (*Snapshot, error) {
	return s.snapshots.GetLatest(ctx, releaseID)
}

// EvaluateReceptors computes concentrations at specific receptor points
// for a release under current weather. Nothing is persisted; this backs
// ad-hoc "what would we measure here" queries.
func (s *Service) EvaluateReceptors(ctx context.Context, releaseID string, receptors []dispersion.Receptor) ([]dispersion.ConcentrationResult, error) {
	rel, err := s.releases.Get(ctx, releaseID)
	if err != nil {
		return nil, err
	}

	built, err := s.buildPlume(ctx, rel)
	if err != nil {
		return nil, err
	}

	return built.plume.EvaluateReceptors(receptors), nil
}

// DropSnapshots removes stored snapshots for a release. Called when a
// release is deleted.
func (s *Service) DropSnapshots(ctx context.Context, releaseID string) error {
	return s.snapshots.DeleteByRelease(ctx, releaseID)
}

// builtPlume carries the intermediate products of one pipeline run.
type builtPlume struct {
	plume      *dispersion.Plume
	chem       *chemical.Chemical
	conditions Conditions
	stability  dispersion.StabilityClass
	terrain    dispersion.Terrain
}

func (s *Service) buildPlume(ctx context.Context, rel *release.Release) (*builtPlume, error) {
	chem, err := s.catalog.Get(ctx, rel.ChemicalID)
	if err != nil {
		return nil, fmt.Errorf("chemical %s: %w", rel.ChemicalID, err)
	}

	obs, err := s.weather.GetCurrentWeather(ctx, rel.Origin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeatherUnavailable, err)
	}

	state := obs.State()
	stability := s.classifier.Classify(state)

	coeffs, err := dispersion.CoefficientsFor(stability, rel.Terrain)
	if err != nil {
		return nil, err
	}

	src := rel.Source(chem.LiquidDensity)
	strength, err := src.Strength()
	if err != nil {
		return nil, err
	}

	effectiveHeight, err := s.plumeRise.EffectiveHeight(
		src.Height, src.Temperature, state.Temperature, strength, state.WindSpeed)
	if err != nil {
		return nil, err
	}

	p, err := dispersion.NewPlume(dispersion.EffectiveSource{
		Source:          src,
		Strength:        strength,
		EffectiveHeight: effectiveHeight,
	}, state, coeffs)
	if err != nil {
		if errors.Is(err, dispersion.ErrCalmConditions) {
			return nil, fmt.Errorf("%w: wind %.2f m/s", ErrCalmConditions, state.WindSpeed)
		}
		return nil, err
	}

	return &builtPlume{
		plume: p,
		chem:  chem,
		conditions: Conditions{
			WindSpeed:     state.WindSpeed,
			WindDirection: state.WindDirection,
			Temperature:   state.Temperature,
			CloudCover:    state.CloudCover,
			ObservedAt:    state.ObservedAt,
		},
		stability: stability,
		terrain:   coeffs.Terrain,
	}, nil
}
