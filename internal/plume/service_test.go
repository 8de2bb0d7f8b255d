package plume_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyime/plumewatch/internal/chemical"
	"github.com/sublyime/plumewatch/internal/dispersion"
	"github.com/sublyime/plumewatch/internal/plume"
	"github.com/sublyime/plumewatch/internal/release"
	"github.com/sublyime/plumewatch/internal/weather"
	"github.com/sublyime/plumewatch/pkg/geo"
)

var origin = geo.Point{Lat: 29.7604, Lon: -95.3698}

func ptr(v float64) *float64 { return &v }

// stubWeather serves one fixed observation, or an error.
type stubWeather struct {
	obs *weather.Observation
	err error
}

func (s *stubWeather) GetCurrentWeather(_ context.Context, point geo.Point) (*weather.Observation, error) {
	if s.err != nil {
		return nil, s.err
	}
	obs := *s.obs
	obs.Point = point
	return &obs, nil
}

type fixture struct {
	svc      *plume.Service
	releases *release.Service
	weather  *stubWeather
	clock    *clockwork.FakeClock
	chlorine *chemical.Chemical
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := chemical.NewService(chemical.NewInMemoryRepository(), zerolog.Nop())
	require.NoError(t, catalog.Seed(context.Background()))

	chlorine, err := catalog.GetByCAS(context.Background(), "7782-50-5")
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))

	releases := release.NewService(release.ServiceConfig{
		Repo:    release.NewInMemoryRepository(),
		Catalog: catalog,
		Logger:  zerolog.Nop(),
		Clock:   clock,
	})

	cloud := 10.0
	wx := &stubWeather{obs: &weather.Observation{
		Temperature:   20,
		WindSpeed:     3,
		WindDirection: 0, // from the north, plume travels south
		CloudCover:    &cloud,
		ObservedAt:    time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}}

	svc := plume.NewService(plume.ServiceConfig{
		Releases:  releases,
		Catalog:   catalog,
		Weather:   wx,
		Snapshots: plume.NewInMemorySnapshotRepository(),
		Logger:    zerolog.Nop(),
		Clock:     clock,
	})

	return &fixture{svc: svc, releases: releases, weather: wx, clock: clock, chlorine: chlorine}
}

func (f *fixture) reportRelease(t *testing.T) *release.Release {
	t.Helper()
	rel, err := f.releases.Create(context.Background(), &release.Release{
		ChemicalID:  f.chlorine.ID,
		Origin:      origin,
		Height:      10,
		Temperature: 20,
		Rate:        ptr(0.1),
	})
	require.NoError(t, err)
	return rel
}

func TestService_Compute(t *testing.T) {
	f := newFixture(t)
	rel := f.reportRelease(t)

	snap, err := f.svc.Compute(context.Background(), rel.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, rel.ID, snap.ReleaseID)
	assert.Equal(t, "Chlorine", snap.ChemicalName)
	assert.Equal(t, origin, snap.Origin)
	assert.Equal(t, f.clock.Now(), snap.ComputedAt)

	// Daytime, 10% cloud, 3 m/s wind classifies as B.
	assert.Equal(t, "B", snap.Stability)
	assert.Equal(t, dispersion.TerrainUrban, snap.Terrain)

	assert.Equal(t, 0.1, snap.Strength)
	// Release at ambient temperature gains no buoyant rise.
	assert.Equal(t, 10.0, snap.EffectiveHeight)

	// Contours at the chlorine guideline tiers, highest first.
	require.Len(t, snap.Contours, 3)
	assert.Equal(t, 58.0, snap.Contours[0].Level)
	assert.Equal(t, 8.7, snap.Contours[1].Level)
	assert.Equal(t, 2.9, snap.Contours[2].Level)
}

func TestService_Compute_UsesObservedConditions(t *testing.T) {
	f := newFixture(t)
	rel := f.reportRelease(t)

	snap, err := f.svc.Compute(context.Background(), rel.ID)
	require.NoError(t, err)

	assert.Equal(t, 3.0, snap.Conditions.WindSpeed)
	assert.Equal(t, 0.0, snap.Conditions.WindDirection)
	assert.Equal(t, 20.0, snap.Conditions.Temperature)
	require.NotNil(t, snap.Conditions.CloudCover)
	assert.InDelta(t, 0.1, *snap.Conditions.CloudCover, 1e-12)
}

func TestService_Compute_CalmConditions(t *testing.T) {
	f := newFixture(t)
	rel := f.reportRelease(t)

	f.weather.obs.WindSpeed = 0.2

	_, err := f.svc.Compute(context.Background(), rel.ID)
	assert.ErrorIs(t, err, plume.ErrCalmConditions)
}

func TestService_Compute_WeatherUnavailable(t *testing.T) {
	f := newFixture(t)
	rel := f.reportRelease(t)

	f.weather.err = errors.New("provider down")

	_, err := f.svc.Compute(context.Background(), rel.ID)
	assert.ErrorIs(t, err, plume.ErrWeatherUnavailable)
}

func TestService_Compute_UnknownRelease(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Compute(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, release.ErrReleaseNotFound)
}

func TestService_Latest(t *testing.T) {
	f := newFixture(t)
	rel := f.reportRelease(t)

	_, err := f.svc.Latest(context.Background(), rel.ID)
	assert.ErrorIs(t, err, plume.ErrSnapshotNotFound)

	computed, err := f.svc.Compute(context.Background(), rel.ID)
	require.NoError(t, err)

	latest, err := f.svc.Latest(context.Background(), rel.ID)
	require.NoError(t, err)
	assert.Equal(t, computed.ID, latest.ID)
	assert.Equal(t, computed.Contours, latest.Contours)
}

func TestService_Compute_ReplacesSnapshot(t *testing.T) {
	f := newFixture(t)
	rel := f.reportRelease(t)

	first, err := f.svc.Compute(context.Background(), rel.ID)
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)

	second, err := f.svc.Compute(context.Background(), rel.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	latest, err := f.svc.Latest(context.Background(), rel.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.True(t, latest.ComputedAt.After(first.ComputedAt))
}

func TestService_EvaluateReceptors(t *testing.T) {
	f := newFixture(t)
	rel := f.reportRelease(t)

	downwind := geo.Destination(origin, 180, 500) // plume travels south
	upwind := geo.Destination(origin, 0, 500)

	results, err := f.svc.EvaluateReceptors(context.Background(), rel.ID, []dispersion.Receptor{
		{Point: downwind},
		{Point: upwind},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.NoError(t, results[0].Err)
	assert.Greater(t, results[0].Concentration, 0.0)

	require.NoError(t, results[1].Err)
	assert.Equal(t, 0.0, results[1].Concentration)
}

func TestService_DropSnapshots(t *testing.T) {
	f := newFixture(t)
	rel := f.reportRelease(t)

	_, err := f.svc.Compute(context.Background(), rel.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DropSnapshots(context.Background(), rel.ID))

	_, err = f.svc.Latest(context.Background(), rel.ID)
	assert.ErrorIs(t, err, plume.ErrSnapshotNotFound)
}
