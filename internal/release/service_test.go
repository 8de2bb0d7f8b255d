package release_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyime/plumewatch/internal/chemical"
	"github.com/sublyime/plumewatch/internal/release"
	"github.com/sublyime/plumewatch/pkg/geo"
)

var origin = geo.Point{Lat: 29.7604, Lon: -95.3698}

func ptr(v float64) *float64 { return &v }

type fixture struct {
	svc      *release.Service
	catalog  *chemical.Service
	clock    *clockwork.FakeClock
	chlorine *chemical.Chemical
	sulfide  *chemical.Chemical
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := chemical.NewService(chemical.NewInMemoryRepository(), zerolog.Nop())
	require.NoError(t, catalog.Seed(context.Background()))

	chlorine, err := catalog.GetByCAS(context.Background(), "7782-50-5")
	require.NoError(t, err)
	sulfide, err := catalog.GetByCAS(context.Background(), "7783-06-4")
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))

	svc := release.NewService(release.ServiceConfig{
		Repo:    release.NewInMemoryRepository(),
		Catalog: catalog,
		Logger:  zerolog.Nop(),
		Clock:   clock,
	})

	return &fixture{svc: svc, catalog: catalog, clock: clock, chlorine: chlorine, sulfide: sulfide}
}

func (f *fixture) rateRelease() *release.Release {
	return &release.Release{
		ChemicalID:  f.chlorine.ID,
		Origin:      origin,
		Height:      10,
		Temperature: 20,
		Rate:        ptr(0.1),
	}
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.rateRelease())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, release.StatusActive, created.Status)
	assert.Equal(t, f.clock.Now(), created.StartedAt)
	assert.Nil(t, created.StoppedAt)
}

func TestService_Create_VolumetricResolvesDensity(t *testing.T) {
	f := newFixture(t)

	rel := &release.Release{
		ChemicalID:  f.chlorine.ID,
		Origin:      origin,
		Height:      2,
		Temperature: 15,
		Volume:      ptr(0.5),
		Duration:    10 * time.Minute,
	}

	created, err := f.svc.Create(context.Background(), rel)
	require.NoError(t, err)

	// 0.5 m3 of chlorine at 1562 kg/m3 over 600 s.
	strength, err := created.Source(f.chlorine.LiquidDensity).Strength()
	require.NoError(t, err)
	assert.InDelta(t, 0.5*1562/600, strength, 1e-9)
}

func TestService_Create_VolumetricWithoutDensity(t *testing.T) {
	f := newFixture(t)

	// Hydrogen sulfide has no liquid density in the catalog.
	rel := &release.Release{
		ChemicalID:  f.sulfide.ID,
		Origin:      origin,
		Height:      2,
		Temperature: 15,
		Volume:      ptr(0.5),
		Duration:    10 * time.Minute,
	}

	_, err := f.svc.Create(context.Background(), rel)
	assert.ErrorIs(t, err, release.ErrInvalidRelease)
}

func TestService_Create_InvalidQuantification(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*release.Release)
	}{
		{"no quantification", func(r *release.Release) { r.Rate = nil }},
		{"conflicting quantification", func(r *release.Release) { r.TotalMass = ptr(50) }},
		{"mass without duration", func(r *release.Release) {
			r.Rate = nil
			r.TotalMass = ptr(50)
		}},
		{"negative rate", func(r *release.Release) { r.Rate = ptr(-1) }},
		{"negative height", func(r *release.Release) { r.Height = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := f.rateRelease()
			tt.mutate(rel)

			_, err := f.svc.Create(context.Background(), rel)
			assert.ErrorIs(t, err, release.ErrInvalidRelease)
		})
	}
}

func TestService_Create_UnknownChemical(t *testing.T) {
	f := newFixture(t)

	rel := f.rateRelease()
	rel.ChemicalID = "00000000-0000-0000-0000-000000000000"

	_, err := f.svc.Create(context.Background(), rel)
	assert.ErrorIs(t, err, release.ErrInvalidRelease)
}

func TestService_Create_UnknownTerrain(t *testing.T) {
	f := newFixture(t)

	rel := f.rateRelease()
	rel.Terrain = "SUBURBAN"

	_, err := f.svc.Create(context.Background(), rel)
	assert.ErrorIs(t, err, release.ErrInvalidRelease)
}

func TestService_Stop(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.rateRelease())
	require.NoError(t, err)

	f.clock.Advance(30 * time.Minute)

	stopped, err := f.svc.Stop(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, release.StatusStopped, stopped.Status)
	require.NotNil(t, stopped.StoppedAt)
	assert.Equal(t, f.clock.Now(), *stopped.StoppedAt)

	_, err = f.svc.Stop(context.Background(), created.ID)
	assert.ErrorIs(t, err, release.ErrAlreadyStopped)
}

func TestService_ListActive_ExcludesStopped(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Create(context.Background(), f.rateRelease())
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	second, err := f.svc.Create(context.Background(), f.rateRelease())
	require.NoError(t, err)

	_, err = f.svc.Stop(context.Background(), first.ID)
	require.NoError(t, err)

	active, err := f.svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)
}

func TestService_Update_PreservesImmutableFields(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.rateRelease())
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)

	modified := *created
	modified.Rate = ptr(0.25)
	modified.ChemicalID = "tampered"
	modified.StartedAt = time.Now().Add(24 * time.Hour)

	updated, err := f.svc.Update(context.Background(), &modified)
	require.NoError(t, err)

	assert.Equal(t, created.ChemicalID, updated.ChemicalID)
	assert.Equal(t, created.StartedAt, updated.StartedAt)
	assert.Equal(t, 0.25, *updated.Rate)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestService_Update_InvalidQuantification(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.rateRelease())
	require.NoError(t, err)

	modified := *created
	modified.Rate = nil

	_, err = f.svc.Update(context.Background(), &modified)
	assert.ErrorIs(t, err, release.ErrInvalidRelease)
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.rateRelease())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), created.ID))

	_, err = f.svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, release.ErrReleaseNotFound)
}

func TestService_List_StatusFilter(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.rateRelease())
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), f.rateRelease())
	require.NoError(t, err)

	_, err = f.svc.Stop(context.Background(), created.ID)
	require.NoError(t, err)

	stopped, err := f.svc.List(context.Background(), release.ListOptions{Status: release.StatusStopped})
	require.NoError(t, err)
	require.Len(t, stopped.Items, 1)
	assert.Equal(t, created.ID, stopped.Items[0].ID)

	all, err := f.svc.List(context.Background(), release.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}
