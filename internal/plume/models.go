// Package plume orchestrates the dispersion pipeline: it joins an
// active release with current weather and the chemical catalog, runs
// the Gaussian engine, and keeps the latest footprint snapshot per
// release for the API and broadcast layers.
package plume

import (
	"errors"
	"time"

	"github.com/sublyime/plumewatch/internal/dispersion"
	"github.com/sublyime/plumewatch/pkg/geo"
)

// Plume errors.
var (
	ErrSnapshotNotFound = errors.New("plume snapshot not found")
	ErrCalmConditions   = errors.New("wind too calm for plume modelling")
	ErrWeatherUnavailable = errors.New("weather unavailable for plume computation")
)

// Snapshot is one computed plume footprint for a release at a point in
// time. It carries everything a map client needs to draw the hazard
// area without re-running the engine.
type Snapshot struct {
	ID        string
	ReleaseID string

	// ChemicalName is denormalized from the catalog for display.
	ChemicalName string

	// Origin is the release location the contours are anchored to.
	Origin geo.Point

	// Conditions summarizes the weather the computation used.
	Conditions Conditions

	// Stability is the Pasquill class the classifier assigned, "A"-"F".
	Stability string

	// Terrain names the coefficient table used.
	Terrain dispersion.Terrain

	// Strength is the resolved source term in kg/s.
	Strength float64

	// EffectiveHeight is the buoyancy-corrected release height in meters.
	EffectiveHeight float64

	// Contours are the iso-concentration polygons, highest level first.
	Contours []dispersion.ContourLevel

	// Truncated is set when any contour was clipped at the sweep limit.
	Truncated bool

	ComputedAt time.Time
}

// Conditions is the weather summary embedded in a snapshot.
type Conditions struct {
	WindSpeed     float64   // m/s
	WindDirection float64   // degrees, blowing from
	Temperature   float64   // Celsius
	CloudCover    *float64  // fraction 0-1, nil if unreported
	ObservedAt    time.Time
}
