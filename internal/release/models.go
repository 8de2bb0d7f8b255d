// Package release tracks reported chemical release events: where and
// how a substance is escaping, how the release is quantified, and
// whether it is still active. Active releases are the worker's recompute
// set.
package release

import (
	"errors"
	"time"

	"github.com/sublyime/plumewatch/internal/dispersion"
	"github.com/sublyime/plumewatch/pkg/geo"
)

// Repository errors.
var (
	ErrReleaseNotFound = errors.New("release not found")
	ErrInvalidRelease  = errors.New("invalid release")
	ErrAlreadyStopped  = errors.New("release already stopped")
)

// Status of a release event.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusStopped Status = "STOPPED"
)

// Release represents one reported release event.
type Release struct {
	ID         string
	ChemicalID string

	// Origin is the geographic release location.
	Origin geo.Point

	// Height of the release point above ground, in meters.
	Height float64

	// Temperature of the released material in Celsius.
	Temperature float64

	// Quantification. Exactly one of Rate, TotalMass, or Volume is
	// set; TotalMass and Volume additionally require Duration. A
	// volumetric quantity resolves to mass through the chemical's
	// liquid density.
	Rate      *float64 // kg/s
	TotalMass *float64 // kg
	Volume    *float64 // m3
	Duration  time.Duration

	// Terrain selects the dispersion coefficient table. Empty means
	// the engine default.
	Terrain dispersion.Terrain

	Status    Status
	Notes     string
	StartedAt time.Time
	StoppedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the release still needs plume recomputes.
func (r *Release) Active() bool {
	return r.Status == StatusActive
}

// Source builds the dispersion source term. liquidDensity comes from
// the chemical catalog and is only consulted for volumetric releases.
func (r *Release) Source(liquidDensity *float64) dispersion.ReleaseSource {
	src := dispersion.ReleaseSource{
		Rate:        r.Rate,
		TotalMass:   r.TotalMass,
		Volume:      r.Volume,
		Duration:    r.Duration,
		Height:      r.Height,
		Temperature: r.Temperature,
		Origin:      r.Origin,
	}
	if r.Volume != nil {
		src.Density = liquidDensity
	}
	return src
}

// ListOptions contains options for listing releases.
type ListOptions struct {
	// Status filters by release status. Empty matches all.
	Status Status
	Limit  int
}

// ListResult contains the result of listing releases.
type ListResult struct {
	Items      []*Release
	NextCursor string
}
