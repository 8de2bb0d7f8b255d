// Package dispersion implements the atmospheric dispersion engine: a
// Pasquill-Gifford stability classifier, plume spread coefficient tables,
// Briggs plume rise, the steady-state Gaussian plume equation with ground
// reflection, and iso-concentration contour generation.
//
// Every function here is a pure computation over its inputs and the fixed
// coefficient tables. Nothing holds state between calls, so concurrent use
// needs no coordination.
package dispersion

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sublyime/plumewatch/pkg/geo"
)

// Engine errors.
var (
	// ErrInvalidInput indicates a caller bug: negative mass, negative wind
	// speed, non-finite coordinates. These are rejected before computation
	// rather than silently clamped.
	ErrInvalidInput = errors.New("invalid dispersion input")

	// ErrCalmConditions indicates wind below the calm-air floor. This is a
	// physically valid weather state in which the steady-state plume model
	// does not apply; callers decide whether to substitute a floor wind
	// speed or report that no valid plume exists.
	ErrCalmConditions = errors.New("calm conditions, plume model invalid")

	// ErrUnresolvedSource indicates a release source whose fields do not
	// resolve to exactly one total mass.
	ErrUnresolvedSource = errors.New("release source does not resolve to a total mass")
)

// MinWindSpeed is the calm-air floor in m/s. Below this the Gaussian plume
// equation divides by a near-zero wind speed and produces meaningless
// concentrations, so the engine refuses to evaluate.
const MinWindSpeed = 0.5

// Confidence indicates how far a result sits inside the validity range of
// the underlying empirical curves.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// StabilityClass is a Pasquill-Gifford atmospheric stability class,
// ordered from most unstable (A) to most stable (F).
type StabilityClass int

const (
	StabilityA StabilityClass = iota // very unstable
	StabilityB                       // unstable
	StabilityC                       // slightly unstable
	StabilityD                       // neutral
	StabilityE                       // slightly stable
	StabilityF                       // stable
)

// String returns the letter code for the class.
func (s StabilityClass) String() string {
	if s < StabilityA || s > StabilityF {
		return "?"
	}
	return string(rune('A' + int(s)))
}

// Valid reports whether s is one of the six defined classes.
func (s StabilityClass) Valid() bool {
	return s >= StabilityA && s <= StabilityF
}

// WeatherState is a validated weather observation as consumed by the
// engine. It is constructed once at the system boundary from whatever the
// weather provider returned.
type WeatherState struct {
	// WindSpeed in m/s. Never negative.
	WindSpeed float64

	// WindDirection in degrees from true north, the direction the wind is
	// blowing FROM. The plume travels along the opposite bearing.
	WindDirection float64

	// Temperature is the ambient air temperature in Celsius.
	Temperature float64

	// CloudCover is the cloud cover fraction (0-1). Nil when the provider
	// did not report it; the stability classifier then assumes 0.5.
	CloudCover *float64

	// ObservedAt is used to infer day or night for stability
	// classification.
	ObservedAt time.Time
}

// Validate checks the observation for caller bugs. A zero wind speed is
// valid input here; it surfaces later as ErrCalmConditions.
func (w WeatherState) Validate() error {
	if !isFinite(w.WindSpeed) || w.WindSpeed < 0 {
		return errorf("wind speed %v", w.WindSpeed)
	}
	if !isFinite(w.WindDirection) || w.WindDirection < 0 || w.WindDirection >= 360 {
		return errorf("wind direction %v", w.WindDirection)
	}
	if !isFinite(w.Temperature) {
		return errorf("temperature %v", w.Temperature)
	}
	if w.CloudCover != nil && (!isFinite(*w.CloudCover) || *w.CloudCover < 0 || *w.CloudCover > 1) {
		return errorf("cloud cover %v", *w.CloudCover)
	}
	if w.ObservedAt.IsZero() {
		return errorf("missing observation time")
	}
	return nil
}

// ReleaseSource describes a release of a hazardous chemical. Exactly one
// of Rate, TotalMass, or Volume+Density must be set; together with
// Duration they resolve to a source strength in kg/s.
type ReleaseSource struct {
	// Rate is the emission rate in kg/s, if known directly.
	Rate *float64

	// TotalMass is the total released mass in kg, emitted over Duration.
	TotalMass *float64

	// Volume (m3) and Density (kg/m3) resolve to a total mass when the
	// release is quantified volumetrically.
	Volume  *float64
	Density *float64

	// Duration of the release. Required unless Rate is set.
	Duration time.Duration

	// Height of the release point above ground, in meters.
	Height float64

	// Temperature of the released material in Celsius. Releases hotter
	// than ambient gain buoyant plume rise.
	Temperature float64

	// Origin is the geographic release location.
	Origin geo.Point
}

// Strength resolves the source term to an emission rate in kg/s.
func (r ReleaseSource) Strength() (float64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	if r.Rate != nil {
		return *r.Rate, nil
	}

	var mass float64
	switch {
	case r.TotalMass != nil:
		mass = *r.TotalMass
	case r.Volume != nil && r.Density != nil:
		mass = *r.Volume * *r.Density
	default:
		return 0, ErrUnresolvedSource
	}

	if r.Duration <= 0 {
		return 0, errorf("duration required to convert mass to a rate")
	}
	return mass / r.Duration.Seconds(), nil
}

// Validate checks the source description for caller bugs and verifies
// that exactly one quantification is present.
func (r ReleaseSource) Validate() error {
	set := 0
	if r.Rate != nil {
		if !isFinite(*r.Rate) || *r.Rate < 0 {
			return errorf("release rate %v", *r.Rate)
		}
		set++
	}
	if r.TotalMass != nil {
		if !isFinite(*r.TotalMass) || *r.TotalMass < 0 {
			return errorf("total mass %v", *r.TotalMass)
		}
		set++
	}
	if r.Volume != nil || r.Density != nil {
		if r.Volume == nil || r.Density == nil {
			return errorf("volume and density must be set together")
		}
		if !isFinite(*r.Volume) || *r.Volume < 0 || !isFinite(*r.Density) || *r.Density <= 0 {
			return errorf("volume %v density %v", *r.Volume, *r.Density)
		}
		set++
	}
	if set != 1 {
		return ErrUnresolvedSource
	}
	if !isFinite(r.Height) || r.Height < 0 {
		return errorf("release height %v", r.Height)
	}
	if !isFinite(r.Temperature) {
		return errorf("release temperature %v", r.Temperature)
	}
	if !geo.ValidCoordinates(r.Origin.Lat, r.Origin.Lon) {
		return errorf("origin %v,%v", r.Origin.Lat, r.Origin.Lon)
	}
	return nil
}

// EffectiveSource is a ReleaseSource with its buoyancy-corrected release
// height and resolved strength. It lives for the duration of one
// calculation and is never persisted.
type EffectiveSource struct {
	Source ReleaseSource

	// Strength is the resolved emission rate in kg/s.
	Strength float64

	// EffectiveHeight is the release height plus plume rise, in meters.
	EffectiveHeight float64
}

// Receptor is a point at which concentration is evaluated.
type Receptor struct {
	Point geo.Point

	// Height above ground in meters. Ground level is 0.
	Height float64
}

// ConcentrationResult is the concentration at one receptor for one
// (source, weather) pair. Immutable once produced. Err is set instead of
// Concentration when this receptor could not be evaluated; a batch never
// fails as a whole because one receptor does.
type ConcentrationResult struct {
	Receptor Receptor

	// Downwind and Crosswind are the receptor's plume-local coordinates
	// in meters.
	Downwind  float64
	Crosswind float64

	// Concentration in mg/m3. Zero for upwind receptors.
	Concentration float64

	// Confidence reflects how far inside the coefficient validity range
	// the downwind distance falls.
	Confidence Confidence

	Err error
}

// ContourLevel is one iso-concentration boundary: the threshold in mg/m3
// and the closed polygon of geographic points tracing it.
type ContourLevel struct {
	// Level is the concentration threshold in mg/m3.
	Level float64

	// Polygon vertices in angular order around the source. The ring is
	// implicitly closed; the first vertex is not repeated at the end.
	Polygon []geo.Point

	// Truncated is true when at least one sector still exceeded the level
	// at the sweep's maximum distance, so the boundary is clipped there.
	Truncated bool
}

// DefaultContourLevels is the conventional threshold ladder in mg/m3,
// mapped downstream to a green-yellow-orange-red severity scale. The
// engine itself only returns numeric levels.
func DefaultContourLevels() []float64 {
	return []float64{0.1, 1.0, 10.0, 100.0}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidInput}, args...)...)
}
