package models

import (
	"github.com/sublyime/plumewatch/internal/dispersion"
	"github.com/sublyime/plumewatch/internal/plume"
	"github.com/sublyime/plumewatch/pkg/geo"
)

// Conditions summarizes the weather a snapshot was computed under.
type Conditions struct {
	WindSpeed     float64   `json:"windSpeedMS"`
	WindDirection float64   `json:"windDirectionDeg"`
	Temperature   float64   `json:"temperatureC"`
	CloudCover    *float64  `json:"cloudCoverFraction,omitempty"`
	ObservedAt    Timestamp `json:"observedAt"`
}

// Contour is one iso-concentration boundary of a snapshot.
type Contour struct {
	Level     float64 `json:"levelMgM3"`
	Polygon   []Point `json:"polygon"`
	Truncated bool    `json:"truncated,omitempty"`
}

// Snapshot is the API representation of a computed plume footprint.
type Snapshot struct {
	ID              string     `json:"snapshotId"`
	ReleaseID       string     `json:"releaseId"`
	ChemicalName    string     `json:"chemical"`
	Origin          Point      `json:"origin"`
	Conditions      Conditions `json:"conditions"`
	Stability       string     `json:"stability"`
	Terrain         Terrain    `json:"terrain"`
	Strength        float64    `json:"strengthKgS"`
	EffectiveHeight float64    `json:"effectiveHeightM"`
	Contours        []Contour  `json:"contours"`
	Truncated       bool       `json:"truncated"`
	ComputedAt      Timestamp  `json:"computedAt"`
}

// SnapshotFromDomain converts a plume snapshot to its API form.
func SnapshotFromDomain(snap *plume.Snapshot) *Snapshot {
	out := &Snapshot{
		ID:              snap.ID,
		ReleaseID:       snap.ReleaseID,
		ChemicalName:    snap.ChemicalName,
		Origin:          Point{Lat: snap.Origin.Lat, Lon: snap.Origin.Lon},
		Stability:       snap.Stability,
		Terrain:         Terrain(snap.Terrain),
		Strength:        snap.Strength,
		EffectiveHeight: snap.EffectiveHeight,
		Contours:        make([]Contour, len(snap.Contours)),
		Truncated:       snap.Truncated,
		ComputedAt:      Timestamp(snap.ComputedAt),
		Conditions: Conditions{
			WindSpeed:     snap.Conditions.WindSpeed,
			WindDirection: snap.Conditions.WindDirection,
			Temperature:   snap.Conditions.Temperature,
			CloudCover:    snap.Conditions.CloudCover,
			ObservedAt:    Timestamp(snap.Conditions.ObservedAt),
		},
	}
	for i, c := range snap.Contours {
		out.Contours[i] = contourFromDomain(c)
	}
	return out
}

func contourFromDomain(c dispersion.ContourLevel) Contour {
	out := Contour{
		Level:     c.Level,
		Polygon:   make([]Point, len(c.Polygon)),
		Truncated: c.Truncated,
	}
	for i, p := range c.Polygon {
		out.Polygon[i] = Point{Lat: p.Lat, Lon: p.Lon}
	}
	return out
}

// ReceptorRequest asks for concentrations at a batch of points.
type ReceptorRequest struct {
	Receptors []ReceptorPoint `json:"receptors"`
}

// ReceptorPoint is one evaluation point. Height defaults to ground level.
type ReceptorPoint struct {
	Point  Point   `json:"point"`
	Height float64 `json:"heightM,omitempty"`
}

// MaxReceptorsPerRequest bounds a single evaluation batch.
const MaxReceptorsPerRequest = 100

// Validate performs shallow request validation.
func (r *ReceptorRequest) Validate() []FieldError {
	var errs []FieldError

	if len(r.Receptors) == 0 {
		errs = append(errs, FieldError{Field: "receptors", Message: "at least one receptor is required", Code: "REQUIRED"})
	}
	if len(r.Receptors) > MaxReceptorsPerRequest {
		errs = append(errs, FieldError{Field: "receptors", Message: "too many receptors in one request", Code: "TOO_MANY"})
	}
	for _, rec := range r.Receptors {
		if rec.Point.Lat < -90 || rec.Point.Lat > 90 || rec.Point.Lon < -180 || rec.Point.Lon > 180 {
			errs = append(errs, FieldError{Field: "receptors", Message: "receptor out of coordinate range", Code: "OUT_OF_RANGE"})
			break
		}
		if rec.Height < 0 {
			errs = append(errs, FieldError{Field: "receptors", Message: "receptor height cannot be negative", Code: "OUT_OF_RANGE"})
			break
		}
	}

	return errs
}

// ToDomain converts the request to engine receptors.
func (r *ReceptorRequest) ToDomain() []dispersion.Receptor {
	out := make([]dispersion.Receptor, len(r.Receptors))
	for i, rec := range r.Receptors {
		out[i] = dispersion.Receptor{
			Point:  geo.Point{Lat: rec.Point.Lat, Lon: rec.Point.Lon},
			Height: rec.Height,
		}
	}
	return out
}

// ReceptorResult is the evaluated concentration at one receptor.
type ReceptorResult struct {
	Point         Point      `json:"point"`
	Height        float64    `json:"heightM"`
	Downwind      float64    `json:"downwindM"`
	Crosswind     float64    `json:"crosswindM"`
	Concentration float64    `json:"concentrationMgM3"`
	Confidence    Confidence `json:"confidence"`
	Error         string     `json:"error,omitempty"`
}

// ReceptorResponse is the batch evaluation envelope.
type ReceptorResponse struct {
	ReleaseID string           `json:"releaseId"`
	Results   []ReceptorResult `json:"results"`
}

// ReceptorResponseFromDomain converts engine results to the API form.
func ReceptorResponseFromDomain(releaseID string, results []dispersion.ConcentrationResult) *ReceptorResponse {
	out := &ReceptorResponse{
		ReleaseID: releaseID,
		Results:   make([]ReceptorResult, len(results)),
	}
	for i, res := range results {
		rr := ReceptorResult{
			Point:         Point{Lat: res.Receptor.Point.Lat, Lon: res.Receptor.Point.Lon},
			Height:        res.Receptor.Height,
			Downwind:      res.Downwind,
			Crosswind:     res.Crosswind,
			Concentration: res.Concentration,
			Confidence:    Confidence(res.Confidence),
		}
		if res.Err != nil {
			rr.Error = res.Err.Error()
		}
		out.Results[i] = rr
	}
	return out
}
