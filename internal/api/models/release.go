package models

import (
	"time"

	"github.com/sublyime/plumewatch/internal/dispersion"
	"github.com/sublyime/plumewatch/internal/release"
	"github.com/sublyime/plumewatch/pkg/geo"
)

// Release is the API representation of a reported release event.
type Release struct {
	ID          string        `json:"releaseId"`
	ChemicalID  string        `json:"chemicalId"`
	Origin      Point         `json:"origin"`
	Height      float64       `json:"heightM"`
	Temperature float64       `json:"temperatureC"`
	Rate        *float64      `json:"rateKgS,omitempty"`
	TotalMass   *float64      `json:"totalMassKg,omitempty"`
	Volume      *float64      `json:"volumeM3,omitempty"`
	DurationS   *float64      `json:"durationS,omitempty"`
	Terrain     Terrain       `json:"terrain"`
	Status      ReleaseStatus `json:"status"`
	Notes       string        `json:"notes,omitempty"`
	StartedAt   Timestamp     `json:"startedAt"`
	StoppedAt   *Timestamp    `json:"stoppedAt,omitempty"`
	CreatedAt   Timestamp     `json:"createdAt"`
	UpdatedAt   Timestamp     `json:"updatedAt"`
}

// ReleaseFromDomain converts a release to its API form.
func ReleaseFromDomain(rel *release.Release) *Release {
	out := &Release{
		ID:          rel.ID,
		ChemicalID:  rel.ChemicalID,
		Origin:      Point{Lat: rel.Origin.Lat, Lon: rel.Origin.Lon},
		Height:      rel.Height,
		Temperature: rel.Temperature,
		Rate:        rel.Rate,
		TotalMass:   rel.TotalMass,
		Volume:      rel.Volume,
		Terrain:     Terrain(rel.Terrain),
		Status:      ReleaseStatus(rel.Status),
		Notes:       rel.Notes,
		StartedAt:   Timestamp(rel.StartedAt),
		CreatedAt:   Timestamp(rel.CreatedAt),
		UpdatedAt:   Timestamp(rel.UpdatedAt),
	}
	if rel.Terrain == "" {
		out.Terrain = TerrainUrban
	}
	if rel.Duration > 0 {
		secs := rel.Duration.Seconds()
		out.DurationS = &secs
	}
	if rel.StoppedAt != nil {
		ts := Timestamp(*rel.StoppedAt)
		out.StoppedAt = &ts
	}
	return out
}

// ReleasesFromDomain converts a release listing.
func ReleasesFromDomain(rels []*release.Release) []*Release {
	out := make([]*Release, len(rels))
	for i, rel := range rels {
		out[i] = ReleaseFromDomain(rel)
	}
	return out
}

// ReleaseListResponse is the paged listing envelope.
type ReleaseListResponse struct {
	Items      []*Release `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// CreateReleaseRequest is the body for reporting a new release.
type CreateReleaseRequest struct {
	ChemicalID  string   `json:"chemicalId"`
	Origin      Point    `json:"origin"`
	Height      float64  `json:"heightM"`
	Temperature float64  `json:"temperatureC"`
	Rate        *float64 `json:"rateKgS,omitempty"`
	TotalMass   *float64 `json:"totalMassKg,omitempty"`
	Volume      *float64 `json:"volumeM3,omitempty"`
	DurationS   *float64 `json:"durationS,omitempty"`
	Terrain     Terrain  `json:"terrain,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// Validate performs shallow request validation. Quantification rules
// (exactly one of rate, mass, volume) are enforced by the release
// service.
func (r *CreateReleaseRequest) Validate() []FieldError {
	var errs []FieldError

	if r.ChemicalID == "" {
		errs = append(errs, FieldError{Field: "chemicalId", Message: "chemical ID is required", Code: "REQUIRED"})
	}
	if r.Origin.Lat < -90 || r.Origin.Lat > 90 {
		errs = append(errs, FieldError{Field: "origin.lat", Message: "latitude must be between -90 and 90", Code: "OUT_OF_RANGE"})
	}
	if r.Origin.Lon < -180 || r.Origin.Lon > 180 {
		errs = append(errs, FieldError{Field: "origin.lon", Message: "longitude must be between -180 and 180", Code: "OUT_OF_RANGE"})
	}
	if r.Height < 0 {
		errs = append(errs, FieldError{Field: "heightM", Message: "release height cannot be negative", Code: "OUT_OF_RANGE"})
	}
	if r.Rate != nil && *r.Rate <= 0 {
		errs = append(errs, FieldError{Field: "rateKgS", Message: "release rate must be positive", Code: "OUT_OF_RANGE"})
	}
	if r.TotalMass != nil && *r.TotalMass <= 0 {
		errs = append(errs, FieldError{Field: "totalMassKg", Message: "total mass must be positive", Code: "OUT_OF_RANGE"})
	}
	if r.Volume != nil && *r.Volume <= 0 {
		errs = append(errs, FieldError{Field: "volumeM3", Message: "volume must be positive", Code: "OUT_OF_RANGE"})
	}
	if r.DurationS != nil && *r.DurationS <= 0 {
		errs = append(errs, FieldError{Field: "durationS", Message: "duration must be positive", Code: "OUT_OF_RANGE"})
	}
	if r.Terrain != "" && r.Terrain != TerrainOpenCountry && r.Terrain != TerrainUrban {
		errs = append(errs, FieldError{Field: "terrain", Message: "terrain must be OPEN_COUNTRY or URBAN", Code: "INVALID_VALUE"})
	}

	return errs
}

// ToDomain converts the request to a release.
func (r *CreateReleaseRequest) ToDomain() *release.Release {
	rel := &release.Release{
		ChemicalID:  r.ChemicalID,
		Origin:      geo.Point{Lat: r.Origin.Lat, Lon: r.Origin.Lon},
		Height:      r.Height,
		Temperature: r.Temperature,
		Rate:        r.Rate,
		TotalMass:   r.TotalMass,
		Volume:      r.Volume,
		Terrain:     dispersion.Terrain(r.Terrain),
		Notes:       r.Notes,
	}
	if r.DurationS != nil {
		rel.Duration = time.Duration(*r.DurationS * float64(time.Second))
	}
	return rel
}

// UpdateReleaseRequest is the body for amending a reported release.
// It carries the full mutable state; omitted quantification fields
// clear the previous value.
type UpdateReleaseRequest struct {
	Origin      Point    `json:"origin"`
	Height      float64  `json:"heightM"`
	Temperature float64  `json:"temperatureC"`
	Rate        *float64 `json:"rateKgS,omitempty"`
	TotalMass   *float64 `json:"totalMassKg,omitempty"`
	Volume      *float64 `json:"volumeM3,omitempty"`
	DurationS   *float64 `json:"durationS,omitempty"`
	Terrain     Terrain  `json:"terrain,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// Validate performs shallow request validation.
func (r *UpdateReleaseRequest) Validate() []FieldError {
	req := CreateReleaseRequest{
		ChemicalID:  "unchanged",
		Origin:      r.Origin,
		Height:      r.Height,
		Temperature: r.Temperature,
		Rate:        r.Rate,
		TotalMass:   r.TotalMass,
		Volume:      r.Volume,
		DurationS:   r.DurationS,
		Terrain:     r.Terrain,
	}
	return req.Validate()
}

// Apply copies the request onto an existing release.
func (r *UpdateReleaseRequest) Apply(rel *release.Release) {
	rel.Origin = geo.Point{Lat: r.Origin.Lat, Lon: r.Origin.Lon}
	rel.Height = r.Height
	rel.Temperature = r.Temperature
	rel.Rate = r.Rate
	rel.TotalMass = r.TotalMass
	rel.Volume = r.Volume
	rel.Terrain = dispersion.Terrain(r.Terrain)
	rel.Notes = r.Notes
	rel.Duration = 0
	if r.DurationS != nil {
		rel.Duration = time.Duration(*r.DurationS * float64(time.Second))
	}
}
