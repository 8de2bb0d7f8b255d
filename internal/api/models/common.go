// Package models provides request and response models for the
// PlumeWatch API.
package models

import "time"

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Confidence represents the confidence level of a calculation.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// Terrain selects the plume-spread curve set.
type Terrain string

const (
	TerrainOpenCountry Terrain = "OPEN_COUNTRY"
	TerrainUrban       Terrain = "URBAN"
)

// ReleaseStatus represents the lifecycle state of a release.
type ReleaseStatus string

const (
	ReleaseStatusActive  ReleaseStatus = "ACTIVE"
	ReleaseStatusStopped ReleaseStatus = "STOPPED"
)

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp is a helper type for time.Time with RFC3339 JSON formatting.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	// Remove quotes
	s := string(data[1 : len(data)-1])
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
