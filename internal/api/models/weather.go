package models

import (
	"github.com/sublyime/plumewatch/internal/weather"
)

// WeatherObservation is the API representation of a surface weather
// observation at a point.
type WeatherObservation struct {
	Point         Point     `json:"point"`
	Temperature   float64   `json:"temperatureC"`
	Humidity      float64   `json:"humidityPercent"`
	WindSpeed     float64   `json:"windSpeedMS"`
	WindDirection float64   `json:"windDirectionDeg"`
	WindGust      float64   `json:"windGustMS,omitempty"`
	Pressure      float64   `json:"pressureHPa"`
	Condition     string    `json:"condition,omitempty"`
	Description   string    `json:"description,omitempty"`
	CloudCover    *float64  `json:"cloudCoverPercent,omitempty"`
	Visibility    float64   `json:"visibilityM,omitempty"`
	ObservedAt    Timestamp `json:"observedAt"`
	FetchedAt     Timestamp `json:"fetchedAt"`
}

// WeatherFromDomain converts an observation to its API form.
func WeatherFromDomain(obs *weather.Observation) *WeatherObservation {
	return &WeatherObservation{
		Point:         Point{Lat: obs.Point.Lat, Lon: obs.Point.Lon},
		Temperature:   obs.Temperature,
		Humidity:      obs.Humidity,
		WindSpeed:     obs.WindSpeed,
		WindDirection: obs.WindDirection,
		WindGust:      obs.WindGust,
		Pressure:      obs.Pressure,
		Condition:     string(obs.Condition),
		Description:   obs.Description,
		CloudCover:    obs.CloudCover,
		Visibility:    obs.Visibility,
		ObservedAt:    Timestamp(obs.ObservedAt),
		FetchedAt:     Timestamp(obs.FetchedAt),
	}
}
