// Package weather provides the meteorological inputs for dispersion
// modelling: current surface observations and hourly forecasts, fetched
// from an external provider and cached by location.
package weather

import (
	"errors"
	"math"
	"time"

	"github.com/sublyime/plumewatch/internal/dispersion"
	"github.com/sublyime/plumewatch/pkg/geo"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrNoDataForLocation   = errors.New("no weather data for location")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Observation is a surface weather observation at one location. Wind
// direction follows meteorological convention: degrees from true north,
// the direction the wind blows FROM.
type Observation struct {
	Point geo.Point

	// Temperature in Celsius
	Temperature float64

	// Humidity percentage (0-100)
	Humidity float64

	// Wind data
	WindSpeed     float64 // m/s
	WindDirection float64 // degrees (0-360, 0=N, 90=E, 180=S, 270=W)
	WindGust      float64 // m/s (0 if not reported)

	// Atmospheric pressure in hPa
	Pressure float64

	// Weather condition
	Condition   Condition
	Description string

	// CloudCover percentage (0-100). Nil when the provider did not
	// report it.
	CloudCover *float64

	// Visibility in meters
	Visibility float64

	// Timestamps
	ObservedAt time.Time
	FetchedAt  time.Time
}

// State converts the observation into the form the dispersion engine
// consumes: cloud cover as a fraction, wind direction normalized into
// [0, 360).
func (o *Observation) State() dispersion.WeatherState {
	state := dispersion.WeatherState{
		WindSpeed:     o.WindSpeed,
		WindDirection: geo.NormalizeBearing(o.WindDirection),
		Temperature:   o.Temperature,
		ObservedAt:    o.ObservedAt,
	}
	if o.CloudCover != nil {
		fraction := math.Min(math.Max(*o.CloudCover/100, 0), 1)
		state.CloudCover = &fraction
	}
	return state
}

// IsCalm reports whether the wind is too weak for plume modelling.
func (o *Observation) IsCalm() bool {
	return o.WindSpeed < dispersion.MinWindSpeed
}

// Condition represents the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionFog          Condition = "FOG"
	ConditionHaze         Condition = "HAZE"
	ConditionUnknown      Condition = "UNKNOWN"
)

// Forecast represents hourly forecast data for one location.
type Forecast struct {
	Point geo.Point

	// Hourly forecasts
	Hourly []HourlyForecast

	// When the forecast was fetched
	FetchedAt time.Time
}

// HourlyForecast represents weather for a specific hour.
type HourlyForecast struct {
	Time          time.Time
	Temperature   float64
	Humidity      float64
	WindSpeed     float64
	WindDirection float64
	WindGust      float64
	Condition     Condition
	Description   string
	CloudCover    *float64
	Visibility    float64
	PrecipProb    float64 // Probability of precipitation (0-1)
}

// State converts the forecast hour into dispersion engine form, with the
// forecast time standing in for the observation time.
func (h *HourlyForecast) State() dispersion.WeatherState {
	state := dispersion.WeatherState{
		WindSpeed:     h.WindSpeed,
		WindDirection: geo.NormalizeBearing(h.WindDirection),
		Temperature:   h.Temperature,
		ObservedAt:    h.Time,
	}
	if h.CloudCover != nil {
		fraction := math.Min(math.Max(*h.CloudCover/100, 0), 1)
		state.CloudCover = &fraction
	}
	return state
}
