package dispersion

import "math"

// Physical constants for the buoyancy flux calculation.
const (
	gravity = 9.80665 // m/s2

	// Dry-air gas constant and standard pressure, used to estimate the
	// density of the released gas at its release temperature.
	airGasConstant   = 287.05  // J/(kg*K)
	standardPressure = 101325. // Pa

	kelvinOffset = 273.15
)

// PlumeRiseConfig holds the tunable parameters of the plume rise
// calculation.
type PlumeRiseConfig struct {
	// RiseCoefficient is the empirical Briggs constant scaling buoyant
	// rise. Default: 2.6.
	RiseCoefficient float64

	// MinWindSpeed is the floor applied to wind speed before the cubic
	// division. Default: MinWindSpeed (0.5 m/s).
	//
	// This floor is a deliberate policy decision, not a numerical
	// accident: the rise formula divides by wind speed cubed, and letting
	// a near-calm observation through would predict an unbounded plume
	// rise. The same calm-air threshold governs the rest of the engine.
	MinWindSpeed float64
}

// DefaultPlumeRiseConfig returns the standard parameterization.
func DefaultPlumeRiseConfig() PlumeRiseConfig {
	return PlumeRiseConfig{
		RiseCoefficient: 2.6,
		MinWindSpeed:    MinWindSpeed,
	}
}

// PlumeRise computes buoyancy-corrected effective release heights.
type PlumeRise struct {
	config PlumeRiseConfig
}

// NewPlumeRise creates a PlumeRise calculator, filling zero config fields
// with defaults.
func NewPlumeRise(config PlumeRiseConfig) *PlumeRise {
	if config.RiseCoefficient <= 0 {
		config.RiseCoefficient = 2.6
	}
	if config.MinWindSpeed <= 0 {
		config.MinWindSpeed = MinWindSpeed
	}
	return &PlumeRise{config: config}
}

// EffectiveHeight returns the release height corrected for buoyant plume
// rise. Temperatures are in Celsius, releaseRate in kg/s, windSpeed in
// m/s.
//
// A release at or below ambient temperature gains no rise. Otherwise a
// buoyancy flux is computed from the temperature differential and the
// volumetric release rate, and the Briggs-style rise
// C*(F/u^3)^(1/3) is added to the physical height.
func (p *PlumeRise) EffectiveHeight(releaseHeight, releaseTemp, ambientTemp, releaseRate, windSpeed float64) (float64, error) {
	if !isFinite(releaseHeight) || releaseHeight < 0 {
		return 0, errorf("release height %v", releaseHeight)
	}
	if !isFinite(releaseTemp) || !isFinite(ambientTemp) {
		return 0, errorf("temperatures %v/%v", releaseTemp, ambientTemp)
	}
	if !isFinite(releaseRate) || releaseRate < 0 {
		return 0, errorf("release rate %v", releaseRate)
	}
	if !isFinite(windSpeed) || windSpeed < 0 {
		return 0, errorf("wind speed %v", windSpeed)
	}

	if releaseTemp <= ambientTemp || releaseRate == 0 {
		return releaseHeight, nil
	}

	releaseK := releaseTemp + kelvinOffset
	ambientK := ambientTemp + kelvinOffset

	// Volumetric rate of the released gas, approximating its density by
	// air at the release temperature.
	density := standardPressure / (airGasConstant * releaseK)
	volumetricRate := releaseRate / density

	// Buoyancy flux, m4/s3.
	flux := gravity * volumetricRate * (releaseK - ambientK) / releaseK

	wind := windSpeed
	if wind < p.config.MinWindSpeed {
		wind = p.config.MinWindSpeed
	}

	rise := p.config.RiseCoefficient * math.Cbrt(flux/(wind*wind*wind))
	return releaseHeight + rise, nil
}
