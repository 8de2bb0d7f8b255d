package dispersion

import (
	"math"

	"github.com/sublyime/plumewatch/pkg/geo"
)

// kgPerM3ToMgPerM3 converts the SI result of the plume equation to the
// mg/m3 convention used throughout the system.
const kgPerM3ToMgPerM3 = 1e6

// Plume is a fully parameterized steady-state Gaussian plume for one
// (source, weather) pair: the concentration field it defines can be
// evaluated at any receptor. A Plume is immutable and safe for concurrent
// use.
type Plume struct {
	// Origin is the geographic release point.
	Origin geo.Point

	// Strength is the source strength Q in kg/s.
	Strength float64

	// EffectiveHeight is the buoyancy-corrected release height H in
	// meters.
	EffectiveHeight float64

	// WindSpeed u in m/s, at or above the calm-air floor.
	WindSpeed float64

	// WindFrom is the direction the wind blows from, degrees from north.
	WindFrom float64

	// Coeffs are the spread curves for the prevailing stability class.
	Coeffs Coefficients
}

// NewPlume validates the inputs and builds a Plume.
//
// Wind below MinWindSpeed returns ErrCalmConditions: under near-calm air
// the steady-state model does not apply, and silently dividing by a tiny
// wind speed would manufacture meaningless concentrations. Callers choose
// between substituting a floor wind speed and reporting no valid plume.
func NewPlume(src EffectiveSource, w WeatherState, coeffs Coefficients) (*Plume, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if !isFinite(src.Strength) || src.Strength < 0 {
		return nil, errorf("source strength %v", src.Strength)
	}
	if !isFinite(src.EffectiveHeight) || src.EffectiveHeight < 0 {
		return nil, errorf("effective height %v", src.EffectiveHeight)
	}
	if w.WindSpeed < MinWindSpeed {
		return nil, ErrCalmConditions
	}

	return &Plume{
		Origin:          src.Source.Origin,
		Strength:        src.Strength,
		EffectiveHeight: src.EffectiveHeight,
		WindSpeed:       w.WindSpeed,
		WindFrom:        w.WindDirection,
		Coeffs:          coeffs,
	}, nil
}

// TravelBearing returns the compass bearing the plume travels along:
// wind direction is "blowing from", so the plume goes the opposite way.
func (p *Plume) TravelBearing() float64 {
	return geo.NormalizeBearing(p.WindFrom + 180)
}

// LocalCoordinates rotates the vector from the source to a geographic
// receptor into plume-local axes: downwind along the travel bearing,
// crosswind positive to the right of travel.
//
// This transform is part of the public contract rather than a hidden
// implementation detail: getting the rotation direction wrong silently
// mirrors the whole plume, and callers placing receptors need the same
// convention the field evaluation uses.
func (p *Plume) LocalCoordinates(receptor geo.Point) (downwind, crosswind float64) {
	east, north := geo.LocalOffsets(p.Origin, receptor)

	bearing := p.TravelBearing() * math.Pi / 180
	sin, cos := math.Sin(bearing), math.Cos(bearing)

	downwind = east*sin + north*cos
	crosswind = east*cos - north*sin
	return downwind, crosswind
}

// ConcentrationAt evaluates the Gaussian plume equation at plume-local
// coordinates (x downwind, y crosswind, z height), all in meters, and
// returns the concentration in mg/m3.
//
// The ground is a perfect reflector, modeled by an image source mirrored
// at -H. Receptors at or upwind of the source (x <= 0) see exactly zero:
// the steady-state plume does not extend upwind.
func (p *Plume) ConcentrationAt(x, y, z float64) (float64, error) {
	if !isFinite(x) || !isFinite(y) || !isFinite(z) {
		return 0, errorf("coordinates %v,%v,%v", x, y, z)
	}
	if x <= 0 {
		return 0, nil
	}

	sigmaY := p.Coeffs.SigmaYAt(x)
	sigmaZ := p.Coeffs.SigmaZAt(x)

	q := p.Strength
	u := p.WindSpeed
	h := p.EffectiveHeight

	lateral := math.Exp(-y * y / (2 * sigmaY * sigmaY))
	reflected := math.Exp(-(z-h)*(z-h)/(2*sigmaZ*sigmaZ)) +
		math.Exp(-(z+h)*(z+h)/(2*sigmaZ*sigmaZ))

	c := q / (2 * math.Pi * u * sigmaY * sigmaZ) * lateral * reflected
	return c * kgPerM3ToMgPerM3, nil
}

// GroundConcentrationAt is ConcentrationAt for a ground-level receptor on
// the given downwind/crosswind offsets.
func (p *Plume) GroundConcentrationAt(x, y float64) (float64, error) {
	return p.ConcentrationAt(x, y, 0)
}

// EvaluateReceptors computes concentrations for a batch of geographic
// receptors. Each result carries its own error; one bad receptor never
// fails the batch.
func (p *Plume) EvaluateReceptors(receptors []Receptor) []ConcentrationResult {
	results := make([]ConcentrationResult, len(receptors))
	for i, r := range receptors {
		results[i] = p.evaluateReceptor(r)
	}
	return results
}

func (p *Plume) evaluateReceptor(r Receptor) ConcentrationResult {
	result := ConcentrationResult{Receptor: r}

	if !geo.ValidCoordinates(r.Point.Lat, r.Point.Lon) {
		result.Err = errorf("receptor %v,%v", r.Point.Lat, r.Point.Lon)
		return result
	}
	if !isFinite(r.Height) || r.Height < 0 {
		result.Err = errorf("receptor height %v", r.Height)
		return result
	}

	result.Downwind, result.Crosswind = p.LocalCoordinates(r.Point)

	c, err := p.ConcentrationAt(result.Downwind, result.Crosswind, r.Height)
	if err != nil {
		result.Err = err
		return result
	}

	result.Concentration = c
	result.Confidence = DistanceConfidence(result.Downwind)
	if result.Downwind <= 0 {
		// Upwind receptors are a defined zero, not a curve-fit question.
		result.Confidence = ConfidenceHigh
	}
	return result
}
