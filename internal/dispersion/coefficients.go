package dispersion

import "math"

// Terrain selects which empirical plume-spread curve set applies.
type Terrain string

const (
	// TerrainOpenCountry uses the Briggs open-country interpolation of the
	// Pasquill-Gifford curves.
	TerrainOpenCountry Terrain = "OPEN_COUNTRY"

	// TerrainUrban uses the McElroy-Pooler urban curves. Urban is the
	// default because releases of concern here are near populated areas,
	// where building-induced mixing spreads the plume faster.
	TerrainUrban Terrain = "URBAN"
)

// Coefficient validity range in meters. Results outside it carry reduced
// confidence; the curves are never extrapolated silently.
const (
	MinFitDistance = 100
	MaxFitDistance = 10000
)

// SigmaFit holds the coefficients of one plume-spread curve,
//
//	sigma(x) = Scale * x * (1 + Curve*x)^Exp
//
// with x the downwind distance in meters. Curve=0, Exp=0 reduces it to a
// pure power law in x.
type SigmaFit struct {
	Scale float64
	Curve float64
	Exp   float64
}

// Eval evaluates the curve at downwind distance x in meters.
//
// Caller contract: x must be positive. The engine guarantees this before
// evaluation; a non-positive distance returns NaN so a contract violation
// cannot masquerade as a concentration.
func (f SigmaFit) Eval(x float64) float64 {
	if x <= 0 {
		return math.NaN()
	}
	if f.Curve == 0 || f.Exp == 0 {
		return f.Scale * x
	}
	return f.Scale * x * math.Pow(1+f.Curve*x, f.Exp)
}

// Coefficients are the horizontal and vertical spread curves for one
// stability class on one terrain.
type Coefficients struct {
	Class   StabilityClass
	Terrain Terrain
	SigmaY  SigmaFit
	SigmaZ  SigmaFit
}

// SigmaYAt returns the horizontal spread parameter at downwind distance x
// in meters.
func (c Coefficients) SigmaYAt(x float64) float64 { return c.SigmaY.Eval(x) }

// SigmaZAt returns the vertical spread parameter at downwind distance x
// in meters.
func (c Coefficients) SigmaZAt(x float64) float64 { return c.SigmaZ.Eval(x) }

// openCountryTable holds the Briggs open-country fits (x in meters,
// 100 m to 10 km).
var openCountryTable = map[StabilityClass]Coefficients{
	StabilityA: {
		SigmaY: SigmaFit{Scale: 0.22, Curve: 0.0001, Exp: -0.5},
		SigmaZ: SigmaFit{Scale: 0.20},
	},
	StabilityB: {
		SigmaY: SigmaFit{Scale: 0.16, Curve: 0.0001, Exp: -0.5},
		SigmaZ: SigmaFit{Scale: 0.12},
	},
	StabilityC: {
		SigmaY: SigmaFit{Scale: 0.11, Curve: 0.0001, Exp: -0.5},
		SigmaZ: SigmaFit{Scale: 0.08, Curve: 0.0002, Exp: -0.5},
	},
	StabilityD: {
		SigmaY: SigmaFit{Scale: 0.08, Curve: 0.0001, Exp: -0.5},
		SigmaZ: SigmaFit{Scale: 0.06, Curve: 0.0015, Exp: -0.5},
	},
	StabilityE: {
		SigmaY: SigmaFit{Scale: 0.06, Curve: 0.0001, Exp: -0.5},
		SigmaZ: SigmaFit{Scale: 0.03, Curve: 0.0003, Exp: -1},
	},
	StabilityF: {
		SigmaY: SigmaFit{Scale: 0.04, Curve: 0.0001, Exp: -0.5},
		SigmaZ: SigmaFit{Scale: 0.016, Curve: 0.0003, Exp: -1},
	},
}

// urbanTable holds the McElroy-Pooler urban fits.
var urbanTable = map[StabilityClass]Coefficients{
	StabilityA: {
		SigmaY: SigmaFit{Scale: 0.32, Curve: 0.0004, Exp: -0.5},
		SigmaZ: SigmaFit{Scale: 0.24, Curve: 0.001, Exp: 0.5},
	},
	StabilityB: {
		SigmaY: SigmaFit{Scale: 0.32, Curve: 0.0004, Exp: -0.5},
		SigmaZ: SigmaFit{Scale: 0.24, Curve: 0.001, Exp: 0.5},
	},
	StabilityC: {
		SigmaY: SigmaFit{Scale: 0.22, Curve: 0.0004, Exp: -0.5},
		SigmaZ: SigmaFit{Scale: 0.20},
	},
	StabilityD: {
		SigmaY: SigmaFit{Scale: 0.16, Curve: 0.0004, Exp: -0.5},
		SigmaZ: SigmaFit{Scale: 0.14, Curve: 0.0003, Exp: -0.5},
	},
	StabilityE: {
		SigmaY: SigmaFit{Scale: 0.11, Curve: 0.0004, Exp: -0.5},
		SigmaZ: SigmaFit{Scale: 0.08, Curve: 0.0015, Exp: -0.5},
	},
	StabilityF: {
		SigmaY: SigmaFit{Scale: 0.11, Curve: 0.0004, Exp: -0.5},
		SigmaZ: SigmaFit{Scale: 0.08, Curve: 0.0015, Exp: -0.5},
	},
}

// CoefficientsFor returns the spread curves for a stability class on the
// given terrain.
func CoefficientsFor(class StabilityClass, terrain Terrain) (Coefficients, error) {
	var table map[StabilityClass]Coefficients
	switch terrain {
	case TerrainOpenCountry:
		table = openCountryTable
	case TerrainUrban, "":
		terrain = TerrainUrban
		table = urbanTable
	default:
		return Coefficients{}, errorf("unknown terrain %q", terrain)
	}

	c, ok := table[class]
	if !ok {
		return Coefficients{}, errorf("unknown stability class %d", class)
	}
	c.Class = class
	c.Terrain = terrain
	return c, nil
}

// DistanceConfidence reports how far inside the curve-fit validity range
// a downwind distance falls.
func DistanceConfidence(x float64) Confidence {
	switch {
	case x >= MinFitDistance && x <= MaxFitDistance:
		return ConfidenceHigh
	case x >= MinFitDistance/2 && x <= 2*MaxFitDistance:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
