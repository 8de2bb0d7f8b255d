package dispersion

import (
	"fmt"
	"sort"

	"github.com/sublyime/plumewatch/pkg/geo"
)

// ContourConfig bounds the contour sweep. Resolution trades accuracy for
// throughput, so all three knobs are caller-supplied configuration rather
// than hidden constants.
type ContourConfig struct {
	// Sectors is the number of angular sectors swept around the source.
	// Default: 36 (10 degree steps).
	Sectors int

	// Step is the radial sampling resolution in meters. Default: 50.
	Step float64

	// MaxDistance bounds the sweep in meters. Default: 5000.
	MaxDistance float64
}

// DefaultContourConfig returns the conventional sweep resolution.
func DefaultContourConfig() ContourConfig {
	return ContourConfig{
		Sectors:     36,
		Step:        50,
		MaxDistance: 5000,
	}
}

func (c ContourConfig) validate() error {
	if c.Sectors <= 0 {
		return errorf("sectors %d", c.Sectors)
	}
	if !isFinite(c.Step) || c.Step <= 0 {
		return errorf("step %v", c.Step)
	}
	if !isFinite(c.MaxDistance) || c.MaxDistance <= c.Step {
		return errorf("max distance %v with step %v", c.MaxDistance, c.Step)
	}
	return nil
}

// GenerateContours sweeps the plume's ground-level concentration field
// around the source and extracts one boundary polygon per requested
// level, ordered highest level (innermost) first.
//
// Along each sector ray the field is sampled at Step intervals out to
// MaxDistance. A level's crossing on a ray is the outermost point where
// concentration falls through the threshold, linearly interpolated
// between the bracketing samples. Rays that never reach a level pin that
// vertex to the source; rays still above the level at MaxDistance pin it
// there and mark the contour truncated. Neither case fails the sweep.
func GenerateContours(p *Plume, cfg ContourConfig, levels []float64) ([]ContourLevel, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		levels = DefaultContourLevels()
	}
	for _, lv := range levels {
		if !isFinite(lv) || lv <= 0 {
			return nil, errorf("contour level %v", lv)
		}
	}

	// Highest first: inner contours before outer ones, the order the
	// rendering layer stacks them in.
	sorted := append([]float64(nil), levels...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	rays := sampleRays(p, cfg)

	contours := make([]ContourLevel, 0, len(sorted))
	prev := make([]float64, cfg.Sectors)
	for i := range prev {
		prev[i] = -1
	}

	for _, level := range sorted {
		contour := ContourLevel{Level: level}
		contour.Polygon = make([]geo.Point, 0, cfg.Sectors)

		for s, ray := range rays {
			radius, truncated := ray.crossing(level, cfg)
			if truncated {
				contour.Truncated = true
			}

			// Along any ray, a higher threshold is crossed at or inside a
			// lower one. A violation here means the sampling itself is
			// inconsistent.
			if prev[s] >= 0 && radius < prev[s] {
				return nil, fmt.Errorf("contour nesting violated at sector %d: %v m for %v mg/m3 inside %v m", s, radius, level, prev[s])
			}
			prev[s] = radius

			contour.Polygon = append(contour.Polygon, geo.Destination(p.Origin, ray.bearing, radius))
		}

		contours = append(contours, contour)
	}

	return contours, nil
}

// ray holds the ground-level concentration samples along one sector
// bearing. samples[i] is the concentration at distance (i+1)*Step.
type ray struct {
	bearing float64
	samples []float64
}

// sampleRays evaluates the field along every sector. Rays are independent
// of one another; only their angular order matters for polygon assembly,
// which the indexed slice preserves.
func sampleRays(p *Plume, cfg ContourConfig) []ray {
	steps := int(cfg.MaxDistance / cfg.Step)
	sectorWidth := 360.0 / float64(cfg.Sectors)

	rays := make([]ray, cfg.Sectors)
	for s := range rays {
		bearing := float64(s) * sectorWidth
		samples := make([]float64, steps)

		for i := range samples {
			dist := float64(i+1) * cfg.Step
			point := geo.Destination(p.Origin, bearing, dist)
			x, y := p.LocalCoordinates(point)

			// Upwind rays and invalid points both sample as zero; the
			// field itself defines x<=0 as zero concentration.
			c, err := p.ConcentrationAt(x, y, 0)
			if err == nil {
				samples[i] = c
			}
		}

		rays[s] = ray{bearing: bearing, samples: samples}
	}
	return rays
}

// crossing returns the distance along the ray at which concentration
// falls through the level, and whether the boundary was clipped at the
// sweep limit.
func (r ray) crossing(level float64, cfg ContourConfig) (radius float64, truncated bool) {
	// Outermost sample still at or above the level. Concentration along a
	// ray is not monotonic (it peaks downwind of an elevated source), so
	// scan from the far end.
	outer := -1
	for i := len(r.samples) - 1; i >= 0; i-- {
		if r.samples[i] >= level {
			outer = i
			break
		}
	}

	if outer == -1 {
		// Never reached: the contour does not extend into this sector.
		return 0, false
	}
	if outer == len(r.samples)-1 {
		// Still above the level at the sweep limit: open contour,
		// truncated at max distance.
		return float64(outer+1) * cfg.Step, true
	}

	// Linear interpolation between the bracketing samples.
	inside := r.samples[outer]
	outside := r.samples[outer+1]
	dist := float64(outer+1) * cfg.Step

	frac := 0.0
	if inside != outside {
		frac = (inside - level) / (inside - outside)
	}
	return dist + frac*cfg.Step, false
}
