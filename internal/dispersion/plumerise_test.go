package dispersion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyime/plumewatch/internal/dispersion"
)

func TestPlumeRise_NoRiseWithoutBuoyancy(t *testing.T) {
	pr := dispersion.NewPlumeRise(dispersion.DefaultPlumeRiseConfig())

	// Release at or below ambient temperature keeps its physical height.
	h, err := pr.EffectiveHeight(10, 20, 20, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 10.0, h)

	h, err = pr.EffectiveHeight(10, 5, 20, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 10.0, h)

	// Zero release rate carries no buoyancy either.
	h, err = pr.EffectiveHeight(10, 100, 20, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 10.0, h)
}

func TestPlumeRise_BuoyantRelease(t *testing.T) {
	pr := dispersion.NewPlumeRise(dispersion.DefaultPlumeRiseConfig())

	// 100C release, 20C ambient, 2 kg/s, 3 m/s wind. Hand-computed:
	// density 0.9460 kg/m3, volumetric rate 2.1142 m3/s, buoyancy flux
	// 4.4451 m4/s3, rise 2.6*cbrt(F/27) = 1.425 m.
	h, err := pr.EffectiveHeight(10, 100, 20, 2, 3)
	require.NoError(t, err)
	assert.InDelta(t, 11.425, h, 0.005)
}

func TestPlumeRise_RiseShrinksWithWind(t *testing.T) {
	pr := dispersion.NewPlumeRise(dispersion.DefaultPlumeRiseConfig())

	slow, err := pr.EffectiveHeight(10, 150, 20, 2, 1)
	require.NoError(t, err)
	fast, err := pr.EffectiveHeight(10, 150, 20, 2, 8)
	require.NoError(t, err)

	assert.Greater(t, slow, fast)
	assert.Greater(t, fast, 10.0)
}

func TestPlumeRise_RiseGrowsWithRate(t *testing.T) {
	pr := dispersion.NewPlumeRise(dispersion.DefaultPlumeRiseConfig())

	small, err := pr.EffectiveHeight(10, 150, 20, 0.5, 3)
	require.NoError(t, err)
	large, err := pr.EffectiveHeight(10, 150, 20, 5, 3)
	require.NoError(t, err)

	assert.Greater(t, large, small)
}

func TestPlumeRise_WindFloorBoundsRise(t *testing.T) {
	pr := dispersion.NewPlumeRise(dispersion.DefaultPlumeRiseConfig())

	// Near-calm wind is floored at 0.5 m/s before the cubic division, so
	// an arbitrarily small wind speed cannot produce unbounded rise.
	nearCalm, err := pr.EffectiveHeight(10, 150, 20, 2, 0.01)
	require.NoError(t, err)
	atFloor, err := pr.EffectiveHeight(10, 150, 20, 2, 0.5)
	require.NoError(t, err)

	assert.InDelta(t, atFloor, nearCalm, 1e-9)
}

func TestPlumeRise_InvalidInputs(t *testing.T) {
	pr := dispersion.NewPlumeRise(dispersion.DefaultPlumeRiseConfig())

	tests := []struct {
		name                                        string
		height, relTemp, ambTemp, rate, wind float64
	}{
		{"negative height", -1, 100, 20, 1, 3},
		{"negative rate", 10, 100, 20, -1, 3},
		{"negative wind", 10, 100, 20, 1, -3},
		{"nan temperature", 10, nan(), 20, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pr.EffectiveHeight(tt.height, tt.relTemp, tt.ambTemp, tt.rate, tt.wind)
			assert.ErrorIs(t, err, dispersion.ErrInvalidInput)
		})
	}
}
