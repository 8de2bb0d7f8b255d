// Package chemical maintains the catalog of hazardous substances a
// release can be reported for, including the physical properties the
// dispersion engine needs and the exposure guideline levels that drive
// contour thresholds.
package chemical

import (
	"errors"
	"strings"
	"time"
)

// Repository errors.
var (
	ErrChemicalNotFound = errors.New("chemical not found")
	ErrDuplicateCAS     = errors.New("chemical with this CAS number already exists")
	ErrInvalidChemical  = errors.New("invalid chemical")
)

// Chemical describes one catalog substance.
type Chemical struct {
	ID   string
	Name string

	// CASNumber is the CAS registry number, e.g. "7782-50-5" for
	// chlorine. Unique within the catalog.
	CASNumber string

	// MolecularWeight in g/mol.
	MolecularWeight float64

	// LiquidDensity in kg/m3, used to resolve volume-quantified
	// releases. Nil for substances stored only as gas.
	LiquidDensity *float64

	// BoilingPoint in Celsius at atmospheric pressure.
	BoilingPoint *float64

	// GuidelineLevels are the exposure guideline concentrations in
	// mg/m3, mild to life-threatening. They become the default contour
	// thresholds for releases of this substance.
	GuidelineLevels GuidelineLevels

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GuidelineLevels holds the three-tier exposure guidelines in mg/m3.
// Tier 1 is notable discomfort, tier 2 is serious adverse effects,
// tier 3 is life-threatening.
type GuidelineLevels struct {
	Tier1 float64
	Tier2 float64
	Tier3 float64
}

// Valid reports whether the tiers are positive and properly ordered.
func (g GuidelineLevels) Valid() bool {
	return g.Tier1 > 0 && g.Tier2 > g.Tier1 && g.Tier3 > g.Tier2
}

// ContourLevels returns the guidelines as contour thresholds.
func (g GuidelineLevels) ContourLevels() []float64 {
	return []float64{g.Tier1, g.Tier2, g.Tier3}
}

// Validate checks the chemical before it enters the catalog.
func (c *Chemical) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	if !ValidCAS(c.CASNumber) {
		return errors.New("invalid CAS number")
	}
	if c.MolecularWeight <= 0 {
		return errors.New("molecular weight must be positive")
	}
	if c.LiquidDensity != nil && *c.LiquidDensity <= 0 {
		return errors.New("liquid density must be positive")
	}
	if !c.GuidelineLevels.Valid() {
		return errors.New("guideline levels must be positive and increasing")
	}
	return nil
}

// ValidCAS checks the CAS registry number format and check digit.
// Format is 2-7 digits, a hyphen, 2 digits, a hyphen, and one check
// digit computed as the weighted digit sum mod 10.
func ValidCAS(cas string) bool {
	parts := strings.Split(cas, "-")
	if len(parts) != 3 {
		return false
	}
	if len(parts[0]) < 2 || len(parts[0]) > 7 || len(parts[1]) != 2 || len(parts[2]) != 1 {
		return false
	}

	digits := parts[0] + parts[1]
	sum := 0
	weight := len(digits)
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
		sum += weight * int(r-'0')
		weight--
	}

	check := parts[2][0]
	if check < '0' || check > '9' {
		return false
	}
	return sum%10 == int(check-'0')
}

// ListOptions contains options for listing chemicals.
type ListOptions struct {
	// Query filters by substring match on name or CAS number.
	Query string
	Limit int
}

// ListResult contains the result of listing chemicals.
type ListResult struct {
	Items      []*Chemical
	NextCursor string
}
