package models

import (
	"github.com/sublyime/plumewatch/internal/chemical"
)

// GuidelineLevels is the three-tier exposure guideline ladder in mg/m3.
type GuidelineLevels struct {
	Tier1 float64 `json:"tier1MgM3"`
	Tier2 float64 `json:"tier2MgM3"`
	Tier3 float64 `json:"tier3MgM3"`
}

// Chemical is the API representation of a catalog entry.
type Chemical struct {
	ID              string          `json:"chemicalId"`
	Name            string          `json:"name"`
	CASNumber       string          `json:"casNumber"`
	MolecularWeight float64         `json:"molecularWeightGMol"`
	LiquidDensity   *float64        `json:"liquidDensityKgM3,omitempty"`
	BoilingPoint    *float64        `json:"boilingPointC,omitempty"`
	GuidelineLevels GuidelineLevels `json:"guidelineLevels"`
	CreatedAt       Timestamp       `json:"createdAt"`
	UpdatedAt       Timestamp       `json:"updatedAt"`
}

// ChemicalFromDomain converts a catalog chemical to its API form.
func ChemicalFromDomain(c *chemical.Chemical) *Chemical {
	return &Chemical{
		ID:              c.ID,
		Name:            c.Name,
		CASNumber:       c.CASNumber,
		MolecularWeight: c.MolecularWeight,
		LiquidDensity:   c.LiquidDensity,
		BoilingPoint:    c.BoilingPoint,
		GuidelineLevels: GuidelineLevels{
			Tier1: c.GuidelineLevels.Tier1,
			Tier2: c.GuidelineLevels.Tier2,
			Tier3: c.GuidelineLevels.Tier3,
		},
		CreatedAt: Timestamp(c.CreatedAt),
		UpdatedAt: Timestamp(c.UpdatedAt),
	}
}

// ChemicalsFromDomain converts a catalog listing.
func ChemicalsFromDomain(chems []*chemical.Chemical) []*Chemical {
	out := make([]*Chemical, len(chems))
	for i, c := range chems {
		out[i] = ChemicalFromDomain(c)
	}
	return out
}

// UpsertChemicalRequest is the body for creating or updating a catalog
// entry.
type UpsertChemicalRequest struct {
	Name            string          `json:"name"`
	CASNumber       string          `json:"casNumber"`
	MolecularWeight float64         `json:"molecularWeightGMol"`
	LiquidDensity   *float64        `json:"liquidDensityKgM3,omitempty"`
	BoilingPoint    *float64        `json:"boilingPointC,omitempty"`
	GuidelineLevels GuidelineLevels `json:"guidelineLevels"`
}

// Validate performs shallow request validation. Full domain validation
// (CAS check digit, guideline ordering) happens in the chemical service.
func (r *UpsertChemicalRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required", Code: "REQUIRED"})
	}
	if r.CASNumber == "" {
		errs = append(errs, FieldError{Field: "casNumber", Message: "CAS number is required", Code: "REQUIRED"})
	}
	if r.MolecularWeight <= 0 {
		errs = append(errs, FieldError{Field: "molecularWeightGMol", Message: "molecular weight must be positive", Code: "OUT_OF_RANGE"})
	}

	return errs
}

// ToDomain converts the request to a catalog chemical.
func (r *UpsertChemicalRequest) ToDomain() *chemical.Chemical {
	return &chemical.Chemical{
		Name:            r.Name,
		CASNumber:       r.CASNumber,
		MolecularWeight: r.MolecularWeight,
		LiquidDensity:   r.LiquidDensity,
		BoilingPoint:    r.BoilingPoint,
		GuidelineLevels: chemical.GuidelineLevels{
			Tier1: r.GuidelineLevels.Tier1,
			Tier2: r.GuidelineLevels.Tier2,
			Tier3: r.GuidelineLevels.Tier3,
		},
	}
}
