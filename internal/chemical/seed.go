package chemical

func f(v float64) *float64 { return &v }

// BuiltinCatalog returns the substances shipped with the service:
// common toxic-inhalation-hazard chemicals with ERPG-derived guideline
// tiers in mg/m3.
func BuiltinCatalog() []*Chemical {
	return []*Chemical{
		{
			Name:            "Chlorine",
			CASNumber:       "7782-50-5",
			MolecularWeight: 70.90,
			LiquidDensity:   f(1562),
			BoilingPoint:    f(-34.0),
			GuidelineLevels: GuidelineLevels{Tier1: 2.9, Tier2: 8.7, Tier3: 58},
		},
		{
			Name:            "Ammonia",
			CASNumber:       "7664-41-7",
			MolecularWeight: 17.03,
			LiquidDensity:   f(682),
			BoilingPoint:    f(-33.3),
			GuidelineLevels: GuidelineLevels{Tier1: 17.4, Tier2: 104, Tier3: 522},
		},
		{
			Name:            "Hydrogen Sulfide",
			CASNumber:       "7783-06-4",
			MolecularWeight: 34.08,
			BoilingPoint:    f(-60.3),
			GuidelineLevels: GuidelineLevels{Tier1: 0.14, Tier2: 42, Tier3: 139},
		},
		{
			Name:            "Sulfur Dioxide",
			CASNumber:       "7446-09-5",
			MolecularWeight: 64.07,
			BoilingPoint:    f(-10.0),
			GuidelineLevels: GuidelineLevels{Tier1: 0.79, Tier2: 7.9, Tier3: 65},
		},
		{
			Name:            "Hydrogen Chloride",
			CASNumber:       "7647-01-0",
			MolecularWeight: 36.46,
			BoilingPoint:    f(-85.0),
			GuidelineLevels: GuidelineLevels{Tier1: 4.5, Tier2: 30, Tier3: 224},
		},
		{
			Name:            "Benzene",
			CASNumber:       "71-43-2",
			MolecularWeight: 78.11,
			LiquidDensity:   f(876),
			BoilingPoint:    f(80.1),
			GuidelineLevels: GuidelineLevels{Tier1: 160, Tier2: 479, Tier3: 3190},
		},
	}
}
