package chemical_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyime/plumewatch/internal/chemical"
)

func newService() *chemical.Service {
	return chemical.NewService(chemical.NewInMemoryRepository(), zerolog.Nop())
}

func density(v float64) *float64 { return &v }

func validChemical() *chemical.Chemical {
	return &chemical.Chemical{
		Name:            "Chlorine",
		CASNumber:       "7782-50-5",
		MolecularWeight: 70.90,
		LiquidDensity:   density(1562),
		GuidelineLevels: chemical.GuidelineLevels{Tier1: 2.9, Tier2: 8.7, Tier3: 58},
	}
}

func TestService_CreateAndGet(t *testing.T) {
	svc := newService()

	created, err := svc.Create(context.Background(), validChemical())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chlorine", got.Name)
	assert.Equal(t, "7782-50-5", got.CASNumber)
}

func TestService_GetByCAS(t *testing.T) {
	svc := newService()

	_, err := svc.Create(context.Background(), validChemical())
	require.NoError(t, err)

	got, err := svc.GetByCAS(context.Background(), "7782-50-5")
	require.NoError(t, err)
	assert.Equal(t, "Chlorine", got.Name)
}

func TestService_GetByCAS_Malformed(t *testing.T) {
	svc := newService()

	_, err := svc.GetByCAS(context.Background(), "not-a-cas")
	assert.ErrorIs(t, err, chemical.ErrInvalidChemical)
}

func TestService_Create_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*chemical.Chemical)
	}{
		{"empty name", func(c *chemical.Chemical) { c.Name = " " }},
		{"bad CAS format", func(c *chemical.Chemical) { c.CASNumber = "12345" }},
		{"bad CAS check digit", func(c *chemical.Chemical) { c.CASNumber = "7782-50-6" }},
		{"zero molecular weight", func(c *chemical.Chemical) { c.MolecularWeight = 0 }},
		{"negative density", func(c *chemical.Chemical) { c.LiquidDensity = density(-1) }},
		{"unordered guidelines", func(c *chemical.Chemical) {
			c.GuidelineLevels = chemical.GuidelineLevels{Tier1: 10, Tier2: 5, Tier3: 58}
		}},
		{"zero guideline", func(c *chemical.Chemical) {
			c.GuidelineLevels = chemical.GuidelineLevels{Tier1: 0, Tier2: 5, Tier3: 58}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService()
			chem := validChemical()
			tt.mutate(chem)

			_, err := svc.Create(context.Background(), chem)
			assert.ErrorIs(t, err, chemical.ErrInvalidChemical)
		})
	}
}

func TestService_Create_DuplicateCAS(t *testing.T) {
	svc := newService()

	_, err := svc.Create(context.Background(), validChemical())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validChemical())
	assert.ErrorIs(t, err, chemical.ErrDuplicateCAS)
}

func TestService_Update(t *testing.T) {
	svc := newService()

	created, err := svc.Create(context.Background(), validChemical())
	require.NoError(t, err)

	created.GuidelineLevels.Tier3 = 60
	updated, err := svc.Update(context.Background(), created)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), updated.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, got.GuidelineLevels.Tier3)
}

func TestService_Delete(t *testing.T) {
	svc := newService()

	created, err := svc.Create(context.Background(), validChemical())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, chemical.ErrChemicalNotFound)
}

func TestService_ContourLevels(t *testing.T) {
	svc := newService()

	created, err := svc.Create(context.Background(), validChemical())
	require.NoError(t, err)

	levels, err := svc.ContourLevels(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.9, 8.7, 58}, levels)
}

func TestService_List_Filtered(t *testing.T) {
	svc := newService()
	require.NoError(t, svc.Seed(context.Background()))

	result, err := svc.List(context.Background(), chemical.ListOptions{Query: "hydrogen"})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Hydrogen Chloride", result.Items[0].Name)
	assert.Equal(t, "Hydrogen Sulfide", result.Items[1].Name)

	result, err = svc.List(context.Background(), chemical.ListOptions{Query: "7782-50-5"})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Chlorine", result.Items[0].Name)
}

func TestService_Seed_Idempotent(t *testing.T) {
	svc := newService()

	require.NoError(t, svc.Seed(context.Background()))
	require.NoError(t, svc.Seed(context.Background()))

	result, err := svc.List(context.Background(), chemical.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Items, len(chemical.BuiltinCatalog()))
}

func TestBuiltinCatalog_AllValid(t *testing.T) {
	for _, chem := range chemical.BuiltinCatalog() {
		t.Run(chem.Name, func(t *testing.T) {
			assert.NoError(t, chem.Validate())
		})
	}
}

func TestValidCAS(t *testing.T) {
	tests := []struct {
		cas   string
		valid bool
	}{
		{"7782-50-5", true},
		{"7664-41-7", true},
		{"71-43-2", true},
		{"7782-50-4", false}, // wrong check digit
		{"7782-50", false},
		{"7782-5-5", false},
		{"abcd-50-5", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.cas, func(t *testing.T) {
			assert.Equal(t, tt.valid, chemical.ValidCAS(tt.cas))
		})
	}
}
