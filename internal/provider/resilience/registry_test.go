package resilience_test

import (
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyime/plumewatch/internal/provider/resilience"
)

func TestRegistry_RegisterAndGetHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	client := resilience.NewClient(resilience.DefaultClientConfig("openweathermap"))

	registry.Register("openweathermap", client)
	assert.Equal(t, 1, registry.ProviderCount())

	health := registry.GetHealth("openweathermap")
	require.NotNil(t, health)
	assert.Equal(t, "openweathermap", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.False(t, health.IsDegraded())
	assert.False(t, health.IsUnhealthy())
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)
}

func TestRegistry_Unregister(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("weather", resilience.NewClient(resilience.DefaultClientConfig("weather")))
	require.Equal(t, 1, registry.ProviderCount())

	registry.Unregister("weather")

	assert.Equal(t, 0, registry.ProviderCount())
	assert.Nil(t, registry.GetHealth("weather"))
}

func TestRegistry_GetAllHealthSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"weather", "broadcast", "alerts"} {
		registry.Register(name, resilience.NewClient(resilience.DefaultClientConfig(name)))
	}

	health := registry.GetAllHealth()
	require.Len(t, health, 3)
	assert.Equal(t, "alerts", health[0].Name)
	assert.Equal(t, "broadcast", health[1].Name)
	assert.Equal(t, "weather", health[2].Name)
	for _, h := range health {
		assert.Equal(t, gobreaker.StateClosed, h.CircuitState)
	}
}

func TestRegistry_ReplaceProvider(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("weather", resilience.NewClient(resilience.DefaultClientConfig("first")))
	registry.Register("weather", resilience.NewClient(resilience.DefaultClientConfig("second")))

	assert.Equal(t, 1, registry.ProviderCount())
	health := registry.GetHealth("weather")
	require.NotNil(t, health)
	assert.Equal(t, "second", health.Name)
}

func TestRegistry_GetHealthNotFound(t *testing.T) {
	registry := resilience.NewRegistry()
	assert.Nil(t, registry.GetHealth("nonexistent"))
}

func TestGlobalRegistry(t *testing.T) {
	assert.NotNil(t, resilience.GlobalRegistry)
}

func TestProviderHealth_States(t *testing.T) {
	tests := []struct {
		state      gobreaker.State
		isHealthy  bool
		isDegraded bool
		isUnhealth bool
	}{
		{gobreaker.StateClosed, true, false, false},
		{gobreaker.StateHalfOpen, false, true, false},
		{gobreaker.StateOpen, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.isHealthy, h.IsHealthy())
			assert.Equal(t, tt.isDegraded, h.IsDegraded())
			assert.Equal(t, tt.isUnhealth, h.IsUnhealthy())
		})
	}
}
