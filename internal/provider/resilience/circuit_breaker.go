// Package resilience wraps outbound HTTP calls to external data providers
// with circuit breakers, timeouts, and retry logic, and tracks per-provider
// health for the operational endpoints.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds circuit breaker tuning for one provider.
type BreakerConfig struct {
	// Name identifies the breaker in logs and health reports.
	Name string

	// MaxRequests is the number of probe requests allowed while half-open.
	// Default: 1
	MaxRequests uint32

	// Interval is the cyclic period for clearing counts while closed.
	// Default: 0 (disabled)
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	// Default: 60 seconds
	Timeout time.Duration

	// ReadyToTrip decides when the breaker opens. If nil, the breaker
	// opens at a 50% failure rate once 5 requests have been seen.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// OnStateChange is invoked on every breaker state transition.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultBreakerConfig returns the standard breaker tuning.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: defaultReadyToTrip,
	}
}

func defaultReadyToTrip(counts gobreaker.Counts) bool {
	ratio := float64(counts.TotalFailures) / float64(counts.Requests)
	return counts.Requests >= 5 && ratio >= 0.5
}

func newBreaker[T any](cfg BreakerConfig) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.ReadyToTrip,
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = defaultReadyToTrip
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}
	return gobreaker.NewCircuitBreaker[T](settings)
}
