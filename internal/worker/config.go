// Package worker provides background job processing for PlumeWatch:
// periodic plume recomputation for active releases and Pub/Sub driven
// on-demand jobs.
package worker

import "time"

// RecomputeConfig holds configuration for the plume recompute job.
type RecomputeConfig struct {
	// Interval is how often the periodic loop recomputes every active
	// release. Default: 5 minutes, matching the weather cache horizon.
	Interval time.Duration

	// Concurrency is the number of releases recomputed in parallel.
	// Default: 3
	Concurrency int

	// Timeout bounds the pipeline run for a single release.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultRecomputeConfig returns the default recompute configuration.
func DefaultRecomputeConfig() RecomputeConfig {
	return RecomputeConfig{
		Interval:    5 * time.Minute,
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// withDefaults fills zero fields with defaults.
func (c RecomputeConfig) withDefaults() RecomputeConfig {
	def := DefaultRecomputeConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
