package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sublyime/plumewatch/internal/plume"
	"github.com/sublyime/plumewatch/internal/release"
)

// ActiveReleases lists the releases whose plumes need recomputing.
type ActiveReleases interface {
	ListActive(ctx context.Context) ([]*release.Release, error)
}

// PlumeComputer runs the dispersion pipeline for one release.
type PlumeComputer interface {
	Compute(ctx context.Context, releaseID string) (*plume.Snapshot, error)
}

// Broadcaster announces freshly computed snapshots. Optional.
type Broadcaster interface {
	PublishSnapshot(ctx context.Context, snap *plume.Snapshot) error
}

// RecomputeJob recomputes plume footprints for every active release.
type RecomputeJob struct {
	config      RecomputeConfig
	logger      zerolog.Logger
	releases    ActiveReleases
	plumes      PlumeComputer
	broadcaster Broadcaster
	clock       clockwork.Clock

	metrics *RecomputeMetrics
}

// RecomputeMetrics tracks recompute job statistics.
type RecomputeMetrics struct {
	mu sync.RWMutex

	TotalRuns          int64
	SuccessfulComputes int64
	FailedComputes     int64
	SkippedCalm        int64
	PublishedEvents    int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RecomputeJobConfig holds configuration for creating a RecomputeJob.
type RecomputeJobConfig struct {
	Config      RecomputeConfig
	Logger      zerolog.Logger
	Releases    ActiveReleases
	Plumes      PlumeComputer
	Broadcaster Broadcaster
	Clock       clockwork.Clock
}

// NewRecomputeJob creates a new recompute job processor.
func NewRecomputeJob(cfg RecomputeJobConfig) *RecomputeJob {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &RecomputeJob{
		config:      cfg.Config.withDefaults(),
		logger:      cfg.Logger,
		releases:    cfg.Releases,
		plumes:      cfg.Plumes,
		broadcaster: cfg.Broadcaster,
		clock:       clock,
		metrics:     &RecomputeMetrics{},
	}
}

// RecomputeResult contains the result of one recompute run.
type RecomputeResult struct {
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	TotalReleases int
	Successful    int
	Failed        int
	SkippedCalm   int
	Published     int
	Errors        []RecomputeError
}

// RecomputeError records the failure for one release.
type RecomputeError struct {
	ReleaseID string
	Error     string
}

// Run recomputes every active release once and returns the tally. Calm
// weather is a skip, not a failure: the engine cannot model those
// conditions and they clear on their own.
func (j *RecomputeJob) Run(ctx context.Context) *RecomputeResult {
	startTime := j.clock.Now()
	result := &RecomputeResult{StartTime: startTime}

	active, err := j.releases.ListActive(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("listing active releases failed")
		result.Errors = append(result.Errors, RecomputeError{Error: err.Error()})
		result.EndTime = j.clock.Now()
		result.Duration = result.EndTime.Sub(startTime)
		j.updateMetrics(result)
		return result
	}
	result.TotalReleases = len(active)

	j.logger.Info().
		Int("total_releases", result.TotalReleases).
		Int("concurrency", j.config.Concurrency).
		Msg("starting plume recompute job")

	releaseChan := make(chan string, len(active))
	resultsChan := make(chan releaseResult, len(active))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.recomputeWorker(ctx, releaseChan, resultsChan)
		}()
	}

	for _, rel := range active {
		releaseChan <- rel.ID
	}
	close(releaseChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for rr := range resultsChan {
		switch {
		case rr.skipped:
			result.SkippedCalm++
		case rr.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, RecomputeError{
				ReleaseID: rr.releaseID,
				Error:     rr.err.Error(),
			})
		default:
			result.Successful++
			if rr.published {
				result.Published++
			}
		}
	}

	result.EndTime = j.clock.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("skipped_calm", result.SkippedCalm).
		Int("published", result.Published).
		Msg("plume recompute job completed")

	return result
}

// RunPeriodic recomputes on the configured interval until the context
// is cancelled.
func (j *RecomputeJob) RunPeriodic(ctx context.Context) {
	ticker := j.clock.NewTicker(j.config.Interval)
	defer ticker.Stop()

	j.logger.Info().
		Dur("interval", j.config.Interval).
		Msg("starting periodic plume recompute loop")

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("recompute loop stopped")
			return
		case <-ticker.Chan():
			j.Run(ctx)
		}
	}
}

type releaseResult struct {
	releaseID string
	skipped   bool
	published bool
	err       error
}

func (j *RecomputeJob) recomputeWorker(ctx context.Context, releases <-chan string, results chan<- releaseResult) {
	for releaseID := range releases {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.recomputeRelease(ctx, releaseID)
		}
	}
}

func (j *RecomputeJob) recomputeRelease(ctx context.Context, releaseID string) releaseResult {
	runCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	snap, err := j.plumes.Compute(runCtx, releaseID)
	if err != nil {
		if errors.Is(err, plume.ErrCalmConditions) {
			j.logger.Debug().
				Str("release_id", releaseID).
				Msg("skipping recompute under calm conditions")
			return releaseResult{releaseID: releaseID, skipped: true}
		}
		return releaseResult{releaseID: releaseID, err: err}
	}

	rr := releaseResult{releaseID: releaseID}
	if j.broadcaster != nil {
		if err := j.broadcaster.PublishSnapshot(runCtx, snap); err != nil {
			// The snapshot is stored either way; publishing is best effort.
			j.logger.Warn().Err(err).
				Str("release_id", releaseID).
				Msg("snapshot broadcast failed")
		} else {
			rr.published = true
		}
	}
	return rr
}

func (j *RecomputeJob) updateMetrics(result *RecomputeResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulComputes += int64(result.Successful)
	j.metrics.FailedComputes += int64(result.Failed)
	j.metrics.SkippedCalm += int64(result.SkippedCalm)
	j.metrics.PublishedEvents += int64(result.Published)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RecomputeJob) GetMetrics() RecomputeMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RecomputeMetrics{
		TotalRuns:          j.metrics.TotalRuns,
		SuccessfulComputes: j.metrics.SuccessfulComputes,
		FailedComputes:     j.metrics.FailedComputes,
		SkippedCalm:        j.metrics.SkippedCalm,
		PublishedEvents:    j.metrics.PublishedEvents,
		LastRunAt:          j.metrics.LastRunAt,
		LastRunDuration:    j.metrics.LastRunDuration,
		TotalDuration:      j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map for the ops
// endpoint.
func (j *RecomputeJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":          m.TotalRuns,
		"successful_computes": m.SuccessfulComputes,
		"failed_computes":     m.FailedComputes,
		"skipped_calm":        m.SkippedCalm,
		"published_events":    m.PublishedEvents,
		"last_run_at":         m.LastRunAt,
		"last_run_duration":   m.LastRunDuration.String(),
		"total_duration":      m.TotalDuration.String(),
	}
}
