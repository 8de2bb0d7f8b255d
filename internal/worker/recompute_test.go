package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublyime/plumewatch/internal/plume"
	"github.com/sublyime/plumewatch/internal/release"
	"github.com/sublyime/plumewatch/internal/worker"
)

type stubReleases struct {
	releases []*release.Release
	err      error
}

func (s *stubReleases) ListActive(context.Context) ([]*release.Release, error) {
	return s.releases, s.err
}

type stubComputer struct {
	mu       sync.Mutex
	computed []string

	// errs maps release IDs to a forced error.
	errs map[string]error
}

func (s *stubComputer) Compute(_ context.Context, releaseID string) (*plume.Snapshot, error) {
	s.mu.Lock()
	s.computed = append(s.computed, releaseID)
	s.mu.Unlock()

	if err := s.errs[releaseID]; err != nil {
		return nil, err
	}
	return &plume.Snapshot{ID: "snap-" + releaseID, ReleaseID: releaseID}, nil
}

func (s *stubComputer) computedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.computed)
}

type stubBroadcaster struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (s *stubBroadcaster) PublishSnapshot(_ context.Context, snap *plume.Snapshot) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.published = append(s.published, snap.ReleaseID)
	s.mu.Unlock()
	return nil
}

func activeReleases(ids ...string) []*release.Release {
	rels := make([]*release.Release, len(ids))
	for i, id := range ids {
		rels[i] = &release.Release{ID: id, Status: release.StatusActive}
	}
	return rels
}

func TestDefaultRecomputeConfig(t *testing.T) {
	cfg := worker.DefaultRecomputeConfig()

	assert.Equal(t, 5*time.Minute, cfg.Interval)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestRecomputeJob_Run(t *testing.T) {
	computer := &stubComputer{}
	broadcaster := &stubBroadcaster{}

	job := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Logger:      zerolog.Nop(),
		Releases:    &stubReleases{releases: activeReleases("r1", "r2", "r3")},
		Plumes:      computer,
		Broadcaster: broadcaster,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 3, result.TotalReleases)
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, result.Published)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 3, computer.computedCount())
	assert.ElementsMatch(t, []string{"r1", "r2", "r3"}, broadcaster.published)
}

func TestRecomputeJob_Run_CalmSkipped(t *testing.T) {
	computer := &stubComputer{errs: map[string]error{
		"r2": plume.ErrCalmConditions,
	}}

	job := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Logger:   zerolog.Nop(),
		Releases: &stubReleases{releases: activeReleases("r1", "r2")},
		Plumes:   computer,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.SkippedCalm)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
}

func TestRecomputeJob_Run_Failure(t *testing.T) {
	computer := &stubComputer{errs: map[string]error{
		"r1": errors.New("weather provider down"),
	}}

	job := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Logger:   zerolog.Nop(),
		Releases: &stubReleases{releases: activeReleases("r1", "r2")},
		Plumes:   computer,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "r1", result.Errors[0].ReleaseID)
	assert.Contains(t, result.Errors[0].Error, "weather provider down")
}

func TestRecomputeJob_Run_ListError(t *testing.T) {
	job := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Logger:   zerolog.Nop(),
		Releases: &stubReleases{err: errors.New("store unavailable")},
		Plumes:   &stubComputer{},
	})

	result := job.Run(context.Background())

	assert.Equal(t, 0, result.TotalReleases)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error, "store unavailable")
}

func TestRecomputeJob_Run_BroadcastFailureNonFatal(t *testing.T) {
	broadcaster := &stubBroadcaster{err: errors.New("topic gone")}

	job := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Logger:      zerolog.Nop(),
		Releases:    &stubReleases{releases: activeReleases("r1")},
		Plumes:      &stubComputer{},
		Broadcaster: broadcaster,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 0, result.Published)
	assert.Empty(t, result.Errors)
}

func TestRecomputeJob_Run_NoBroadcaster(t *testing.T) {
	job := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Logger:   zerolog.Nop(),
		Releases: &stubReleases{releases: activeReleases("r1")},
		Plumes:   &stubComputer{},
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 0, result.Published)
}

func TestRecomputeJob_Run_WithConcurrency(t *testing.T) {
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	computer := &stubComputer{}

	job := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Config:   worker.RecomputeConfig{Concurrency: 3},
		Logger:   zerolog.Nop(),
		Releases: &stubReleases{releases: activeReleases(ids...)},
		Plumes:   computer,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 10, result.TotalReleases)
	assert.Equal(t, 10, result.Successful)
	assert.Equal(t, 10, computer.computedCount())
}

func TestRecomputeJob_GetMetrics(t *testing.T) {
	job := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Logger:   zerolog.Nop(),
		Releases: &stubReleases{releases: activeReleases("r1", "r2")},
		Plumes:   &stubComputer{errs: map[string]error{"r2": plume.ErrCalmConditions}},
	})

	_ = job.Run(context.Background())
	_ = job.Run(context.Background())

	metrics := job.GetMetrics()
	assert.Equal(t, int64(2), metrics.TotalRuns)
	assert.Equal(t, int64(2), metrics.SuccessfulComputes)
	assert.Equal(t, int64(2), metrics.SkippedCalm)
	assert.Equal(t, int64(0), metrics.FailedComputes)
	assert.NotZero(t, metrics.LastRunAt)
}

func TestRecomputeJob_MetricsSnapshot(t *testing.T) {
	job := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Logger:   zerolog.Nop(),
		Releases: &stubReleases{},
		Plumes:   &stubComputer{},
	})

	_ = job.Run(context.Background())

	snapshot := job.MetricsSnapshot()

	assert.Contains(t, snapshot, "total_runs")
	assert.Contains(t, snapshot, "successful_computes")
	assert.Contains(t, snapshot, "failed_computes")
	assert.Contains(t, snapshot, "skipped_calm")
	assert.Contains(t, snapshot, "last_run_at")
	assert.Contains(t, snapshot, "last_run_duration")
}

func TestRecomputeJob_RunPeriodic(t *testing.T) {
	clock := clockwork.NewFakeClock()
	computer := &stubComputer{}

	job := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Config:   worker.RecomputeConfig{Interval: time.Minute},
		Logger:   zerolog.Nop(),
		Releases: &stubReleases{releases: activeReleases("r1")},
		Plumes:   computer,
		Clock:    clock,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		job.RunPeriodic(ctx)
		close(done)
	}()

	// Wait for the loop to arm its ticker, then fire it.
	clock.BlockUntil(1)
	clock.Advance(time.Minute)

	assert.Eventually(t, func() bool {
		return computer.computedCount() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("periodic loop did not stop on cancel")
	}
}

func TestRecomputeJob_Run_ContextCancellation(t *testing.T) {
	job := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Config:   worker.RecomputeConfig{Concurrency: 1},
		Logger:   zerolog.Nop(),
		Releases: &stubReleases{releases: activeReleases("r1", "r2", "r3")},
		Plumes:   &stubComputer{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx)

	// Completes without hanging even when cancelled mid-run.
	assert.NotNil(t, result)
}
