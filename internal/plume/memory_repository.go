package plume

import (
	"context"
	"sync"
)

// InMemorySnapshotRepository is an in-memory implementation of
// SnapshotRepository for testing and local development.
type InMemorySnapshotRepository struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot // keyed by release ID
}

// NewInMemorySnapshotRepository creates a new in-memory snapshot repository.
func NewInMemorySnapshotRepository() *InMemorySnapshotRepository {
	return &InMemorySnapshotRepository{
		snapshots: make(map[string]*Snapshot),
	}
}

// GetLatest retrieves the most recent snapshot for a release.
func (r *InMemorySnapshotRepository) GetLatest(_ context.Context, releaseID string) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.snapshots[releaseID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return copySnapshot(snap), nil
}

// Put stores a snapshot, replacing any older one for the release.
func (r *InMemorySnapshotRepository) Put(_ context.Context, snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshots[snap.ReleaseID] = copySnapshot(snap)
	return nil
}

// DeleteByRelease removes the snapshot history for a release.
func (r *InMemorySnapshotRepository) DeleteByRelease(_ context.Context, releaseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.snapshots, releaseID)
	return nil
}

// copySnapshot creates a deep copy of a snapshot.
func copySnapshot(s *Snapshot) *Snapshot {
	if s == nil {
		return nil
	}

	snapCopy := *s
	if s.Conditions.CloudCover != nil {
		val := *s.Conditions.CloudCover
		snapCopy.Conditions.CloudCover = &val
	}
	snapCopy.Contours = nil
	for _, c := range s.Contours {
		contour := c
		contour.Polygon = append(contour.Polygon[:0:0], c.Polygon...)
		snapCopy.Contours = append(snapCopy.Contours, contour)
	}
	return &snapCopy
}

// Ensure InMemorySnapshotRepository implements SnapshotRepository.
var _ SnapshotRepository = (*InMemorySnapshotRepository)(nil)
