package plume

import "context"

// SnapshotRepository persists the latest plume snapshot per release.
type SnapshotRepository interface {
	// GetLatest retrieves the most recent snapshot for a release.
	GetLatest(ctx context.Context, releaseID string) (*Snapshot, error)

	// Put stores a snapshot, replacing any older one for the release.
	Put(ctx context.Context, snap *Snapshot) error

	// DeleteByRelease removes the snapshot history for a release.
	DeleteByRelease(ctx context.Context, releaseID string) error
}
