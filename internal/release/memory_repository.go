package release

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local development. Production should
// use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu       sync.RWMutex
	releases map[string]*Release
}

// NewInMemoryRepository creates a new in-memory release repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		releases: make(map[string]*Release),
	}
}

// Get retrieves a release by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Release, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rel, ok := r.releases[id]
	if !ok {
		return nil, ErrReleaseNotFound
	}
	return copyRelease(rel), nil
}

// List retrieves releases, optionally filtered by status.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Release
	for _, rel := range r.releases {
		if opts.Status != "" && rel.Status != opts.Status {
			continue
		}
		items = append(items, copyRelease(rel))
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].StartedAt.After(items[j].StartedAt)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(items) > limit {
		items = items[:limit]
	}

	return &ListResult{Items: items}, nil
}

// ListActive retrieves all releases still marked active.
func (r *InMemoryRepository) ListActive(_ context.Context) ([]*Release, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Release
	for _, rel := range r.releases {
		if rel.Status == StatusActive {
			items = append(items, copyRelease(rel))
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].StartedAt.Before(items[j].StartedAt)
	})
	return items, nil
}

// Create creates a new release.
func (r *InMemoryRepository) Create(_ context.Context, rel *Release) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releases[rel.ID] = copyRelease(rel)
	return nil
}

// Update updates an existing release.
func (r *InMemoryRepository) Update(_ context.Context, rel *Release) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.releases[rel.ID]; !ok {
		return ErrReleaseNotFound
	}

	r.releases[rel.ID] = copyRelease(rel)
	return nil
}

// Delete deletes a release.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.releases[id]; !ok {
		return ErrReleaseNotFound
	}

	delete(r.releases, id)
	return nil
}

// copyRelease creates a deep copy of a release.
func copyRelease(rel *Release) *Release {
	if rel == nil {
		return nil
	}

	relCopy := *rel
	if rel.Rate != nil {
		val := *rel.Rate
		relCopy.Rate = &val
	}
	if rel.TotalMass != nil {
		val := *rel.TotalMass
		relCopy.TotalMass = &val
	}
	if rel.Volume != nil {
		val := *rel.Volume
		relCopy.Volume = &val
	}
	if rel.StoppedAt != nil {
		val := *rel.StoppedAt
		relCopy.StoppedAt = &val
	}
	return &relCopy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
