package release

import "context"

// Repository defines the interface for release persistence.
type Repository interface {
	// Get retrieves a release by ID.
	Get(ctx context.Context, id string) (*Release, error)

	// List retrieves releases, optionally filtered by status.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// ListActive retrieves all releases still marked active.
	ListActive(ctx context.Context) ([]*Release, error)

	// Create creates a new release.
	Create(ctx context.Context, rel *Release) error

	// Update updates an existing release.
	Update(ctx context.Context, rel *Release) error

	// Delete deletes a release.
	Delete(ctx context.Context, id string) error
}
