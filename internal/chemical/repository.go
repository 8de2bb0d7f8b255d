package chemical

import "context"

// Repository defines the interface for chemical catalog persistence.
type Repository interface {
	// Get retrieves a chemical by ID.
	Get(ctx context.Context, id string) (*Chemical, error)

	// GetByCAS retrieves a chemical by CAS registry number.
	GetByCAS(ctx context.Context, cas string) (*Chemical, error)

	// List retrieves catalog chemicals, optionally filtered.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// Create adds a chemical to the catalog.
	Create(ctx context.Context, chem *Chemical) error

	// Update updates an existing chemical.
	Update(ctx context.Context, chem *Chemical) error

	// Delete removes a chemical from the catalog.
	Delete(ctx context.Context, id string) error
}
