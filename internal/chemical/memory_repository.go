package chemical

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local development. Production should
// use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu        sync.RWMutex
	chemicals map[string]*Chemical // keyed by ID
	byCAS     map[string]string    // CAS number -> ID
}

// NewInMemoryRepository creates a new in-memory chemical repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		chemicals: make(map[string]*Chemical),
		byCAS:     make(map[string]string),
	}
}

// Get retrieves a chemical by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Chemical, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chem, ok := r.chemicals[id]
	if !ok {
		return nil, ErrChemicalNotFound
	}
	return copyChemical(chem), nil
}

// GetByCAS retrieves a chemical by CAS registry number.
func (r *InMemoryRepository) GetByCAS(_ context.Context, cas string) (*Chemical, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCAS[cas]
	if !ok {
		return nil, ErrChemicalNotFound
	}
	return copyChemical(r.chemicals[id]), nil
}

// List retrieves catalog chemicals, optionally filtered.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(opts.Query)

	var items []*Chemical
	for _, chem := range r.chemicals {
		if query != "" &&
			!strings.Contains(strings.ToLower(chem.Name), query) &&
			!strings.Contains(chem.CASNumber, opts.Query) {
			continue
		}
		items = append(items, copyChemical(chem))
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(items) > limit {
		items = items[:limit]
	}

	return &ListResult{Items: items}, nil
}

// Create adds a chemical to the catalog.
func (r *InMemoryRepository) Create(_ context.Context, chem *Chemical) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCAS[chem.CASNumber]; ok {
		return ErrDuplicateCAS
	}

	r.chemicals[chem.ID] = copyChemical(chem)
	r.byCAS[chem.CASNumber] = chem.ID
	return nil
}

// Update updates an existing chemical.
func (r *InMemoryRepository) Update(_ context.Context, chem *Chemical) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.chemicals[chem.ID]
	if !ok {
		return ErrChemicalNotFound
	}

	// CAS number is immutable once in the catalog.
	updated := copyChemical(chem)
	updated.CASNumber = existing.CASNumber
	r.chemicals[chem.ID] = updated
	return nil
}

// Delete removes a chemical from the catalog.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chem, ok := r.chemicals[id]
	if !ok {
		return ErrChemicalNotFound
	}

	delete(r.byCAS, chem.CASNumber)
	delete(r.chemicals, id)
	return nil
}

// copyChemical creates a deep copy of a chemical.
func copyChemical(c *Chemical) *Chemical {
	if c == nil {
		return nil
	}

	chemCopy := *c
	if c.LiquidDensity != nil {
		val := *c.LiquidDensity
		chemCopy.LiquidDensity = &val
	}
	if c.BoilingPoint != nil {
		val := *c.BoilingPoint
		chemCopy.BoilingPoint = &val
	}
	return &chemCopy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
