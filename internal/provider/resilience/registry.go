package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ProviderHealth is a point-in-time health snapshot of one provider.
type ProviderHealth struct {
	// Name is the provider identifier.
	Name string

	// CircuitState is the breaker state at snapshot time.
	CircuitState gobreaker.State

	// Counts holds the breaker's request statistics.
	Counts gobreaker.Counts

	// LastSuccessAt is when the provider last answered successfully.
	LastSuccessAt *time.Time

	// LastFailureAt is when the provider last failed.
	LastFailureAt *time.Time

	// LastError is the most recent failure message, if any.
	LastError string
}

// IsHealthy reports whether the breaker is closed.
func (h *ProviderHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded reports whether the breaker is half-open.
func (h *ProviderHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// IsUnhealthy reports whether the breaker is open.
func (h *ProviderHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// Registry indexes provider clients by name so the operational endpoints
// can report on every upstream dependency in one place.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// GlobalRegistry is the process-wide provider registry.
var GlobalRegistry = NewRegistry()

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register adds a provider client under the given name.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
}

// Unregister removes a provider from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, name)
}

// GetHealth returns the health of one provider, or nil if unknown.
func (r *Registry) GetHealth(name string) *ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[name]
	if !ok {
		return nil
	}
	return c.Health()
}

// GetAllHealth returns every registered provider's health, sorted by name.
func (r *Registry) GetAllHealth() []*ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]*ProviderHealth, 0, len(r.clients))
	for _, c := range r.clients {
		health = append(health, c.Health())
	}
	sort.Slice(health, func(i, j int) bool { return health[i].Name < health[j].Name })
	return health
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
