package resilience

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned when the provider's breaker rejects the call.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig holds configuration for a resilient HTTP client.
type ClientConfig struct {
	// Name identifies the provider in logs, breaker state, and health reports.
	Name string

	// Timeout bounds each individual HTTP attempt.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the first call.
	// Default: 3
	MaxRetries uint64

	// InitialInterval is the first retry backoff interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff interval.
	// Default: 5 seconds
	MaxInterval time.Duration

	// Breaker tunes the circuit breaker. If nil, DefaultBreakerConfig applies.
	Breaker *BreakerConfig
}

// DefaultClientConfig returns the standard client tuning for a provider.
func DefaultClientConfig(name string) ClientConfig {
	breaker := DefaultBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Breaker:         &breaker,
	}
}

// Client is an HTTP client with a circuit breaker, per-attempt timeouts,
// and exponential-backoff retries. It records the outcome of every call
// so Health can be served without extra bookkeeping at the call sites.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     ClientConfig

	mu            sync.Mutex
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewClient creates a resilient HTTP client for one provider.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	breakerCfg := DefaultBreakerConfig(cfg.Name)
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    newBreaker[*http.Response](breakerCfg), //nolint:bodyclose // type param, not a response
		config:     cfg,
	}
}

// Do executes the request with breaker protection and retries. Transient
// failures (network errors and 5xx responses) are retried with exponential
// backoff; an open breaker fails fast with ErrCircuitOpen. If retries are
// exhausted on a 5xx, the last response is returned so the caller can
// inspect it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext executes the request under the given context.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var lastResp *http.Response

	attempt := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			// 5xx counts as a failure so the breaker sees it.
			if r.StatusCode >= 500 {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				lastResp = resp
			}
			return err
		}

		lastResp = resp
		return nil
	}

	err := backoff.Retry(attempt, policy)
	if err != nil {
		if lastResp != nil {
			// Exhausted retries on a 5xx: hand the response back anyway.
			c.record(err)
			return lastResp, nil
		}
		c.record(err)
		return nil, err
	}

	c.record(nil)
	return lastResp, nil
}

func (c *Client) record(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if err == nil {
		c.lastSuccessAt = &now
		return
	}
	c.lastFailureAt = &now
	c.lastError = err.Error()
}

// ServerError represents an HTTP 5xx response from the provider.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// BreakerState returns the breaker's current state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// BreakerCounts returns the breaker's request counters.
func (c *Client) BreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}

// Health snapshots the provider's current health.
func (c *Client) Health() *ProviderHealth {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &ProviderHealth{
		Name:          c.config.Name,
		CircuitState:  c.breaker.State(),
		Counts:        c.breaker.Counts(),
		LastSuccessAt: c.lastSuccessAt,
		LastFailureAt: c.lastFailureAt,
		LastError:     c.lastError,
	}
}
