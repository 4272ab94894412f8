package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"jobscout/internal/domain"
	"jobscout/internal/infra/config"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// CircuitBreakerAgent wraps a SearchAgent with circuit breaker protection.
// When the site fails repeatedly, the circuit opens and subsequent calls
// fail fast without reaching it, preventing retry storms against a site
// that is already struggling.
type CircuitBreakerAgent struct {
	inner   domain.SearchAgent
	breaker *gobreaker.CircuitBreaker[[]domain.JobRecord]
	logger  *slog.Logger
}

// NewCircuitBreakerAgent wraps inner with a circuit breaker. Zero-valued
// config fields fall back to defaults.
func NewCircuitBreakerAgent(inner domain.SearchAgent, cfg config.BreakerConfig, logger *slog.Logger) *CircuitBreakerAgent {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	name := string(inner.ID())
	cb := gobreaker.NewCircuitBreaker[[]domain.JobRecord](gobreaker.Settings{
		Name:        "agent:" + name,
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &CircuitBreakerAgent{inner: inner, breaker: cb, logger: logger}
}

// ID implements domain.SearchAgent.
func (a *CircuitBreakerAgent) ID() domain.AgentID { return a.inner.ID() }

// Search implements domain.SearchAgent. An open circuit surfaces as a
// network-kind failure: the site is unhealthy as far as routing is concerned.
func (a *CircuitBreakerAgent) Search(ctx context.Context, q domain.NormalizedQuery) ([]domain.JobRecord, error) {
	records, err := a.breaker.Execute(func() ([]domain.JobRecord, error) {
		return a.inner.Search(ctx, q)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: agent %q circuit open", domain.ErrNetwork, a.inner.ID())
		}
		return nil, err
	}
	return records, nil
}

// State returns the current circuit breaker state for monitoring.
func (a *CircuitBreakerAgent) State() gobreaker.State { return a.breaker.State() }

// Counts returns the current circuit breaker failure/success counts.
func (a *CircuitBreakerAgent) Counts() gobreaker.Counts { return a.breaker.Counts() }

var _ domain.SearchAgent = (*CircuitBreakerAgent)(nil)
