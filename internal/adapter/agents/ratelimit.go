package agents

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"jobscout/internal/domain"
)

// RateLimitedAgent paces outbound requests to one site. It blocks until the
// limiter grants a slot or the caller's deadline expires, so pacing shows up
// as latency (and eventually a timeout), never as a dropped call.
type RateLimitedAgent struct {
	inner   domain.SearchAgent
	limiter *rate.Limiter
}

// NewRateLimitedAgent wraps inner with a perSec requests-per-second limiter.
func NewRateLimitedAgent(inner domain.SearchAgent, perSec float64) *RateLimitedAgent {
	burst := int(perSec)
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedAgent{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
	}
}

// ID implements domain.SearchAgent.
func (a *RateLimitedAgent) ID() domain.AgentID { return a.inner.ID() }

// Search implements domain.SearchAgent.
func (a *RateLimitedAgent) Search(ctx context.Context, q domain.NormalizedQuery) ([]domain.JobRecord, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("agent %q rate limit wait: %w", a.inner.ID(), err)
	}
	return a.inner.Search(ctx, q)
}

var _ domain.SearchAgent = (*RateLimitedAgent)(nil)
