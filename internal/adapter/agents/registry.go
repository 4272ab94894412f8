package agents

import (
	"fmt"
	"log/slog"

	"jobscout/internal/domain"
	"jobscout/internal/infra/config"
)

// Registry is the immutable capability table plus the constructed agent per
// entry. Declaration order is preserved and meaningful: it is the final
// routing tie-break. Built once at startup, read-only afterwards, safe for
// concurrent use.
type Registry struct {
	order  []domain.AgentID
	caps   map[domain.AgentID]domain.AgentCapability
	agents map[domain.AgentID]domain.SearchAgent
}

// NewRegistry constructs every configured agent with its resilience wrappers.
// Construction is fail-fast: a duplicate ID or unknown kind aborts startup,
// matching the load-time validation contract.
func NewRegistry(cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	r := &Registry{
		order:  make([]domain.AgentID, 0, len(cfg.Agents)),
		caps:   make(map[domain.AgentID]domain.AgentCapability, len(cfg.Agents)),
		agents: make(map[domain.AgentID]domain.SearchAgent, len(cfg.Agents)),
	}

	for _, ac := range cfg.Agents {
		id := domain.AgentID(ac.ID)
		if _, exists := r.caps[id]; exists {
			return nil, fmt.Errorf("%w: agent %q declared twice", domain.ErrAgentDuplicate, ac.ID)
		}

		agent, err := buildAgent(ac, logger)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", ac.ID, err)
		}

		r.order = append(r.order, id)
		r.caps[id] = capabilityOf(ac)
		r.agents[id] = agent
	}

	for _, def := range cfg.Routing.DefaultAgents {
		if _, ok := r.caps[domain.AgentID(def)]; !ok {
			return nil, fmt.Errorf("%w: default agent %q is not registered", domain.ErrUnknownAgentRef, def)
		}
	}

	logger.Info("agent registry built", "agents", len(r.order))
	return r, nil
}

// buildAgent composes the base HTTP client with the per-agent resilience
// wrappers as breaker(limiter(http)): an open circuit fails fast without
// consuming limiter slots.
func buildAgent(ac config.AgentConfig, logger *slog.Logger) (domain.SearchAgent, error) {
	profile, err := profileFor(ac.Kind)
	if err != nil {
		return nil, err
	}

	var agent domain.SearchAgent = NewHTTPAgent(domain.AgentID(ac.ID), ac.Endpoint, ac.APIKey, profile, logger)
	if ac.RateLimitPerSec > 0 {
		agent = NewRateLimitedAgent(agent, ac.RateLimitPerSec)
	}
	return NewCircuitBreakerAgent(agent, ac.Breaker, logger), nil
}

func capabilityOf(ac config.AgentConfig) domain.AgentCapability {
	regions := make([]domain.RegionTag, 0, len(ac.Regions))
	for _, r := range ac.Regions {
		regions = append(regions, domain.RegionTag(r))
	}
	industries := make([]domain.IndustryTag, 0, len(ac.Industries))
	for _, i := range ac.Industries {
		industries = append(industries, domain.IndustryTag(i))
	}
	return domain.AgentCapability{
		Reliability:   ac.Reliability,
		Regions:       regions,
		Industries:    industries,
		Strengths:     ac.Strengths,
		LocalCoverage: ac.LocalCoverage,
	}
}

// AllAgents returns every agent ID in declaration order. The returned slice
// is shared; callers must not mutate it.
func (r *Registry) AllAgents() []domain.AgentID { return r.order }

// CapabilitiesOf returns the capability descriptor for one agent.
func (r *Registry) CapabilitiesOf(id domain.AgentID) (domain.AgentCapability, error) {
	c, ok := r.caps[id]
	if !ok {
		return domain.AgentCapability{}, fmt.Errorf("%w: %s", domain.ErrAgentNotFound, id)
	}
	return c, nil
}

// AgentOf returns the runnable agent for one ID.
func (r *Registry) AgentOf(id domain.AgentID) (domain.SearchAgent, error) {
	a, ok := r.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAgentNotFound, id)
	}
	return a, nil
}
