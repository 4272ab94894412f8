package agents

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/domain"
	"jobscout/internal/infra/config"
	"jobscout/internal/infra/logger"
)

func TestNewRegistryFromDefaults(t *testing.T) {
	cfg := config.Defaults()
	r, err := NewRegistry(cfg, logger.Discard())
	require.NoError(t, err)

	want := []domain.AgentID{"linkedin", "indeed", "seek", "naukri"}
	assert.Equal(t, want, r.AllAgents(), "declaration order must be preserved")

	cap, err := r.CapabilitiesOf("seek")
	require.NoError(t, err)
	assert.True(t, cap.LocalCoverage)
	assert.True(t, cap.CoversRegion("australia"))
	assert.InDelta(t, 0.9, cap.Reliability, 1e-9)

	agent, err := r.AgentOf("seek")
	require.NoError(t, err)
	assert.Equal(t, domain.AgentID("seek"), agent.ID())
	// Every agent carries the breaker as its outermost wrapper.
	_, ok := agent.(*CircuitBreakerAgent)
	assert.True(t, ok, "agent should be circuit-breaker wrapped")
}

func TestNewRegistryRejectsDuplicateIDs(t *testing.T) {
	cfg := config.Defaults()
	cfg.Agents = append(cfg.Agents, cfg.Agents[0])

	_, err := NewRegistry(cfg, logger.Discard())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAgentDuplicate))
}

func TestNewRegistryRejectsUnknownKind(t *testing.T) {
	cfg := config.Defaults()
	cfg.Agents[0].Kind = "teleporter"

	_, err := NewRegistry(cfg, logger.Discard())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestNewRegistryRejectsUnknownDefaultAgent(t *testing.T) {
	cfg := config.Defaults()
	cfg.Routing.DefaultAgents = []string{"linkedin", "ghost"}

	_, err := NewRegistry(cfg, logger.Discard())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownAgentRef))
}

func TestRegistryUnknownLookups(t *testing.T) {
	r, err := NewRegistry(config.Defaults(), logger.Discard())
	require.NoError(t, err)

	_, err = r.CapabilitiesOf("ghost")
	assert.True(t, errors.Is(err, domain.ErrAgentNotFound))
	_, err = r.AgentOf("ghost")
	assert.True(t, errors.Is(err, domain.ErrAgentNotFound))
}

func TestRegistryAppliesRateLimitWrapper(t *testing.T) {
	cfg := config.Defaults()
	cfg.Agents[0].RateLimitPerSec = 2

	r, err := NewRegistry(cfg, logger.Discard())
	require.NoError(t, err)

	agent, err := r.AgentOf(domain.AgentID(cfg.Agents[0].ID))
	require.NoError(t, err)
	cb, ok := agent.(*CircuitBreakerAgent)
	require.True(t, ok)
	_, ok = cb.inner.(*RateLimitedAgent)
	assert.True(t, ok, "rate limiter should sit inside the breaker")
}
