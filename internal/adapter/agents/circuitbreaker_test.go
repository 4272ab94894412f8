package agents

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"jobscout/internal/domain"
	"jobscout/internal/infra/config"
	"jobscout/internal/infra/logger"
)

func TestCircuitBreakerPassthrough(t *testing.T) {
	inner := &StubAgent{AgentID: "seek", Records: []domain.JobRecord{{Title: "Welder", Company: "x", Location: "y"}}}
	cb := NewCircuitBreakerAgent(inner, config.BreakerConfig{}, logger.Discard())

	if cb.ID() != "seek" {
		t.Errorf("ID = %s, want seek", cb.ID())
	}
	records, err := cb.Search(context.Background(), domain.NormalizedQuery{Terms: "welding"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1", len(records))
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &StubAgent{AgentID: "indeed", Err: fmt.Errorf("status 503: %w", domain.ErrNetwork)}
	cfg := config.BreakerConfig{MaxFailures: 2, Timeout: time.Minute}
	cb := NewCircuitBreakerAgent(inner, cfg, logger.Discard())

	for i := 0; i < 2; i++ {
		if _, err := cb.Search(context.Background(), domain.NormalizedQuery{}); err == nil {
			t.Fatalf("call %d should fail", i)
		}
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open after 2 consecutive failures", cb.State())
	}

	// The open circuit fails fast without touching the site.
	before := inner.Calls()
	_, err := cb.Search(context.Background(), domain.NormalizedQuery{})
	if err == nil {
		t.Fatal("open circuit must fail")
	}
	if !errors.Is(err, domain.ErrNetwork) {
		t.Errorf("open circuit error = %v, want network kind", err)
	}
	if inner.Calls() != before {
		t.Errorf("inner called while circuit open")
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	inner := &StubAgent{AgentID: "seek", Err: fmt.Errorf("dial: %w", domain.ErrNetwork)}
	cfg := config.BreakerConfig{MaxFailures: 3, Timeout: time.Minute}
	cb := NewCircuitBreakerAgent(inner, cfg, logger.Discard())

	// Two failures, then a success, then two more failures: the circuit
	// stays closed because the failures were not consecutive.
	cb.Search(context.Background(), domain.NormalizedQuery{})
	cb.Search(context.Background(), domain.NormalizedQuery{})
	inner.Err = nil
	if _, err := cb.Search(context.Background(), domain.NormalizedQuery{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	inner.Err = fmt.Errorf("dial: %w", domain.ErrNetwork)
	cb.Search(context.Background(), domain.NormalizedQuery{})
	cb.Search(context.Background(), domain.NormalizedQuery{})

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}
