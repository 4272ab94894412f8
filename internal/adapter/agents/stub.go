package agents

import (
	"context"
	"sync/atomic"
	"time"

	"jobscout/internal/domain"
)

// StubAgent is a scriptable SearchAgent for tests and offline runs: fixed
// records, a fixed error, and an optional artificial latency.
type StubAgent struct {
	AgentID domain.AgentID
	Records []domain.JobRecord
	Err     error
	Latency time.Duration

	calls atomic.Int64
}

// ID implements domain.SearchAgent.
func (s *StubAgent) ID() domain.AgentID { return s.AgentID }

// Search implements domain.SearchAgent.
func (s *StubAgent) Search(ctx context.Context, _ domain.NormalizedQuery) ([]domain.JobRecord, error) {
	s.calls.Add(1)
	if s.Latency > 0 {
		select {
		case <-time.After(s.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Records, nil
}

// Calls reports how many times Search has been invoked.
func (s *StubAgent) Calls() int64 { return s.calls.Load() }

var _ domain.SearchAgent = (*StubAgent)(nil)
