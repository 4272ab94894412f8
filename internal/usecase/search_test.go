package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"jobscout/internal/domain"
	"jobscout/internal/infra/config"
	"jobscout/internal/infra/logger"
	"jobscout/internal/usecase/routing"
)

// fakeRegistry serves both the engine's capability view and the dispatcher's
// agent lookup, like the real agents adapter.
type fakeRegistry struct {
	order  []domain.AgentID
	caps   map[domain.AgentID]domain.AgentCapability
	agents map[domain.AgentID]domain.SearchAgent
}

func (f *fakeRegistry) AllAgents() []domain.AgentID { return f.order }

func (f *fakeRegistry) CapabilitiesOf(id domain.AgentID) (domain.AgentCapability, error) {
	c, ok := f.caps[id]
	if !ok {
		return domain.AgentCapability{}, domain.ErrAgentNotFound
	}
	return c, nil
}

func (f *fakeRegistry) AgentOf(id domain.AgentID) (domain.SearchAgent, error) {
	a, ok := f.agents[id]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	return a, nil
}

// recordingAgent returns canned records and remembers the query it was given.
type recordingAgent struct {
	id      domain.AgentID
	records []domain.JobRecord
	err     error

	mu   sync.Mutex
	seen []domain.NormalizedQuery
}

func (a *recordingAgent) ID() domain.AgentID { return a.id }

func (a *recordingAgent) Search(_ context.Context, q domain.NormalizedQuery) ([]domain.JobRecord, error) {
	a.mu.Lock()
	a.seen = append(a.seen, q)
	a.mu.Unlock()
	return a.records, a.err
}

func (a *recordingAgent) queries() []domain.NormalizedQuery {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.NormalizedQuery(nil), a.seen...)
}

type recordingSink struct {
	mu      sync.Mutex
	queries []string
	results []domain.AggregationResult
	err     error
}

func (s *recordingSink) Record(_ context.Context, rawQuery string, result domain.AggregationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, rawQuery)
	s.results = append(s.results, result)
	return s.err
}

func newTestSearcher(t *testing.T, reg *fakeRegistry, audit AuditSink) *Searcher {
	t.Helper()
	cfg := config.Defaults()
	g := routing.NewGazetteer(cfg.Gazetteer)
	engine := routing.NewEngine(reg, g, cfg.Routing, logger.Discard())
	return NewSearcher(engine, reg, cfg, audit, logger.Discard())
}

func defaultFakeRegistry() *fakeRegistry {
	mk := func(id domain.AgentID, titles ...string) *recordingAgent {
		records := make([]domain.JobRecord, 0, len(titles))
		for _, title := range titles {
			records = append(records, domain.JobRecord{Title: title, Company: "acme", Location: "sydney"})
		}
		return &recordingAgent{id: id, records: records}
	}
	return &fakeRegistry{
		order: []domain.AgentID{"linkedin", "indeed", "seek"},
		caps: map[domain.AgentID]domain.AgentCapability{
			"linkedin": {Reliability: 0.9},
			"indeed":   {Reliability: 0.85},
			"seek":     {Reliability: 0.9, Regions: []domain.RegionTag{"australia"}, LocalCoverage: true},
		},
		agents: map[domain.AgentID]domain.SearchAgent{
			"linkedin": mk("linkedin", "Engineer", "Analyst"),
			"indeed":   mk("indeed", "Engineer", "Developer"),
			"seek":     mk("seek", "Welder"),
		},
	}
}

func TestRouteAndExecuteEndToEnd(t *testing.T) {
	reg := defaultFakeRegistry()
	s := newTestSearcher(t, reg, nil)

	agg := s.RouteAndExecute(context.Background(), SearchRequest{
		RawQuery: "software engineer jobs in Sydney, Australia",
	})

	if agg.SearchID == "" {
		t.Error("search ID must be assigned")
	}
	if agg.RoutingDecision.UsedFallback {
		t.Error("routable query must not fall back")
	}
	if len(agg.RoutingDecision.SelectedAgents) == 0 || agg.RoutingDecision.SelectedAgents[0] != "seek" {
		t.Errorf("selected = %v, want seek first", agg.RoutingDecision.SelectedAgents)
	}
	if agg.TotalJobs == 0 {
		t.Error("successful agents must produce jobs")
	}
	if len(agg.ExecutionResults) != len(agg.RoutingDecision.SelectedAgents) {
		t.Errorf("results = %d, want one per selected agent (%d)",
			len(agg.ExecutionResults), len(agg.RoutingDecision.SelectedAgents))
	}
}

func TestRouteAndExecuteSearchIDsAreUnique(t *testing.T) {
	s := newTestSearcher(t, defaultFakeRegistry(), nil)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		agg := s.RouteAndExecute(context.Background(), SearchRequest{RawQuery: "jobs"})
		if seen[agg.SearchID] {
			t.Fatalf("duplicate search ID %s", agg.SearchID)
		}
		seen[agg.SearchID] = true
	}
}

// The location hint feeds extraction but stays out of the search terms.
func TestRouteAndExecuteLocationHint(t *testing.T) {
	reg := defaultFakeRegistry()
	s := newTestSearcher(t, reg, nil)

	agg := s.RouteAndExecute(context.Background(), SearchRequest{
		RawQuery:     "welding jobs",
		LocationHint: "Sydney, Australia",
	})

	if agg.RoutingDecision.Signals.Region != "sydney" {
		t.Errorf("region signal = %q, want sydney from the hint", agg.RoutingDecision.Signals.Region)
	}
	seek := reg.agents["seek"].(*recordingAgent)
	qs := seek.queries()
	if len(qs) == 0 {
		t.Fatal("seek should have been dispatched")
	}
	if qs[0].Terms != "welding jobs" {
		t.Errorf("terms = %q, the hint must not leak into them", qs[0].Terms)
	}
	if qs[0].Region != "sydney" {
		t.Errorf("normalized query region = %q, want sydney", qs[0].Region)
	}
}

func TestRouteAndExecutePassesResultsWanted(t *testing.T) {
	reg := defaultFakeRegistry()
	s := newTestSearcher(t, reg, nil)

	s.RouteAndExecute(context.Background(), SearchRequest{
		RawQuery:      "jobs in Sydney, Australia",
		ResultsWanted: 40,
	})

	seek := reg.agents["seek"].(*recordingAgent)
	qs := seek.queries()
	if len(qs) == 0 {
		t.Fatal("seek should have been dispatched")
	}
	if qs[0].ResultsWanted != 40 {
		t.Errorf("results_wanted = %d, want 40 passed through", qs[0].ResultsWanted)
	}
}

func TestRouteAndExecuteNotifiesAudit(t *testing.T) {
	sink := &recordingSink{}
	s := newTestSearcher(t, defaultFakeRegistry(), sink)

	agg := s.RouteAndExecute(context.Background(), SearchRequest{RawQuery: "nurse jobs in Melbourne"})

	if len(sink.results) != 1 {
		t.Fatalf("audit received %d records, want 1", len(sink.results))
	}
	if sink.results[0].SearchID != agg.SearchID {
		t.Errorf("audited search ID = %s, want %s", sink.results[0].SearchID, agg.SearchID)
	}
	if sink.queries[0] != "nurse jobs in Melbourne" {
		t.Errorf("audited query = %q", sink.queries[0])
	}
}

// A broken audit sink never breaks the search.
func TestRouteAndExecuteAuditFailureIsNonFatal(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	s := newTestSearcher(t, defaultFakeRegistry(), sink)

	agg := s.RouteAndExecute(context.Background(), SearchRequest{RawQuery: "jobs in Sydney, Australia"})

	if agg.TotalJobs == 0 {
		t.Error("search must succeed despite the audit failure")
	}
}

// All agents failing still yields a well-formed all-failed aggregate, with
// the default agents escalated after the primary pass comes up empty.
func TestRouteAndExecuteAllAgentsFail(t *testing.T) {
	reg := defaultFakeRegistry()
	// Pin linkedin and indeed to a region the query cannot match, so only
	// seek is a primary and the escalation pass has agents left to run.
	reg.caps["linkedin"] = domain.AgentCapability{Reliability: 0.9, Regions: []domain.RegionTag{"united-states"}}
	reg.caps["indeed"] = domain.AgentCapability{Reliability: 0.85, Regions: []domain.RegionTag{"united-states"}}
	for id := range reg.agents {
		reg.agents[id] = &recordingAgent{id: id, err: fmt.Errorf("dial: %w", domain.ErrNetwork)}
	}
	s := newTestSearcher(t, reg, nil)

	agg := s.RouteAndExecute(context.Background(), SearchRequest{RawQuery: "jobs in Sydney, Australia"})

	if !agg.AllFailed() {
		t.Error("expected AllFailed aggregate")
	}
	if agg.TotalJobs != 0 {
		t.Errorf("total jobs = %d, want 0", agg.TotalJobs)
	}
	// Every primary failed, so the dispatcher escalated to the defaults.
	if !agg.RoutingDecision.UsedFallback {
		t.Error("decision should be re-flagged after escalation")
	}
	for _, r := range agg.ExecutionResults {
		if r.ErrorKind != domain.ErrorKindNetwork {
			t.Errorf("agent %s error kind = %s, want NETWORK", r.Agent, r.ErrorKind)
		}
	}
}
