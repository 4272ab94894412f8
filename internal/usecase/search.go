package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"jobscout/internal/domain"
	"jobscout/internal/infra/config"
	"jobscout/internal/infra/tracer"
	"jobscout/internal/usecase/dispatch"
	"jobscout/internal/usecase/routing"
)

// SearchRequest is the inbound boundary value for one search invocation.
type SearchRequest struct {
	RawQuery string `json:"raw_query"`
	// LocationHint is extra location context from the caller (profile,
	// UI selection). It participates in signal extraction but is not part
	// of the search terms handed to agents.
	LocationHint  string `json:"location_hint,omitempty"`
	ResultsWanted int    `json:"results_wanted,omitempty"`
	// MaxWorkers overrides the configured dispatch concurrency for this
	// call only. 0 keeps the configured value.
	MaxWorkers int `json:"max_workers,omitempty"`
	// TimeBudgetHours caps the whole invocation. 0 means no extra deadline
	// beyond the caller's context.
	TimeBudgetHours float64 `json:"time_budget_hours,omitempty"`
}

// AuditSink receives completed searches for the optional audit trail. Sink
// failures are logged and swallowed: auditing is an observer, never a
// correctness dependency.
type AuditSink interface {
	Record(ctx context.Context, rawQuery string, result domain.AggregationResult) error
}

// Searcher is the orchestrator: analyze, dispatch, combine. One instance
// serves concurrent callers; all state is immutable after construction.
type Searcher struct {
	engine      *routing.Engine
	agents      dispatch.AgentProvider
	fallback    []domain.AgentID
	dispatchCfg config.DispatchConfig
	audit       AuditSink
	logger      *slog.Logger
}

// NewSearcher wires the routing engine and agent pool into one search
// pipeline. audit may be nil.
func NewSearcher(engine *routing.Engine, agents dispatch.AgentProvider, cfg *config.Config, audit AuditSink, logger *slog.Logger) *Searcher {
	fallback := make([]domain.AgentID, 0, len(cfg.Routing.DefaultAgents))
	for _, id := range cfg.Routing.DefaultAgents {
		fallback = append(fallback, domain.AgentID(id))
	}
	return &Searcher{
		engine:      engine,
		agents:      agents,
		fallback:    fallback,
		dispatchCfg: cfg.Dispatch,
		audit:       audit,
		logger:      logger,
	}
}

// RouteAndExecute runs one full search: signal extraction and routing,
// bounded concurrent dispatch, aggregation. It never returns an error for
// routine operation; total agent failure is a valid all-failed result the
// presentation layer interprets.
func (s *Searcher) RouteAndExecute(ctx context.Context, req SearchRequest) domain.AggregationResult {
	ctx, span := tracer.StartSpan(ctx, "search.route_and_execute")
	defer span.End()

	searchID := ulid.Make().String()
	logger := s.logger.With("search_id", searchID)

	if req.TimeBudgetHours > 0 {
		budget := time.Duration(req.TimeBudgetHours * float64(time.Hour))
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	decision := s.engine.Analyze(ctx, extractionInput(req))
	logger.Info("query routed",
		"agents", len(decision.SelectedAgents),
		"confidence", decision.Confidence,
		"fallback", decision.UsedFallback,
	)

	query := domain.NormalizedQuery{
		Terms:         strings.TrimSpace(req.RawQuery),
		Region:        decision.Signals.Region,
		Industry:      decision.Signals.Industry,
		DistanceKM:    decision.Signals.DistanceKM,
		Language:      decision.Signals.Language,
		ResultsWanted: req.ResultsWanted,
	}

	dcfg := s.dispatchCfg
	if req.MaxWorkers > 0 {
		dcfg.MaxWorkers = req.MaxWorkers
	}
	dispatcher := dispatch.NewDispatcher(s.agents, s.fallback, dcfg, logger)

	start := time.Now()
	results, finalDecision := dispatcher.Execute(ctx, decision, query)
	agg := dispatch.Combine(finalDecision, results, time.Since(start))
	agg.SearchID = searchID

	logger.Info("search complete",
		"jobs", agg.TotalJobs,
		"succeeded", len(agg.SuccessfulAgents),
		"failed", len(agg.FailedAgents),
		"fallback", finalDecision.UsedFallback,
		"elapsed", agg.TotalExecutionTime,
	)
	if agg.AllFailed() {
		logger.Warn("every dispatched agent failed", "agents", len(agg.ExecutionResults))
	}

	if s.audit != nil {
		// The audit write survives caller cancellation: a cancelled search
		// is still a search that happened.
		actx := context.WithoutCancel(ctx)
		if err := s.audit.Record(actx, req.RawQuery, agg); err != nil {
			logger.Warn("audit write failed", "error", err)
		}
	}

	span.SetAttributes(
		tracer.StringAttr("search.id", searchID),
		tracer.IntAttr("search.jobs", agg.TotalJobs),
		tracer.IntAttr("search.failed_agents", len(agg.FailedAgents)),
		tracer.BoolAttr("search.fallback", finalDecision.UsedFallback),
	)
	tracer.SetOK(span)
	return agg
}

// extractionInput folds the location hint into the text scanned for signals.
// The hint supplements the query; it never replaces it.
func extractionInput(req SearchRequest) string {
	if req.LocationHint == "" {
		return req.RawQuery
	}
	return req.RawQuery + " " + req.LocationHint
}
