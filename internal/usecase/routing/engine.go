package routing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"jobscout/internal/domain"
	"jobscout/internal/infra/config"
	"jobscout/internal/infra/tracer"
)

// CapabilityProvider is the read-only registry view the engine scores
// against. Implemented by the agents adapter; safe for concurrent use.
type CapabilityProvider interface {
	// AllAgents returns every agent ID in declaration order.
	AllAgents() []domain.AgentID
	// CapabilitiesOf returns the capability descriptor for one agent.
	CapabilitiesOf(id domain.AgentID) (domain.AgentCapability, error)
}

// Engine turns a raw query into a RoutingDecision. Analyze is a pure
// function of (query, registry, config) and never fails: unroutable input
// degrades to the configured default agents.
type Engine struct {
	registry  CapabilityProvider
	gazetteer *Gazetteer
	extractor *Extractor
	cfg       config.RoutingConfig
	logger    *slog.Logger
}

// NewEngine creates a routing engine.
func NewEngine(registry CapabilityProvider, g *Gazetteer, cfg config.RoutingConfig, logger *slog.Logger) *Engine {
	return &Engine{
		registry:  registry,
		gazetteer: g,
		extractor: NewExtractor(g, cfg.MaxScanLength),
		cfg:       cfg,
		logger:    logger,
	}
}

// Analyze scores every registered agent against the query's signals and
// selects the dispatch set. The returned decision is immutable and fully
// reproducible from the same inputs.
func (e *Engine) Analyze(ctx context.Context, query string) domain.RoutingDecision {
	_, span := tracer.StartSpan(ctx, "routing.analyze")
	defer span.End()

	signals := e.extractor.Extract(query)
	scores := e.scoreAll(signals)

	selected := e.selectAgents(scores)
	if signals.HasDistance() {
		selected = e.appendLocalSpecialist(selected, signals, scores)
	}

	usedFallback := len(selected) == 0
	if usedFallback {
		selected = e.fallbackScores(scores)
	}

	confidence := e.cfg.FallbackConfidence
	if !usedFallback {
		confidence = averageScore(selected)
	}

	decision := domain.RoutingDecision{
		SelectedAgents: agentIDs(selected),
		Confidence:     confidence,
		Reasoning:      buildReasoning(signals, selected, usedFallback),
		Signals:        signals,
		UsedFallback:   usedFallback,
		Scores:         selected,
	}

	e.logger.Debug("routing decision",
		"region", string(signals.Region),
		"industry", string(signals.Industry),
		"agents", len(decision.SelectedAgents),
		"confidence", decision.Confidence,
		"fallback", decision.UsedFallback,
	)
	span.SetAttributes(
		tracer.IntAttr("routing.selected", len(decision.SelectedAgents)),
		tracer.BoolAttr("routing.fallback", decision.UsedFallback),
	)
	tracer.SetOK(span)
	return decision
}

// scoreAll computes the weighted match score for every agent, returned in
// registry declaration order.
func (e *Engine) scoreAll(signals domain.ExtractedSignals) []domain.AgentScore {
	ids := e.registry.AllAgents()
	scores := make([]domain.AgentScore, 0, len(ids))
	for _, id := range ids {
		cap, err := e.registry.CapabilitiesOf(id)
		if err != nil {
			// Registry construction validates membership; a miss here
			// means a programming error, not routable input.
			e.logger.Error("capability lookup failed", "agent", string(id), "error", err)
			continue
		}
		scores = append(scores, e.scoreAgent(id, cap, signals))
	}
	return scores
}

func (e *Engine) scoreAgent(id domain.AgentID, cap domain.AgentCapability, signals domain.ExtractedSignals) domain.AgentScore {
	regionScore := 0.0
	if signals.HasRegion() {
		regionScore = e.regionOverlap(cap, signals.Region)
	}
	industryScore := 0.0
	if signals.HasIndustry() && cap.CoversIndustry(signals.Industry) {
		industryScore = 1.0
	}

	return domain.AgentScore{
		Agent:         id,
		Score:         regionScore*e.cfg.RegionWeight + industryScore*e.cfg.IndustryWeight + cap.Reliability*e.cfg.ReliabilityWeight,
		RegionScore:   regionScore,
		IndustryScore: industryScore,
		Reliability:   cap.Reliability,
	}
}

// regionOverlap grants full credit when the agent covers the matched region
// or any broader region containing it, and partial credit when the agent is
// a global site with no region restriction. Ancestor coverage is deliberately
// full credit, not partial: an agent scoped to a country fully serves a query
// for one of its cities.
func (e *Engine) regionOverlap(cap domain.AgentCapability, region domain.RegionTag) float64 {
	for _, tag := range e.gazetteer.Ancestry(region) {
		if cap.CoversRegion(tag) {
			return 1.0
		}
	}
	if cap.Global() {
		return e.cfg.PartialRegionCredit
	}
	return 0.0
}

// selectAgents ranks the scored agents and keeps the top N above the match
// threshold. Ordering is deterministic: score desc, reliability desc, then
// registry declaration order.
func (e *Engine) selectAgents(scores []domain.AgentScore) []domain.AgentScore {
	ranked := make([]domain.AgentScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Reliability > ranked[j].Reliability
	})

	selected := make([]domain.AgentScore, 0, e.cfg.MaxAgentsPerQuery)
	for _, s := range ranked {
		if len(selected) >= e.cfg.MaxAgentsPerQuery {
			break
		}
		if s.Score > e.cfg.MatchThreshold {
			selected = append(selected, s)
		}
	}
	return selected
}

// appendLocalSpecialist adds the region's local specialist when a distance
// constraint is present and the top pick lacks fine-grained local coverage.
func (e *Engine) appendLocalSpecialist(selected []domain.AgentScore, signals domain.ExtractedSignals, scores []domain.AgentScore) []domain.AgentScore {
	if len(selected) == 0 || !signals.HasRegion() {
		return selected
	}
	topCap, err := e.registry.CapabilitiesOf(selected[0].Agent)
	if err != nil || topCap.LocalCoverage {
		return selected
	}
	specialist := e.gazetteer.LocalSpecialistFor(signals.Region)
	if specialist == "" {
		return selected
	}
	for _, s := range selected {
		if s.Agent == specialist {
			return selected
		}
	}
	for _, s := range scores {
		if s.Agent == specialist {
			return append(selected, s)
		}
	}
	// Specialist not in this registry: coverage is a data concern, skip it.
	return selected
}

// fallbackScores returns the configured default agent set with their
// computed scores, preserving configured order.
func (e *Engine) fallbackScores(scores []domain.AgentScore) []domain.AgentScore {
	byID := make(map[domain.AgentID]domain.AgentScore, len(scores))
	for _, s := range scores {
		byID[s.Agent] = s
	}
	out := make([]domain.AgentScore, 0, len(e.cfg.DefaultAgents))
	for _, id := range e.cfg.DefaultAgents {
		if s, ok := byID[domain.AgentID(id)]; ok {
			out = append(out, s)
		}
	}
	return out
}

func averageScore(scores []domain.AgentScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.Score
	}
	return sum / float64(len(scores))
}

func agentIDs(scores []domain.AgentScore) []domain.AgentID {
	ids := make([]domain.AgentID, len(scores))
	for i, s := range scores {
		ids[i] = s.Agent
	}
	return ids
}

// buildReasoning renders a deterministic justification from the same inputs
// that drove selection, so tests can assert exact strings.
func buildReasoning(signals domain.ExtractedSignals, selected []domain.AgentScore, usedFallback bool) string {
	var b strings.Builder

	b.WriteString("signals:")
	if signals.HasRegion() {
		fmt.Fprintf(&b, " region=%s", signals.Region)
	} else {
		b.WriteString(" region=none")
	}
	if signals.HasIndustry() {
		fmt.Fprintf(&b, " industry=%s", signals.Industry)
	} else {
		b.WriteString(" industry=none")
	}
	if signals.HasDistance() {
		fmt.Fprintf(&b, " distance=%.1fkm", signals.DistanceKM)
	}
	if signals.Language != "" {
		fmt.Fprintf(&b, " language=%s", signals.Language)
	}

	if usedFallback {
		b.WriteString("; no agent cleared the match threshold, using default agents")
	}
	b.WriteString("; selected:")
	for _, s := range selected {
		fmt.Fprintf(&b, " %s(score=%.2f region=%.2f industry=%.2f reliability=%.2f)",
			s.Agent, s.Score, s.RegionScore, s.IndustryScore, s.Reliability)
	}
	return b.String()
}
