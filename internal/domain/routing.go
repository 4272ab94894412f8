package domain

// AgentScore records how one agent scored against the extracted signals.
// Scores are kept on the decision so reasoning is reproducible from the same
// inputs that drove selection.
type AgentScore struct {
	Agent         AgentID `json:"agent"`
	Score         float64 `json:"score"`
	RegionScore   float64 `json:"region_score"`
	IndustryScore float64 `json:"industry_score"`
	Reliability   float64 `json:"reliability"`
}

// RoutingDecision is the deterministic output of query analysis: which
// agents to call, in priority order, with confidence and justification.
// Immutable once produced; fully JSON-serializable for offline audit.
type RoutingDecision struct {
	// SelectedAgents is never empty: when no agent clears the match
	// threshold the configured default set is substituted and UsedFallback
	// is set. Order is priority order; duplicates are forbidden.
	SelectedAgents []AgentID        `json:"selected_agents"`
	Confidence     float64          `json:"confidence"`
	Reasoning      string           `json:"reasoning"`
	Signals        ExtractedSignals `json:"signals"`
	UsedFallback   bool             `json:"used_fallback"`
	// Scores holds the per-agent breakdown for every selected agent.
	Scores []AgentScore `json:"scores,omitempty"`
}

// Selected reports whether id is in the selected set.
func (d RoutingDecision) Selected(id AgentID) bool {
	for _, a := range d.SelectedAgents {
		if a == id {
			return true
		}
	}
	return false
}
